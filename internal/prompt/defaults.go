package prompt

import "fmt"

// defaultTemplates are the built-in instruction templates, seven categories of five.
var defaultTemplates = []string{
	"General Knowledge: Explain the concept of {topic} in simple terms.",
	"General Knowledge: What are the main differences between {topic1} and {topic2}?",
	"General Knowledge: Summarize the key points of {topic} in bullet points.",
	"General Knowledge: How does {topic} relate to {topic2}?",
	"General Knowledge: What are the potential future implications of {topic}?",

	"Math and Logic: Solve the following math problem: {math_problem}",
	"Math and Logic: Explain the step-by-step solution to this equation: {equation}",
	"Math and Logic: What is the logical fallacy in the following argument: {argument}",
	"Math and Logic: Describe the mathematical principle behind {math_concept}.",
	"Math and Logic: Create a word problem that involves {math_operation}.",

	"Programming: Write a {programming_language} function to {coding_task}.",
	"Programming: Explain the time complexity of the following algorithm: {algorithm}",
	"Programming: Debug the following code snippet: {code_snippet}",
	"Programming: Implement a {data_structure} in {programming_language}.",
	"Programming: Optimize the following code for better performance: {code_to_optimize}",

	"Problem-Solving: Analyze the following scenario and provide a solution: {scenario}",
	"Problem-Solving: What are the pros and cons of {subject}?",
	"Problem-Solving: Develop a strategy to solve the following problem: {problem}",
	"Problem-Solving: Evaluate the strengths and weaknesses of {approach} in addressing {issue}.",
	"Problem-Solving: Propose an innovative solution to {real_world_problem}.",

	"Creative Writing: Write a short story about {character} in a {setting}.",
	"Creative Writing: Create a dialogue between {character1} and {character2} about {topic}.",
	"Creative Writing: Describe a day in the life of {character} living in {setting}.",
	"Creative Writing: Write a poem that incorporates the themes of {theme1} and {theme2}.",
	"Creative Writing: Craft an alternative ending to the story of {famous_story}.",

	"Task Instructions: Provide a step-by-step guide on how to {task}.",
	"Task Instructions: What are the best practices for {professional_task}?",
	"Task Instructions: Create a troubleshooting guide for common issues with {technology}.",
	"Task Instructions: Outline a training program for {skill}.",
	"Task Instructions: Design a project plan for implementing {project}.",

	"Analysis: Conduct a SWOT analysis of {company_or_product}.",
	"Analysis: Compare and contrast the theories of {scientist1} and {scientist2}.",
	"Analysis: Analyze the impact of {event} on {field_of_study}.",
	"Analysis: What are the ethical implications of {technology_or_practice}?",
	"Analysis: Review the methodology of the following research study: {study_description}",
}

var defaultCatalog = Catalog{
	Lists: map[string][]string{
		"topic": {
			"artificial intelligence", "quantum computing", "blockchain", "neural networks",
			"machine learning", "cryptography", "data structures", "algorithms", "cybersecurity",
			"cloud computing", "Internet of Things", "augmented reality", "virtual reality",
			"5G technology", "autonomous vehicles", "renewable energy", "gene editing",
			"nanotechnology", "fusion energy", "space exploration", "climate change modeling",
			"quantum entanglement", "dark matter", "black holes", "string theory",
		},
		"math_problem": {
			"Find the derivative of f(x) = 3x^2 + 2x - 5",
			"Solve the system of equations: 2x + y = 7, 3x - 2y = 1",
			"Calculate the area under the curve y = x^2 from x = 0 to x = 3",
			"Find the eigenvalues of the matrix [[1, 2], [3, 4]]",
			"Prove that the square root of 2 is irrational",
		},
		"equation": {
			"3x^2 + 4x - 2 = 0",
			"log(x) + log(y) = 10",
			"sin(x) + cos(x) = 1",
			"e^x = 2x + 1",
			"|x - 3| + |y + 2| = 5",
		},
		"math_concept": {
			"Fourier transforms", "Euclidean algorithm", "Riemann hypothesis",
			"P vs NP problem", "Bayes' theorem", "Zeno's paradox", "Fibonacci sequence",
			"Euler's identity", "Monty Hall problem", "Traveling salesman problem",
		},
		"math_operation": {
			"integration by parts", "matrix multiplication", "complex number division",
			"solving differential equations", "finding limits", "vector calculus",
			"probability distributions", "statistical hypothesis testing",
		},
		"programming_language": {
			"Python", "JavaScript", "Java", "C++", "Ruby", "Go", "Rust", "Swift",
			"Kotlin", "TypeScript", "Scala", "Haskell", "R", "MATLAB", "SQL",
		},
		"coding_task": {
			"implement a binary search tree", "create a REST API", "build a web scraper",
			"develop a machine learning model", "implement a sorting algorithm",
			"create a multithreaded application", "build a simple blockchain",
			"implement a caching system", "create a file compression utility",
		},
		"algorithm": {
			"quicksort", "Dijkstra's algorithm", "A* search", "k-means clustering",
			"pagerank", "naive Bayes classifier", "Bellman-Ford algorithm",
			"Fast Fourier Transform", "RSA encryption", "Kruskal's algorithm",
		},
		"data_structure": {
			"hash table", "red-black tree", "heap", "trie", "graph", "B-tree",
			"skip list", "bloom filter", "disjoint set", "segment tree",
		},
		"scenario": {
			"A company facing a cybersecurity breach",
			"A city planning to implement a smart transportation system",
			"A hospital looking to optimize patient care with AI",
			"A country dealing with rising sea levels due to climate change",
			"A school system transitioning to remote learning",
		},
		"real_world_problem": {
			"reducing plastic waste in oceans", "improving urban air quality",
			"ensuring fair and secure elections", "providing clean water in developing countries",
			"combating misinformation on social media", "reducing traffic congestion in cities",
		},
		"character": {
			"a time traveler", "an AI researcher", "a quantum physicist", "a cybersecurity expert",
			"an environmental activist", "a space colonist", "a genetic engineer",
			"a virtual reality designer", "a robot ethics philosopher", "a data detective",
		},
		"setting": {
			"a post-quantum cryptography world", "a Martian colony", "a zero-waste city",
			"a world run by artificial general intelligence", "an underwater research station",
			"a society where aging has been cured", "a matrix-like virtual reality",
			"a world after a global internet collapse", "a civilization powered entirely by fusion energy",
		},
		"task": {
			"set up a home automation system", "create a personal carbon footprint tracker",
			"build a basic machine learning model", "secure a home network against cyber threats",
			"write a smart contract for cryptocurrency transactions", "design an efficient algorithm for data processing",
			"develop a strategy for ethical AI implementation", "create a disaster recovery plan for a data center",
		},
		"company_or_product": {
			"Tesla's self-driving technology", "Amazon's drone delivery service",
			"Google's quantum supremacy claim", "Apple's privacy-focused approach",
			"Microsoft's cloud computing platform", "SpaceX's Starlink satellite internet",
			"IBM's Watson AI system", "Facebook's cryptocurrency project",
		},
		"scientist": {
			"Albert Einstein", "Stephen Hawking", "Alan Turing", "Marie Curie",
			"Richard Feynman", "Ada Lovelace", "Nikola Tesla", "Grace Hopper",
			"Tim Berners-Lee", "Barbara McClintock",
		},
		"technology_or_practice": {
			"facial recognition in public spaces", "CRISPR gene editing",
			"autonomous weapons systems", "social media data collection",
			"predictive policing algorithms", "brain-computer interfaces",
			"deep fake technology", "mass surveillance systems",
		},
	},
	Aliases: map[string]string{
		"topic1":            "topic",
		"topic2":            "topic",
		"theme1":            "topic",
		"theme2":            "topic",
		"subject":           "topic",
		"field_of_study":    "topic",
		"character1":        "character",
		"character2":        "character",
		"scientist1":        "scientist",
		"scientist2":        "scientist",
		"professional_task": "task",
		"technology":        "technology_or_practice",
		"skill":             "coding_task",
		"problem":           "real_world_problem",
		"issue":             "real_world_problem",
	},
	Composites: map[string]string{
		"famous_story":      "'{character}' in {setting}",
		"project":           "a {technology_or_practice} system",
		"event":             "the discovery of {topic}",
		"study_description": "A study on the effects of {technology_or_practice} on {topic}",
		"approach":          "using {technology_or_practice}",
	},
	Fixed: map[string]string{
		"argument":         "All cats are animals. Some animals are black. Therefore, all cats are black.",
		"code_snippet":     "def factorial(n):\n    if n == 0:\n        return 1\n    else:\n        return n * factorial(n-1)",
		"code_to_optimize": "for i in range(len(list1)):\n    for j in range(len(list2)):\n        if list1[i] == list2[j]:\n            print(list1[i])",
	},
}

// DefaultCorpus returns the built-in corpus.
func DefaultCorpus() *Corpus {
	c, err := NewCorpus(defaultTemplates, defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in corpus is invalid: %v", err))
	}
	return c
}
