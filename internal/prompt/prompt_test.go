package prompt_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-instructgen/internal/domain"
	"github.com/ahrav/go-instructgen/internal/prompt"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantSlots []string
		wantCat   domain.Category
		wantErr   error
	}{
		{name: "two slots", raw: "Programming: Implement a {data_structure} in {programming_language}.", wantSlots: []string{"data_structure", "programming_language"}, wantCat: "Programming"},
		{name: "repeated slot", raw: "X: {a} and {a}", wantSlots: []string{"a"}, wantCat: "X"},
		{name: "no slots", raw: "Plain: nothing here", wantCat: "Plain"},
		{name: "no colon", raw: "Just {x}", wantSlots: []string{"x"}, wantCat: "Just {x}"},
		{name: "unclosed", raw: "X: {oops", wantErr: prompt.ErrUnclosedSlot},
		{name: "empty", raw: "X: {}", wantErr: prompt.ErrEmptySlot},
		{name: "nested open", raw: "X: {a{b}", wantErr: prompt.ErrEmptySlot},
		{name: "stray close", raw: "X: a} b", wantErr: prompt.ErrStrayBrace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := prompt.ParseTemplate(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCat, tmpl.Category())
			if tt.wantSlots == nil {
				assert.Empty(t, tmpl.Slots())
			} else {
				assert.Equal(t, tt.wantSlots, tmpl.Slots())
			}
			assert.Equal(t, tt.raw, tmpl.String())
		})
	}
}

func TestTemplateRenderReusesRepeatedSlot(t *testing.T) {
	tmpl, err := prompt.ParseTemplate("X: {a}-{b}-{a}")
	require.NoError(t, err)

	calls := map[string]int{}
	out := tmpl.Render(func(s string) string {
		calls[s]++
		return strings.ToUpper(s)
	})
	assert.Equal(t, "X: A-B-A", out)
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, calls)
}

func TestNewCorpusValidation(t *testing.T) {
	lists := map[string][]string{"topic": {"t1"}}

	tests := []struct {
		name      string
		templates []string
		catalog   prompt.Catalog
		wantErr   error
	}{
		{name: "no templates", catalog: prompt.Catalog{Lists: lists}, wantErr: prompt.ErrNoTemplates},
		{name: "uncovered slot", templates: []string{"A: {missing}"}, catalog: prompt.Catalog{Lists: lists}, wantErr: prompt.ErrUnknownSlot},
		{name: "empty list", templates: []string{"A: {topic}"}, catalog: prompt.Catalog{Lists: map[string][]string{"topic": {}}}, wantErr: prompt.ErrEmptyList},
		{name: "alias to missing list", templates: []string{"A: {t}"}, catalog: prompt.Catalog{Lists: lists, Aliases: map[string]string{"t": "nope"}}, wantErr: prompt.ErrAliasToMissingKey},
		{name: "alias shadows list", templates: []string{"A: {topic}"}, catalog: prompt.Catalog{Lists: lists, Aliases: map[string]string{"topic": "topic"}}, wantErr: prompt.ErrAmbiguousSlot},
		{name: "composite uncovered", templates: []string{"A: {c}"}, catalog: prompt.Catalog{Lists: lists, Composites: map[string]string{"c": "x {nope}"}}, wantErr: prompt.ErrUnknownSlot},
		{name: "nested composite", templates: []string{"A: {c}"}, catalog: prompt.Catalog{Lists: lists, Composites: map[string]string{"c": "{d}", "d": "{topic}"}}, wantErr: prompt.ErrNestedComposite},
		{name: "bad template", templates: []string{"A: {"}, catalog: prompt.Catalog{Lists: lists}, wantErr: prompt.ErrUnclosedSlot},
		{name: "valid", templates: []string{"A: {topic} {t2} {c} {f}"}, catalog: prompt.Catalog{
			Lists:      lists,
			Aliases:    map[string]string{"t2": "topic"},
			Composites: map[string]string{"c": "about {topic}"},
			Fixed:      map[string]string{"f": "fixed"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := prompt.NewCorpus(tt.templates, tt.catalog)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefaultCorpus(t *testing.T) {
	c := prompt.DefaultCorpus()
	assert.Len(t, c.Templates(), 35)
	assert.Equal(t, []domain.Category{
		"General Knowledge", "Math and Logic", "Programming", "Problem-Solving",
		"Creative Writing", "Task Instructions", "Analysis",
	}, c.Categories())
}

func TestSynthesizeFillsEverySlot(t *testing.T) {
	s := prompt.DefaultCorpus().NewSynthesizer(42)
	for range 500 {
		p := s.Synthesize()
		require.NoError(t, p.Validate())
		assert.NotContains(t, p.Text, "{")
		assert.NotContains(t, p.Text, "}")
		assert.True(t, strings.HasPrefix(p.Text, string(p.Category)+":"), p.Text)
	}
}

func TestSynthesizeDeterministicForSeed(t *testing.T) {
	c := prompt.DefaultCorpus()
	a, b := c.NewSynthesizer(7), c.NewSynthesizer(7)
	for range 50 {
		assert.Equal(t, a.Synthesize(), b.Synthesize())
	}
}

func TestSynthesizeCoversTemplatesAndRepeats(t *testing.T) {
	c, err := prompt.NewCorpus(
		[]string{"One: {x} {y}", "Two: {x}"},
		prompt.Catalog{
			Lists:   map[string][]string{"x": {"a", "b"}},
			Aliases: map[string]string{"y": "x"},
		},
	)
	require.NoError(t, err)

	s := c.NewSynthesizer(1)
	seen := map[string]int{}
	for range 2000 {
		seen[s.Synthesize().Text]++
	}

	// Every combination is reachable, including the same value for x and y.
	for _, want := range []string{"One: a a", "One: a b", "One: b a", "One: b b", "Two: a", "Two: b"} {
		assert.Positive(t, seen[want], want)
	}
	assert.Len(t, seen, 6)
}

func TestSynthesizeComposite(t *testing.T) {
	c, err := prompt.NewCorpus(
		[]string{"Story: The tale of {famous_story}. {argument}"},
		prompt.Catalog{
			Lists:      map[string][]string{"character": {"a time traveler"}, "setting": {"a Martian colony"}},
			Composites: map[string]string{"famous_story": "'{character}' in {setting}"},
			Fixed:      map[string]string{"argument": "Fixed."},
		},
	)
	require.NoError(t, err)

	p := c.NewSynthesizer(3).Synthesize()
	assert.Equal(t, domain.Category("Story"), p.Category)
	assert.Equal(t, "Story: The tale of 'a time traveler' in a Martian colony. Fixed.", p.Text)
}

func TestFilterCategories(t *testing.T) {
	c := prompt.DefaultCorpus()

	same, err := c.FilterCategories()
	require.NoError(t, err)
	assert.Same(t, c, same)

	prog, err := c.FilterCategories("prog")
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{"Programming"}, prog.Categories())
	assert.Len(t, prog.Templates(), 5)

	multi, err := c.FilterCategories("math", "creative")
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Category{"Math and Logic", "Creative Writing"}, multi.Categories())

	s := prog.NewSynthesizer(9)
	for range 20 {
		assert.Equal(t, domain.Category("Programming"), s.Synthesize().Category)
	}

	_, err = c.FilterCategories("zzzzqqq")
	assert.ErrorIs(t, err, prompt.ErrNoMatchingCategory)
}

func TestCorpusYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, prompt.WriteCorpus(&buf, prompt.DefaultCorpus()))

	path := filepath.Join(t.TempDir(), "corpus.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	loaded, err := prompt.LoadCorpusFile(path)
	require.NoError(t, err)
	assert.Equal(t, prompt.DefaultCorpus().Categories(), loaded.Categories())
	assert.Equal(t, prompt.DefaultCorpus().Catalog(), loaded.Catalog())
}

func TestParseCorpusErrors(t *testing.T) {
	_, err := prompt.ParseCorpus([]byte(""))
	assert.ErrorIs(t, err, prompt.ErrNoTemplates)

	_, err = prompt.ParseCorpus([]byte("templates: ['A: {x}']\nlists: {x: [v]}\nbogus: 1\n"))
	assert.Error(t, err)

	_, err = prompt.ParseCorpus([]byte("templates: ['A: {y}']\nlists: {x: [v]}\n"))
	assert.ErrorIs(t, err, prompt.ErrUnknownSlot)

	c, err := prompt.ParseCorpus([]byte("templates: ['A: {x}']\nlists: {x: [v]}\n"))
	require.NoError(t, err)
	assert.Equal(t, "A: v", c.NewSynthesizer(1).Synthesize().Text)
}

func TestLoad(t *testing.T) {
	c, err := prompt.Load("", "analysis")
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{"Analysis"}, c.Categories())

	_, err = prompt.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
