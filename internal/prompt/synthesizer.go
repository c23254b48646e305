package prompt

import (
	"math/rand/v2"

	"github.com/ahrav/go-instructgen/internal/domain"
)

// pcgStream separates the two PCG state words derived from one seed.
const pcgStream = 0x9e3779b97f4a7c15

// Synthesizer draws prompts from a Corpus. It owns its random source and is
// not safe for concurrent use; give each worker its own.
type Synthesizer struct {
	corpus *Corpus
	rng    *rand.Rand
}

// NewSynthesizer creates a synthesizer seeded with seed. A zero seed draws a
// random one so independent runs differ.
func (c *Corpus) NewSynthesizer(seed uint64) *Synthesizer {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Synthesizer{
		corpus: c,
		rng:    rand.New(rand.NewPCG(seed, seed^pcgStream)),
	}
}

// Synthesize picks one template uniformly and fills each of its slots with an
// independent uniform draw.
func (s *Synthesizer) Synthesize() domain.GeneratedPrompt {
	t := s.corpus.templates[s.rng.IntN(len(s.corpus.templates))]
	return domain.GeneratedPrompt{
		Category: t.category,
		Text:     t.Render(s.fill),
	}
}

func (s *Synthesizer) fill(slot string) string {
	r := s.corpus.slots[slot]
	switch r.kind {
	case kindFixed:
		return r.fixed
	case kindComposite:
		return r.composite.Render(s.fill)
	default:
		return r.list[s.rng.IntN(len(r.list))]
	}
}
