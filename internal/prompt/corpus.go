// Package prompt synthesizes instruction prompts by filling category-labelled
// templates with randomly drawn values from a filler catalog.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/ahrav/go-instructgen/internal/domain"
)

// Corpus errors.
var (
	ErrNoTemplates        = errors.New("corpus has no templates")
	ErrNoMatchingCategory = errors.New("no category matches filter")
)

// Corpus is a validated template set plus the catalog that covers it.
// It is immutable and safe to share between synthesizers.
type Corpus struct {
	templates []Template
	catalog   Catalog
	slots     map[string]resolved
}

// NewCorpus parses templates and checks that every slot of every template
// resolves against catalog. This is the only place slot coverage is checked;
// synthesis itself cannot fail.
func NewCorpus(templates []string, catalog Catalog) (*Corpus, error) {
	if len(templates) == 0 {
		return nil, ErrNoTemplates
	}

	slots, err := catalog.compile()
	if err != nil {
		return nil, err
	}

	parsed := make([]Template, 0, len(templates))
	for _, raw := range templates {
		t, err := ParseTemplate(raw)
		if err != nil {
			return nil, err
		}
		for _, s := range t.slots {
			if _, ok := slots[s]; !ok {
				return nil, fmt.Errorf("template %q: %w: %s", raw, ErrUnknownSlot, s)
			}
		}
		parsed = append(parsed, t)
	}

	return &Corpus{templates: parsed, catalog: catalog, slots: slots}, nil
}

// Templates returns the corpus templates in declaration order.
func (c *Corpus) Templates() []Template { return append([]Template(nil), c.templates...) }

// Catalog returns the filler catalog.
func (c *Corpus) Catalog() Catalog { return c.catalog }

// Categories returns the distinct categories in first-seen order.
func (c *Corpus) Categories() []domain.Category {
	seen := make(map[domain.Category]struct{})
	var out []domain.Category
	for _, t := range c.templates {
		if _, ok := seen[t.category]; ok {
			continue
		}
		seen[t.category] = struct{}{}
		out = append(out, t.category)
	}
	return out
}

// FilterCategories returns a corpus restricted to the categories that best
// fuzzy-match any query; ties on score are all kept. Empty queries return c
// unchanged.
func (c *Corpus) FilterCategories(queries ...string) (*Corpus, error) {
	var active []string
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			active = append(active, q)
		}
	}
	if len(active) == 0 {
		return c, nil
	}

	categories := c.Categories()
	names := make([]string, len(categories))
	for i, cat := range categories {
		names[i] = strings.ToLower(string(cat))
	}

	keep := make(map[domain.Category]struct{})
	for _, q := range active {
		matches := fuzzy.Find(strings.ToLower(q), names)
		for _, m := range matches {
			if m.Score < matches[0].Score {
				break
			}
			keep[categories[m.Index]] = struct{}{}
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoMatchingCategory, strings.Join(active, ", "))
	}

	filtered := &Corpus{catalog: c.catalog, slots: c.slots}
	for _, t := range c.templates {
		if _, ok := keep[t.category]; ok {
			filtered.templates = append(filtered.templates, t)
		}
	}
	return filtered, nil
}
