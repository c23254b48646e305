package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// CorpusFile is the on-disk YAML form of a corpus.
type CorpusFile struct {
	Templates []string `yaml:"templates"`
	Catalog   `yaml:",inline"`
}

// LoadCorpusFile reads and validates a YAML corpus. Unknown keys are rejected.
func LoadCorpusFile(path string) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return ParseCorpus(raw)
}

// ParseCorpus decodes and validates a YAML corpus document.
func ParseCorpus(raw []byte) (*Corpus, error) {
	var f CorpusFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoTemplates
		}
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	c, err := NewCorpus(f.Templates, f.Catalog)
	if err != nil {
		return nil, fmt.Errorf("invalid corpus: %w", err)
	}
	return c, nil
}

// WriteCorpus encodes c as YAML, suitable as a starting point for a custom corpus.
func WriteCorpus(w io.Writer, c *Corpus) error {
	f := CorpusFile{Catalog: c.catalog}
	for _, t := range c.templates {
		f.Templates = append(f.Templates, t.raw)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	return enc.Close()
}

// Load returns the corpus at path, or the built-in corpus when path is empty,
// restricted to categories matching any of the filters.
func Load(path string, categories ...string) (*Corpus, error) {
	c := DefaultCorpus()
	if path != "" {
		var err error
		if c, err = LoadCorpusFile(path); err != nil {
			return nil, err
		}
	}
	return c.FilterCategories(categories...)
}
