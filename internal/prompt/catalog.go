package prompt

import (
	"errors"
	"fmt"
	"sort"
)

// Catalog validation errors.
var (
	ErrUnknownSlot       = errors.New("slot has no filler")
	ErrEmptyList         = errors.New("filler list is empty")
	ErrNestedComposite   = errors.New("composite filler references another composite")
	ErrAmbiguousSlot     = errors.New("slot defined more than once")
	ErrAliasToMissingKey = errors.New("alias targets unknown list")
)

// Catalog maps slot names to filler values.
//
// A slot resolves, in order, to a fixed value, a composite filler (a small
// template whose own slots resolve against the catalog), an alias of a list,
// or a list of the same name. Lists are sampled uniformly with replacement.
type Catalog struct {
	Lists      map[string][]string `yaml:"lists"`
	Aliases    map[string]string   `yaml:"aliases,omitempty"`
	Composites map[string]string   `yaml:"composites,omitempty"`
	Fixed      map[string]string   `yaml:"fixed,omitempty"`
}

type slotKind int

const (
	kindList slotKind = iota
	kindFixed
	kindComposite
)

// resolved is a slot with its filler source bound.
type resolved struct {
	kind      slotKind
	list      []string
	fixed     string
	composite Template
}

// compile validates the catalog and binds every name it can resolve.
func (c Catalog) compile() (map[string]resolved, error) {
	out := make(map[string]resolved)

	for name, values := range c.Lists {
		if len(values) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyList, name)
		}
		out[name] = resolved{kind: kindList, list: values}
	}

	for _, name := range sortedKeys(c.Aliases) {
		target := c.Aliases[name]
		values, ok := c.Lists[target]
		if !ok {
			return nil, fmt.Errorf("%w: %s -> %s", ErrAliasToMissingKey, name, target)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousSlot, name)
		}
		out[name] = resolved{kind: kindList, list: values}
	}

	for _, name := range sortedKeys(c.Fixed) {
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousSlot, name)
		}
		out[name] = resolved{kind: kindFixed, fixed: c.Fixed[name]}
	}

	for _, name := range sortedKeys(c.Composites) {
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrAmbiguousSlot, name)
		}
		tmpl, err := ParseTemplate(c.Composites[name])
		if err != nil {
			return nil, fmt.Errorf("composite %s: %w", name, err)
		}
		out[name] = resolved{kind: kindComposite, composite: tmpl}
	}

	// Composite slots may only reference non-composite fillers.
	for _, name := range sortedKeys(c.Composites) {
		for _, slot := range out[name].composite.slots {
			r, ok := out[slot]
			if !ok {
				return nil, fmt.Errorf("composite %s: %w: %s", name, ErrUnknownSlot, slot)
			}
			if r.kind == kindComposite {
				return nil, fmt.Errorf("%w: %s -> %s", ErrNestedComposite, name, slot)
			}
		}
	}

	return out, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
