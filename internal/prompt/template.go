package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ahrav/go-instructgen/internal/domain"
)

// Template parsing errors.
var (
	ErrUnclosedSlot = errors.New("unclosed slot")
	ErrEmptySlot    = errors.New("empty slot name")
	ErrStrayBrace   = errors.New("unmatched closing brace")
)

// Template is an instruction template parsed once into literal text and
// named slots, e.g. "Programming: Implement a {data_structure} in {programming_language}.".
type Template struct {
	raw      string
	category domain.Category
	parts    []part
	slots    []string // unique slot names in first-seen order
}

// part is either literal text or a slot reference.
type part struct {
	text string
	slot bool
}

// ParseTemplate parses raw. Slots are written {name}; braces cannot be escaped.
func ParseTemplate(raw string) (Template, error) {
	t := Template{raw: raw, category: domain.CategoryFromTemplate(raw)}
	seen := make(map[string]struct{})

	rest := raw
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if closeIdx := strings.IndexByte(rest, '}'); closeIdx >= 0 && (open < 0 || closeIdx < open) {
			return Template{}, fmt.Errorf("%w in %q", ErrStrayBrace, raw)
		}
		if open < 0 {
			t.parts = append(t.parts, part{text: rest})
			break
		}
		if open > 0 {
			t.parts = append(t.parts, part{text: rest[:open]})
		}

		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return Template{}, fmt.Errorf("%w in %q", ErrUnclosedSlot, raw)
		}
		name := strings.TrimSpace(rest[open+1 : open+end])
		if name == "" || strings.ContainsAny(name, "{") {
			return Template{}, fmt.Errorf("%w in %q", ErrEmptySlot, raw)
		}

		t.parts = append(t.parts, part{text: name, slot: true})
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			t.slots = append(t.slots, name)
		}
		rest = rest[open+end+1:]
	}

	return t, nil
}

// String returns the unparsed template.
func (t Template) String() string { return t.raw }

// Category returns the label before the first ':'.
func (t Template) Category() domain.Category { return t.category }

// Slots returns the distinct slot names the template references.
func (t Template) Slots() []string { return append([]string(nil), t.slots...) }

// Render substitutes every slot with value(name). A slot repeated in the
// template is looked up once and reused.
func (t Template) Render(value func(slot string) string) string {
	var b strings.Builder
	b.Grow(len(t.raw) * 2)

	var memo map[string]string
	for _, p := range t.parts {
		if !p.slot {
			b.WriteString(p.text)
			continue
		}
		v, ok := memo[p.text]
		if !ok {
			v = value(p.text)
			if memo == nil {
				memo = make(map[string]string, len(t.slots))
			}
			memo[p.text] = v
		}
		b.WriteString(v)
	}
	return b.String()
}
