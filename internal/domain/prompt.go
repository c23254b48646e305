package domain

import (
	"fmt"
	"strings"
)

// Category labels a prompt with the family of template it came from,
// e.g. "Programming" or "Creative Writing".
type Category string

// CategoryFromTemplate extracts the category label from a template string.
// The label is everything before the first colon, trimmed of whitespace.
// Templates without a colon are labelled with their full trimmed text.
func CategoryFromTemplate(template string) Category {
	label, _, _ := strings.Cut(template, ":")
	return Category(strings.TrimSpace(label))
}

// GeneratedPrompt is a single instantiated template ready to be sent to the
// generation backend. It lives for the duration of one generation task.
type GeneratedPrompt struct {
	Category Category `json:"category" validate:"required"`
	Text     string   `json:"text"     validate:"required"`
}

// Validate checks that both the category and the prompt text are present.
func (p GeneratedPrompt) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPrompt, err)
	}
	return nil
}
