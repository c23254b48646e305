package domain

import (
	"fmt"
	"strings"
)

// Sample is one record of the generated dataset: the instruction that was sent
// to the backend and the response it produced.
//
// A Sample only exists for a successful backend response; the dataset never
// contains a record with an empty or missing field.
type Sample struct {
	Category    string `json:"category"    validate:"required"`
	Instruction string `json:"instruction" validate:"required"`
	Response    string `json:"response"    validate:"required"`
}

// NewSample pairs a generated prompt with the backend's response text.
// Returns ErrInvalidSample when the response is blank.
func NewSample(prompt GeneratedPrompt, response string) (Sample, error) {
	s := Sample{
		Category:    string(prompt.Category),
		Instruction: prompt.Text,
		Response:    response,
	}
	if err := s.Validate(); err != nil {
		return Sample{}, err
	}
	return s, nil
}

// Validate checks that every field is a non-empty, non-whitespace string.
func (s Sample) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSample, err)
	}
	if strings.TrimSpace(s.Response) == "" {
		return fmt.Errorf("%w: response is blank", ErrInvalidSample)
	}
	return nil
}
