package domain

import "errors"

// ErrInvalidSample indicates that a sample is missing one of its required fields.
var ErrInvalidSample = errors.New("invalid sample")

// ErrInvalidPrompt indicates that a generated prompt has no category or text.
var ErrInvalidPrompt = errors.New("invalid generated prompt")

// ErrInvalidSummary indicates that a run summary violates produced <= requested.
var ErrInvalidSummary = errors.New("invalid run summary")
