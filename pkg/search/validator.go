package search

import (
	"fmt"
	"unicode/utf8"
)

// MaxQueryLength is the longest accepted query in bytes. Queries at the limit
// still execute; longer ones are rejected before compilation.
const MaxQueryLength = 10000

// ValidationReason classifies why a query was rejected
type ValidationReason string

const (
	ReasonNone        ValidationReason = ""
	ReasonTooLong     ValidationReason = "too_long"
	ReasonUnmatchable ValidationReason = "unmatchable"
	ReasonInvalidType ValidationReason = "invalid_type"
)

// ValidationResult is the outcome of validating a raw query. Valid results
// carry ReasonNone; invalid results always carry a reason and message.
type ValidationResult struct {
	Valid   bool             `json:"valid"`
	Reason  ValidationReason `json:"reason,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Validator checks raw queries before compilation. Validation is pure and
// O(len(query)): it never touches storage and never panics.
type Validator struct{}

// NewValidator creates a query validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks a raw query string
func (v *Validator) Validate(raw string) ValidationResult {
	if len(raw) > MaxQueryLength {
		return ValidationResult{
			Valid:   false,
			Reason:  ReasonTooLong,
			Message: fmt.Sprintf("query exceeds %d characters", MaxQueryLength),
		}
	}

	if isUnmatchable(raw) {
		return ValidationResult{
			Valid:   false,
			Reason:  ReasonUnmatchable,
			Message: "query contains no searchable terms",
		}
	}

	return ValidationResult{Valid: true}
}

// isUnmatchable reports whether the query consists only of whitespace and
// wildcard characters, which can never match any indexed token.
func isUnmatchable(raw string) bool {
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRuneInString(raw[i:])
		switch r {
		case ' ', '\t', '\n', '\r', '*':
		default:
			return false
		}
		i += size
	}
	return true
}
