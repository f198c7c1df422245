package sentiment

import (
	"context"
	"errors"
	"fmt"
)

// Label is a sentiment classification label.
type Label string

const (
	LabelPositive Label = "Positive"
	LabelNegative Label = "Negative"
	LabelNeutral  Label = "Neutral"
)

// Scores holds the class proportions for a scored text.
// The three values always sum to 1.0.
type Scores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

// Sum returns the proportion total, which should be 1.0.
func (s Scores) Sum() float64 {
	return s.Positive + s.Negative + s.Neutral
}

// ForLabel returns the proportion assigned to the given label.
func (s Scores) ForLabel(label Label) float64 {
	switch label {
	case LabelPositive:
		return s.Positive
	case LabelNegative:
		return s.Negative
	default:
		return s.Neutral
	}
}

// Argmax returns the label with the highest proportion.
func (s Scores) Argmax() Label {
	if s.Positive >= s.Negative && s.Positive >= s.Neutral {
		return LabelPositive
	}
	if s.Negative >= s.Positive && s.Negative >= s.Neutral {
		return LabelNegative
	}
	return LabelNeutral
}

// Result is the outcome of scoring one text with one method.
type Result struct {
	Label        Label   `json:"label"`
	Confidence   float64 `json:"confidence"`
	Scores       Scores  `json:"scores"`
	Subjectivity float64 `json:"subjectivity,omitempty"`
	Method       string  `json:"method"`
	Version      string  `json:"version,omitempty"`
}

// HybridResult is the blended outcome plus the per-method components.
type HybridResult struct {
	Result
	Components map[string]*Result `json:"components"`
	Consensus  bool               `json:"consensus"`
}

// Scorer scores a text with a single sentiment method.
type Scorer interface {
	// Score analyzes the given text and returns a classification.
	Score(ctx context.Context, text string) (*Result, error)
	// Name returns the method name (lexicon, polarity, transformer).
	Name() string
	// Version returns the method implementation version.
	Version() string
}

// ErrorType categorizes sentiment errors per the service error taxonomy.
type ErrorType string

const (
	// ErrorTypeInput indicates bad or empty input text
	ErrorTypeInput ErrorType = "input"
	// ErrorTypeMissingDependency indicates a required model or resource is absent
	ErrorTypeMissingDependency ErrorType = "missing_dependency"
	// ErrorTypeUnavailable indicates a backing service could not be reached
	ErrorTypeUnavailable ErrorType = "service_unavailable"
)

// Error is a typed sentiment analysis error carrying a corrective hint.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Hint    string    `json:"hint,omitempty"`
	Cause   error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sentiment %s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("sentiment %s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewInputError creates an input validation error
func NewInputError(message string) *Error {
	return &Error{Type: ErrorTypeInput, Message: message}
}

// NewUnavailableError creates a service-unavailable error with a corrective hint
func NewUnavailableError(message, hint string, cause error) *Error {
	return &Error{Type: ErrorTypeUnavailable, Message: message, Hint: hint, Cause: cause}
}

// NewMissingDependencyError creates a missing-dependency error with a corrective hint
func NewMissingDependencyError(message, hint string) *Error {
	return &Error{Type: ErrorTypeMissingDependency, Message: message, Hint: hint}
}

// IsUnavailable reports whether err is a service-unavailable sentiment error.
func IsUnavailable(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Type == ErrorTypeUnavailable || se.Type == ErrorTypeMissingDependency
	}
	return false
}
