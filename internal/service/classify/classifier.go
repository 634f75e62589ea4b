// Package classify defines the text classification interface.
package classify

import "context"

// DefaultLabel and DefaultConfidence are used when classification fails
// entirely; the pipeline continues with these neutral values.
const (
	DefaultLabel      = "NEUTRAL"
	DefaultConfidence = 0.5
)

// Result is a classification label with its confidence score (0.0-1.0).
type Result struct {
	Label      string
	Confidence float64
}

// Classifier assigns a label and confidence to a text in a given language.
type Classifier interface {
	Classify(ctx context.Context, text, languageCode string) (Result, error)
}
