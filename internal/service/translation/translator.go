// Package translation defines the text translation interface.
package translation

import "context"

// Result holds a completed translation.
type Result struct {
	TranslatedText string
	// DetectedSource is the source language the provider detected, when it
	// differs from (or was inferred instead of) the requested one.
	DetectedSource string
}

// Translator converts text between languages. Language codes are two-letter
// (optionally region-qualified) codes as carried on the session.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (Result, error)
}
