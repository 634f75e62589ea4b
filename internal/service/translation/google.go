package translation

import (
	"context"
	"fmt"

	"cloud.google.com/go/translate"
	"golang.org/x/text/language"
)

// GoogleTranslator implements Translator using the Google Cloud Translation
// API. Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
type GoogleTranslator struct {
	client *translate.Client
}

// NewGoogle creates a Google-backed translator.
func NewGoogle(ctx context.Context) (*GoogleTranslator, error) {
	client, err := translate.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("translate client: %w", err)
	}
	return &GoogleTranslator{client: client}, nil
}

func (t *GoogleTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (Result, error) {
	target, err := language.Parse(targetLang)
	if err != nil {
		return Result{}, fmt.Errorf("parse target language %q: %w", targetLang, err)
	}

	opts := &translate.Options{Format: translate.Text}
	if src, err := language.Parse(sourceLang); err == nil {
		opts.Source = src
	}

	translations, err := t.client.Translate(ctx, []string{text}, target, opts)
	if err != nil {
		return Result{}, fmt.Errorf("translate: %w", err)
	}
	if len(translations) == 0 {
		return Result{}, fmt.Errorf("translate: empty response")
	}

	res := Result{TranslatedText: translations[0].Text}
	if translations[0].Source != (language.Tag{}) {
		res.DetectedSource = translations[0].Source.String()
	}
	return res, nil
}

// Close releases the underlying client.
func (t *GoogleTranslator) Close() error {
	return t.client.Close()
}
