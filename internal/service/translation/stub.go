package translation

import (
	"context"
	"fmt"
)

// StubTranslator is a deterministic Translator for tests and credential-less
// local runs. It tags the text with the target language.
type StubTranslator struct {
	// Err, when set, is returned from every Translate call.
	Err error

	calls int
}

func (s *StubTranslator) Translate(ctx context.Context, text, sourceLang, targetLang string) (Result, error) {
	s.calls++
	if s.Err != nil {
		return Result{}, s.Err
	}
	return Result{
		TranslatedText: fmt.Sprintf("[%s] %s", targetLang, text),
		DetectedSource: sourceLang,
	}, nil
}

// Calls reports how many times Translate was invoked.
func (s *StubTranslator) Calls() int { return s.calls }
