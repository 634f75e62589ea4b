// Package tts defines the speech synthesis interface.
package tts

import "context"

// Audio is one synthesized utterance.
type Audio struct {
	Data        []byte
	ContentType string
}

// Synthesizer converts text to speech in the voice of a target language.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode, voiceName string) (Audio, error)
}
