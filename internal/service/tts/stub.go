package tts

import "context"

// StubSynthesizer is a fixed-output Synthesizer for tests and
// credential-less local runs.
type StubSynthesizer struct {
	// Err, when set, is returned from every Synthesize call.
	Err error

	calls int
}

func (s *StubSynthesizer) Synthesize(ctx context.Context, text, languageCode, voiceName string) (Audio, error) {
	s.calls++
	if s.Err != nil {
		return Audio{}, s.Err
	}
	return Audio{Data: []byte("mp3:" + text), ContentType: "audio/mpeg"}, nil
}

// Calls reports how many times Synthesize was invoked.
func (s *StubSynthesizer) Calls() int { return s.calls }
