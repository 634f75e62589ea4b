package tts

import (
	"context"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
)

// GoogleSynthesizer implements Synthesizer using Google Cloud
// Text-to-Speech. Requires GOOGLE_APPLICATION_CREDENTIALS to be set.
type GoogleSynthesizer struct {
	client *texttospeech.Client
}

// NewGoogle creates a Google-backed synthesizer.
func NewGoogle(ctx context.Context) (*GoogleSynthesizer, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("texttospeech client: %w", err)
	}
	return &GoogleSynthesizer{client: client}, nil
}

func (s *GoogleSynthesizer) Synthesize(ctx context.Context, text, languageCode, voiceName string) (Audio, error) {
	voice := &texttospeechpb.VoiceSelectionParams{
		LanguageCode: languageCode,
	}
	if voiceName != "" {
		voice.Name = voiceName
	}

	resp, err := s.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: voice,
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
		},
	})
	if err != nil {
		return Audio{}, fmt.Errorf("synthesize speech: %w", err)
	}
	return Audio{Data: resp.AudioContent, ContentType: "audio/mpeg"}, nil
}

// Close releases the underlying client.
func (s *GoogleSynthesizer) Close() error {
	return s.client.Close()
}
