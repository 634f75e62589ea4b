// Package stt defines the interface for streaming speech-to-text adapters.
package stt

import "context"

// Callback receives transcript results from the STT provider. Events are
// delivered from the adapter's receive goroutine until the stream ends.
type Callback interface {
	// OnPartial is called when an interim/partial transcript is received.
	OnPartial(text string)

	// OnFinal is called when a final transcript is received.
	OnFinal(text string, confidence float64)

	// OnError is called when the stream fails. Cancellation is not an
	// error: adapters suppress it and simply stop delivering events.
	OnError(err error)
}

// StreamConfig configures one streaming recognition session.
type StreamConfig struct {
	// LanguageCode is the provider locale code, e.g. "en-US".
	LanguageCode string
	// SampleRateHz is the PCM sample rate of the inbound audio.
	SampleRateHz int32
	// InterimResults requests partial transcripts.
	InterimResults bool
}

// Adapter is one streaming recognition session against an STT provider
// (Google, mock, ...). Start opens the remote stream and begins delivering
// events to cb; SendAudio pushes one audio frame; Close ends the session.
type Adapter interface {
	Start(ctx context.Context, cfg StreamConfig, cb Callback) error
	SendAudio(ctx context.Context, audio []byte) error
	Close() error
}

// Factory creates a fresh Adapter for each connection.
type Factory func(ctx context.Context) (Adapter, error)
