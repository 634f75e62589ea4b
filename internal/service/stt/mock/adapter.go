// Package mock provides a mock STT adapter for running the service without
// cloud credentials. It simulates realistic recognition behavior with
// progressive partial transcripts and exactly one final per utterance.
package mock

import (
	"context"
	"sync"
	"time"

	"ai-interpretation-service/internal/service/stt"
)

// Utterance is a scripted recognition sequence.
type Utterance struct {
	Partials   []string
	Final      string
	Confidence float64
}

// DefaultUtterances provides sample utterances for simulation.
var DefaultUtterances = []Utterance{
	{
		Partials:   []string{"good", "good morning", "good morning how"},
		Final:      "good morning how can I help you",
		Confidence: 0.95,
	},
	{
		Partials:   []string{"I need", "I need a doctor"},
		Final:      "I need a doctor appointment",
		Confidence: 0.92,
	},
	{
		Partials:   []string{"where", "where is the"},
		Final:      "where is the nearest pharmacy",
		Confidence: 0.64,
	},
	{
		Partials:   []string{"thank"},
		Final:      "thank you very much",
		Confidence: 0.97,
	},
}

// Adapter implements stt.Adapter with scripted responses: one partial per
// audio frame, then a single final once the script is exhausted.
type Adapter struct {
	utterance Utterance
	delay     time.Duration

	mu           sync.Mutex
	cb           stt.Callback
	partialIndex int
	finalSent    bool
	closed       bool
}

var (
	counterMu        sync.Mutex
	utteranceCounter int
)

// New creates a mock adapter cycling through DefaultUtterances.
func New() *Adapter {
	counterMu.Lock()
	idx := utteranceCounter % len(DefaultUtterances)
	utteranceCounter++
	counterMu.Unlock()

	return &Adapter{utterance: DefaultUtterances[idx], delay: 20 * time.Millisecond}
}

// NewScripted creates a mock adapter with a fixed utterance, for tests.
func NewScripted(u Utterance) *Adapter {
	return &Adapter{utterance: u, delay: time.Millisecond}
}

// Factory returns an stt.Factory producing fresh mock adapters.
func Factory() stt.Factory {
	return func(ctx context.Context) (stt.Adapter, error) {
		return New(), nil
	}
}

func (a *Adapter) Start(ctx context.Context, cfg stt.StreamConfig, cb stt.Callback) error {
	a.mu.Lock()
	a.cb = cb
	a.mu.Unlock()
	return nil
}

// SendAudio emits the next scripted partial, or the final once partials are
// exhausted (mimicking silence detection).
func (a *Adapter) SendAudio(ctx context.Context, audio []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.cb == nil {
		return nil
	}

	if a.partialIndex < len(a.utterance.Partials) {
		partial := a.utterance.Partials[a.partialIndex]
		a.partialIndex++
		go a.emitPartial(partial)
		return nil
	}

	if !a.finalSent {
		a.finalSent = true
		go a.emitFinal()
	}
	return nil
}

// Close ends the session. If the script never reached its final (stream
// ended early), the final is emitted now.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if !a.finalSent && a.cb != nil {
		a.finalSent = true
		cb := a.cb
		u := a.utterance
		go func() {
			cb.OnFinal(u.Final, u.Confidence)
		}()
	}
	return nil
}

func (a *Adapter) emitPartial(text string) {
	time.Sleep(a.delay)
	a.mu.Lock()
	cb := a.cb
	closed := a.closed
	a.mu.Unlock()
	if !closed && cb != nil {
		cb.OnPartial(text)
	}
}

func (a *Adapter) emitFinal() {
	time.Sleep(a.delay)
	a.mu.Lock()
	cb := a.cb
	closed := a.closed
	u := a.utterance
	a.mu.Unlock()
	if !closed && cb != nil {
		cb.OnFinal(u.Final, u.Confidence)
	}
}
