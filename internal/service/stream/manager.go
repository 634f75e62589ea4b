package stream

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ai-interpretation-service/internal/delivery"
	"ai-interpretation-service/internal/models"
	"ai-interpretation-service/internal/observability/metrics"
	"ai-interpretation-service/internal/service/stt"
)

// Config tunes the per-connection streams a Manager creates.
type Config struct {
	// Provider labels stream error metrics ("google", "mock").
	Provider string
	// SampleRateHz is the PCM sample rate clients send.
	SampleRateHz int32
	// QueueSize bounds the per-connection audio frame queue.
	QueueSize int
	// InterimResults requests partial transcripts from the recognizer.
	InterimResults bool
	// SegmentTimeout bounds pipeline processing for one finalized segment.
	SegmentTimeout time.Duration
}

// Manager owns the recognition streams, one Handle per connection.
type Manager struct {
	factory   stt.Factory
	sender    delivery.Sender
	finalizer Finalizer
	cfg       Config
	metrics   *metrics.Metrics
	log       zerolog.Logger

	mu      sync.Mutex
	handles map[string]*Handle
}

// NewManager creates a Manager that builds one adapter per connection
// through factory.
func NewManager(factory stt.Factory, sender delivery.Sender, finalizer Finalizer, cfg Config, m *metrics.Metrics) *Manager {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.SampleRateHz == 0 {
		cfg.SampleRateHz = 16000
	}
	if cfg.SegmentTimeout <= 0 {
		cfg.SegmentTimeout = 30 * time.Second
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Manager{
		factory:   factory,
		sender:    sender,
		finalizer: finalizer,
		cfg:       cfg,
		metrics:   m,
		log:       log.With().Str("component", "stream-manager").Logger(),
		handles:   make(map[string]*Handle),
	}
}

// GetOrCreate returns the existing stream for a connection, or opens a new
// one. Calling it again while a stream is live is a no-op returning the
// same handle, so repeated audio-chunk messages share one stream.
//
// The handle is reserved under the lock but the stream is opened outside
// it, so one connection's slow stream open never blocks the others. Until
// the open completes the reserved handle is idle and discards audio.
func (m *Manager) GetOrCreate(ctx context.Context, sess models.Session) (*Handle, error) {
	hLog := m.log.With().
		Str("connectionId", sess.ConnectionID).
		Str("sessionId", sess.SessionID).
		Logger()

	m.mu.Lock()
	if h, ok := m.handles[sess.ConnectionID]; ok {
		m.mu.Unlock()
		return h, nil
	}
	h := newHandle(sess, m.sender, m.finalizer, m.cfg.QueueSize, m.cfg.SegmentTimeout, m.remove, m.metrics, hLog)
	m.handles[sess.ConnectionID] = h
	m.mu.Unlock()

	adapter, err := m.factory(ctx)
	if err != nil {
		m.rollback(sess.ConnectionID, h)
		return nil, fmt.Errorf("create recognition adapter: %w", err)
	}

	streamCfg := stt.StreamConfig{
		LanguageCode:   stt.MapLanguageCode(sess.SourceLanguage),
		SampleRateHz:   m.cfg.SampleRateHz,
		InterimResults: m.cfg.InterimResults,
	}
	if err := h.start(ctx, adapter, streamCfg); err != nil {
		m.rollback(sess.ConnectionID, h)
		return nil, fmt.Errorf("start recognition stream: %w", err)
	}

	hLog.Info().
		Str("languageCode", streamCfg.LanguageCode).
		Msg("Recognition stream opened")
	return h, nil
}

// rollback discards a reserved handle whose stream never opened.
func (m *Manager) rollback(connectionID string, h *Handle) {
	m.mu.Lock()
	if m.handles[connectionID] == h {
		delete(m.handles, connectionID)
	}
	m.mu.Unlock()
	h.Stop()
	m.metrics.RecordStreamError(m.cfg.Provider)
}

// Lookup returns the live stream for a connection, if any.
func (m *Manager) Lookup(connectionID string) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[connectionID]
	return h, ok
}

// Stop tears down the stream for a connection. Safe to call when none
// exists; a later GetOrCreate opens a fresh one.
func (m *Manager) Stop(connectionID string) {
	m.mu.Lock()
	h, ok := m.handles[connectionID]
	if ok {
		delete(m.handles, connectionID)
	}
	m.mu.Unlock()

	if ok {
		h.Stop()
	}
}

// StopAll tears down every live stream, for shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	handles := make([]*Handle, 0, len(m.handles))
	for _, h := range m.handles {
		handles = append(handles, h)
	}
	m.handles = make(map[string]*Handle)
	m.mu.Unlock()

	for _, h := range handles {
		h.Stop()
	}
}

// Active returns the number of live streams.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// remove drops a handle that terminated on its own, typically after a
// stream error. The next audio chunk gets a fresh stream.
func (m *Manager) remove(connectionID string) {
	m.mu.Lock()
	h, ok := m.handles[connectionID]
	if ok {
		delete(m.handles, connectionID)
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	m.metrics.RecordStreamError(m.cfg.Provider)
	h.Stop()
}
