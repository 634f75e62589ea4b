// Package session tracks live interpretation sessions keyed by connection.
package session

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ai-interpretation-service/internal/models"
	"ai-interpretation-service/internal/observability/metrics"
	"ai-interpretation-service/internal/store"
)

var languagePattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Z]{2})?$`)

// Registry is the authoritative in-memory map from connection ID to Session.
// Session-open/close events are recorded durably on a best-effort basis:
// store failures are logged, never allowed to block the lifecycle.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]models.Session

	defaultSource string
	defaultTarget string
	store         store.Store
	metrics       *metrics.Metrics
	log           zerolog.Logger
}

// NewRegistry creates a Registry persisting lifecycle events to st.
func NewRegistry(st store.Store, defaultSource, defaultTarget string, m *metrics.Metrics) *Registry {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Registry{
		conns:         make(map[string]models.Session),
		defaultSource: defaultSource,
		defaultTarget: defaultTarget,
		store:         st,
		metrics:       m,
		log:           log.With().Str("component", "session-registry").Logger(),
	}
}

// Connect registers a session for a new connection. Invalid language codes
// fall back to the configured defaults instead of rejecting the connection;
// a missing session ID gets a generated one.
func (r *Registry) Connect(ctx context.Context, connectionID, sourceLang, targetLang, sessionID string) models.Session {
	sess := models.Session{
		ConnectionID:   connectionID,
		SessionID:      sessionID,
		SourceLanguage: r.normalize(sourceLang, r.defaultSource),
		TargetLanguage: r.normalize(targetLang, r.defaultTarget),
	}
	if sess.SessionID == "" {
		sess.SessionID = "session-" + uuid.NewString()
	}

	r.mu.Lock()
	r.conns[connectionID] = sess
	r.mu.Unlock()

	r.recordOpen(ctx, sess, store.SessionConnected)

	r.log.Info().
		Str("connectionId", connectionID).
		Str("sessionId", sess.SessionID).
		Str("sourceLanguage", sess.SourceLanguage).
		Str("targetLanguage", sess.TargetLanguage).
		Msg("Session connected")
	return sess
}

// Disconnect removes the session for a connection, if present, and records
// the close event.
func (r *Registry) Disconnect(ctx context.Context, connectionID string) (models.Session, bool) {
	r.mu.Lock()
	sess, ok := r.conns[connectionID]
	if ok {
		delete(r.conns, connectionID)
	}
	r.mu.Unlock()

	if !ok {
		return models.Session{}, false
	}

	rec := store.SessionRecord{
		SessionID:      sess.SessionID,
		ConnectionID:   connectionID,
		Status:         store.SessionDisconnected,
		DisconnectedAt: time.Now().UTC(),
	}
	if err := r.store.PutSession(ctx, rec); err != nil {
		r.metrics.RecordStoreError("session")
		r.log.Error().Err(err).Str("sessionId", sess.SessionID).Msg("Failed to record session close")
	}

	r.log.Info().
		Str("connectionId", connectionID).
		Str("sessionId", sess.SessionID).
		Msg("Session disconnected")
	return sess, true
}

// Lookup returns the session for a connection, if registered.
func (r *Registry) Lookup(connectionID string) (models.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.conns[connectionID]
	return sess, ok
}

// LookupOrCreate returns the session for a connection, synthesizing a
// default one when the connection is unknown. Messages are never dropped
// for a missing connect event, but the degraded path is logged and counted.
func (r *Registry) LookupOrCreate(ctx context.Context, connectionID string) models.Session {
	if sess, ok := r.Lookup(connectionID); ok {
		return sess
	}

	sess := models.Session{
		ConnectionID:   connectionID,
		SessionID:      "session-" + uuid.NewString(),
		SourceLanguage: r.defaultSource,
		TargetLanguage: r.defaultTarget,
	}

	r.mu.Lock()
	// Another goroutine may have raced us here; keep the first one.
	if existing, ok := r.conns[connectionID]; ok {
		r.mu.Unlock()
		return existing
	}
	r.conns[connectionID] = sess
	r.mu.Unlock()

	r.metrics.RecordDefaultSession()
	r.log.Warn().
		Str("connectionId", connectionID).
		Str("sessionId", sess.SessionID).
		Msg("Message for unknown connection, synthesized default session")

	r.recordOpen(ctx, sess, store.SessionConnected)
	return sess
}

// Active returns the number of registered sessions.
func (r *Registry) Active() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) recordOpen(ctx context.Context, sess models.Session, status string) {
	rec := store.SessionRecord{
		SessionID:      sess.SessionID,
		ConnectionID:   sess.ConnectionID,
		SourceLanguage: sess.SourceLanguage,
		TargetLanguage: sess.TargetLanguage,
		Status:         status,
		CreatedAt:      time.Now().UTC(),
	}
	if err := r.store.PutSession(ctx, rec); err != nil {
		r.metrics.RecordStoreError("session")
		r.log.Error().Err(err).Str("sessionId", sess.SessionID).Msg("Failed to record session open")
	}
}

// normalize validates a language code against language[-REGION], lowercasing
// the primary tag and uppercasing the region. Invalid codes map to def.
func (r *Registry) normalize(code, def string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return def
	}
	parts := strings.SplitN(code, "-", 2)
	normalized := strings.ToLower(parts[0])
	if len(parts) == 2 {
		normalized += "-" + strings.ToUpper(parts[1])
	}
	if !languagePattern.MatchString(normalized) {
		return def
	}
	return normalized
}
