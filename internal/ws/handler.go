// Package ws is the WebSocket boundary: it upgrades connections, owns the
// read loop and dispatches client messages into the pipeline.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ai-interpretation-service/internal/delivery"
	"ai-interpretation-service/internal/models"
	"ai-interpretation-service/internal/observability/metrics"
	"ai-interpretation-service/internal/service/stream"
	"ai-interpretation-service/internal/session"
)

const maxMessageSize = 1 << 20 // 1 MiB, generous for base64 audio frames

// Config tunes the boundary.
type Config struct {
	// SegmentTimeout bounds pipeline processing for transcripts the client
	// sends directly.
	SegmentTimeout time.Duration
}

// Handler serves the interpretation WebSocket endpoint.
type Handler struct {
	upgrader  websocket.Upgrader
	hub       *delivery.Hub
	registry  *session.Registry
	streams   *stream.Manager
	finalizer stream.Finalizer
	cfg       Config
	metrics   *metrics.Metrics
	log       zerolog.Logger
}

// NewHandler wires the boundary to the hub, registry, stream manager and
// segment pipeline.
func NewHandler(hub *delivery.Hub, registry *session.Registry, streams *stream.Manager, finalizer stream.Finalizer, cfg Config, m *metrics.Metrics) *Handler {
	if cfg.SegmentTimeout <= 0 {
		cfg.SegmentTimeout = 30 * time.Second
	}
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary origins; auth happens
			// upstream of this service.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		hub:       hub,
		registry:  registry,
		streams:   streams,
		finalizer: finalizer,
		cfg:       cfg,
		metrics:   m,
		log:       log.With().Str("component", "ws-handler").Logger(),
	}
}

// Register mounts the WebSocket endpoint on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/v1/interpret", h.serve)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	connectionID := "conn-" + uuid.NewString()
	query := r.URL.Query()

	sess := h.registry.Connect(
		r.Context(),
		connectionID,
		query.Get("sourceLanguage"),
		query.Get("targetLanguage"),
		query.Get("sessionId"),
	)
	h.hub.Register(connectionID, conn)
	h.metrics.RecordConnect()

	connLog := h.log.With().
		Str("connectionId", connectionID).
		Str("sessionId", sess.SessionID).
		Logger()
	connLog.Info().Str("remote", r.RemoteAddr).Msg("Client connected")

	h.readLoop(conn, connectionID, connLog)

	// Teardown order matters: stop delivery first so a dying stream cannot
	// write to a closed socket, then flush the stream, then drop the session.
	h.hub.Unregister(connectionID)
	h.streams.Stop(connectionID)
	h.registry.Disconnect(context.Background(), connectionID)
	h.metrics.RecordDisconnect()
	conn.Close()
	connLog.Info().Msg("Client disconnected")
}

func (h *Handler) readLoop(conn *websocket.Conn, connectionID string, connLog zerolog.Logger) {
	conn.SetReadLimit(maxMessageSize)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				connLog.Warn().Err(err).Msg("Read failed")
			}
			return
		}

		var msg models.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			connLog.Warn().Err(err).Msg("Discarding malformed message")
			continue
		}

		h.dispatch(connectionID, msg, connLog)
	}
}

// dispatch routes one client message. The session is resolved per message:
// a connection unknown to the registry still gets served, on a synthesized
// default session.
func (h *Handler) dispatch(connectionID string, msg models.ClientMessage, connLog zerolog.Logger) {
	ctx := context.Background()
	sess := h.registry.LookupOrCreate(ctx, connectionID)

	switch msg.Type {
	case models.TypeAudioChunk:
		handle, err := h.streams.GetOrCreate(ctx, sess)
		if err != nil {
			connLog.Error().Err(err).Msg("Failed to open recognition stream")
			h.sendError(ctx, connectionID, "Failed to start transcription", "TRANSCRIBE_START_ERROR")
			return
		}
		handle.AddAudio(msg.AudioData)

	case models.TypeTranscript, models.TypeTranscription:
		h.processTranscript(ctx, sess, msg, connLog)

	default:
		// Clients may omit the type on plain text segments.
		if msg.Text != "" {
			h.processTranscript(ctx, sess, msg, connLog)
			return
		}
		connLog.Warn().Str("type", msg.Type).Msg("Ignoring message of unknown type")
	}
}

// processTranscript feeds a client-supplied transcript into the pipeline.
// Partials are informational only.
func (h *Handler) processTranscript(ctx context.Context, sess models.Session, msg models.ClientMessage, connLog zerolog.Logger) {
	if msg.IsPartial || msg.Text == "" {
		return
	}

	pipelineCtx, cancel := context.WithTimeout(ctx, h.cfg.SegmentTimeout)
	defer cancel()
	if _, err := h.finalizer.ProcessFinal(pipelineCtx, sess, msg.Text); err != nil {
		connLog.Error().Err(err).Msg("Segment processing failed")
		h.sendError(ctx, sess.ConnectionID, "Interpretation failed", "SEGMENT_PROCESSING_ERROR")
	}
}

func (h *Handler) sendError(ctx context.Context, connectionID, message, code string) {
	payload := models.TranscriptionError{
		Type:      models.TypeTranscriptionError,
		Error:     message,
		ErrorCode: code,
	}
	if err := h.hub.Send(ctx, connectionID, payload); err != nil {
		h.log.Warn().Err(err).Str("connectionId", connectionID).Msg("Failed to push error")
	}
}
