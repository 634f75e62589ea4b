package stream

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ai-interpretation-service/internal/delivery"
	"ai-interpretation-service/internal/models"
	"ai-interpretation-service/internal/observability/metrics"
	"ai-interpretation-service/internal/service/stt"
)

// Finalizer receives each finalized transcript for downstream processing.
type Finalizer interface {
	ProcessFinal(ctx context.Context, sess models.Session, text string) (models.Interpretation, error)
}

// Handle is one live recognition stream for one connection. Audio frames
// pass through a bounded queue between the WebSocket read loop and the
// recognizer; when the queue is full the oldest frame is evicted so the
// producer never blocks.
type Handle struct {
	session models.Session
	sender  delivery.Sender

	frames chan []byte
	stop   chan struct{}
	done   chan struct{}

	finalizer      Finalizer
	segmentTimeout time.Duration
	onTerminated   func(connectionID string)

	metrics *metrics.Metrics
	log     zerolog.Logger
	started time.Time

	mu      sync.Mutex
	state   State
	adapter stt.Adapter

	stopOnce sync.Once
}

func newHandle(sess models.Session, sender delivery.Sender, finalizer Finalizer, queueSize int, segmentTimeout time.Duration, onTerminated func(string), m *metrics.Metrics, log zerolog.Logger) *Handle {
	return &Handle{
		session:        sess,
		sender:         sender,
		frames:         make(chan []byte, queueSize),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
		finalizer:      finalizer,
		segmentTimeout: segmentTimeout,
		onTerminated:   onTerminated,
		metrics:        m,
		log:            log,
		state:          StateIdle,
	}
}

// start binds the adapter, opens the recognizer stream and begins draining
// the frame queue. Until it returns the handle is idle and drops audio.
func (h *Handle) start(ctx context.Context, adapter stt.Adapter, cfg stt.StreamConfig) error {
	if err := adapter.Start(ctx, cfg, h); err != nil {
		return err
	}

	h.mu.Lock()
	if h.state == StateStopping {
		h.mu.Unlock()
		adapter.Close()
		return errors.New("stream stopped during open")
	}
	h.adapter = adapter
	h.state = StateStreaming
	h.started = time.Now()
	h.mu.Unlock()

	h.metrics.RecordStreamStart()
	go h.pump(ctx, adapter)
	return nil
}

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Session returns the session this handle streams for.
func (h *Handle) Session() models.Session {
	return h.session
}

// AddAudio decodes one base64 audio frame and enqueues it. Frames arriving
// after teardown started are discarded; a full queue evicts its oldest frame.
func (h *Handle) AddAudio(encoded string) {
	if h.State() != StateStreaming {
		return
	}

	frame, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		h.log.Warn().Err(err).Msg("Dropping undecodable audio frame")
		return
	}
	if len(frame) == 0 {
		return
	}
	h.metrics.RecordAudioReceived(len(frame))

	select {
	case h.frames <- frame:
		return
	default:
	}

	// Queue full: evict the oldest frame and try once more. Losing old
	// audio beats stalling the read loop.
	select {
	case <-h.frames:
		h.metrics.RecordFrameDropped()
	default:
	}
	select {
	case h.frames <- frame:
	default:
		h.metrics.RecordFrameDropped()
	}
}

// pump forwards queued frames to the recognizer until teardown.
func (h *Handle) pump(ctx context.Context, adapter stt.Adapter) {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			return
		case <-ctx.Done():
			return
		case frame := <-h.frames:
			if err := adapter.SendAudio(ctx, frame); err != nil {
				h.log.Warn().Err(err).Msg("Failed to forward audio frame")
				return
			}
		}
	}
}

// Stop tears the stream down: no more audio is accepted, the pump drains
// out and the recognizer stream is closed, flushing any pending final.
func (h *Handle) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.state = StateStopping
		started := h.started
		adapter := h.adapter
		h.mu.Unlock()

		close(h.stop)

		// A handle stopped before its stream opened has no pump to wait for
		// and no adapter to close.
		if started.IsZero() {
			h.log.Info().Msg("Stream stopped before open completed")
			return
		}
		<-h.done

		if err := adapter.Close(); err != nil {
			h.log.Warn().Err(err).Msg("Error closing recognizer stream")
		}

		h.metrics.RecordStreamEnd(time.Since(started).Seconds())
		h.log.Info().Msg("Stream stopped")
	})
}

// OnPartial pushes an interim transcript to the client.
func (h *Handle) OnPartial(text string) {
	h.metrics.RecordTranscript(true)
	h.deliver(models.Transcription{
		Type:      models.TypeTranscription,
		Text:      text,
		IsPartial: true,
	})
}

// OnFinal pushes the final transcript to the client and hands it to the
// segment pipeline. Empty finals are delivered but not processed.
func (h *Handle) OnFinal(text string, confidence float64) {
	h.metrics.RecordTranscript(false)
	h.deliver(models.Transcription{
		Type:      models.TypeTranscription,
		Text:      text,
		IsPartial: false,
	})

	if text == "" || h.finalizer == nil {
		return
	}

	// Process off the adapter's receive goroutine so a slow pipeline never
	// stalls transcript delivery.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.segmentTimeout)
		defer cancel()
		if _, err := h.finalizer.ProcessFinal(ctx, h.session, text); err != nil {
			h.log.Error().Err(err).Msg("Segment processing failed")
		}
	}()
}

// OnError reports the stream failure to the client and terminates the handle.
func (h *Handle) OnError(err error) {
	h.log.Error().Err(err).Msg("Recognition stream failed")
	h.deliver(models.TranscriptionError{
		Type:      models.TypeTranscriptionError,
		Error:     "Transcription failed",
		ErrorCode: "TRANSCRIBE_STREAM_ERROR",
	})

	if h.onTerminated != nil {
		go h.onTerminated(h.session.ConnectionID)
	}
}

func (h *Handle) deliver(payload any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.sender.Send(ctx, h.session.ConnectionID, payload); err != nil {
		h.metrics.RecordDeliveryError()
		h.log.Warn().Err(err).Msg("Failed to push transcript")
	}
}
