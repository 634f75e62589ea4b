// Package interpret runs the per-segment pipeline: translate, classify,
// synthesize, persist, deliver, escalate.
package interpret

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ai-interpretation-service/internal/delivery"
	"ai-interpretation-service/internal/events"
	"ai-interpretation-service/internal/models"
	"ai-interpretation-service/internal/observability/metrics"
	"ai-interpretation-service/internal/service/classify"
	"ai-interpretation-service/internal/service/stt"
	"ai-interpretation-service/internal/service/translation"
	"ai-interpretation-service/internal/service/tts"
	"ai-interpretation-service/internal/storage"
	"ai-interpretation-service/internal/store"
)

// DefaultThreshold is the confidence below which a segment is escalated
// for human review.
const DefaultThreshold = 0.7

// Options configures a Processor. Synthesizer and Objects are optional;
// when either is nil, segments carry no audio reference. A negative
// Threshold selects DefaultThreshold; zero is a real threshold under which
// no segment is ever escalated.
type Options struct {
	Translator  translation.Translator
	Classifier  classify.Classifier
	Synthesizer tts.Synthesizer
	Objects     storage.Store
	Store       store.Store
	Sender      delivery.Sender
	Publisher   *events.Publisher
	Threshold   float64
	Voice       string
	PresignTTL  time.Duration
	Metrics     *metrics.Metrics
}

// Processor turns one finalized transcript into an enriched, persisted,
// delivered interpretation. Translation failure aborts the segment; all
// later stages degrade instead of failing it.
type Processor struct {
	translator  translation.Translator
	classifier  classify.Classifier
	synthesizer tts.Synthesizer
	objects     storage.Store
	store       store.Store
	sender      delivery.Sender
	publisher   *events.Publisher
	threshold   float64
	voice       string
	presignTTL  time.Duration
	metrics     *metrics.Metrics
	log         zerolog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewProcessor creates a Processor from opts.
func NewProcessor(opts Options) *Processor {
	threshold := opts.Threshold
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	ttl := opts.PresignTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Processor{
		translator:  opts.Translator,
		classifier:  opts.Classifier,
		synthesizer: opts.Synthesizer,
		objects:     opts.Objects,
		store:       opts.Store,
		sender:      opts.Sender,
		publisher:   opts.Publisher,
		threshold:   threshold,
		voice:       opts.Voice,
		presignTTL:  ttl,
		metrics:     m,
		log:         log.With().Str("component", "segment-processor").Logger(),
		seen:        make(map[string]struct{}),
	}
}

// ProcessFinal runs the pipeline for a freshly finalized transcript,
// generating a new segment ID.
func (p *Processor) ProcessFinal(ctx context.Context, sess models.Session, text string) (models.Interpretation, error) {
	return p.ProcessSegment(ctx, sess, "segment-"+uuid.NewString(), text)
}

// ProcessSegment runs the pipeline for one segment. Re-running with the
// same segment ID is a no-op: nothing is persisted, delivered or escalated
// twice.
func (p *Processor) ProcessSegment(ctx context.Context, sess models.Session, segmentID, text string) (models.Interpretation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Interpretation{}, nil
	}

	if !p.claim(segmentID) {
		p.metrics.RecordDuplicateSegment()
		p.log.Warn().Str("segmentId", segmentID).Msg("Segment already processed, skipping")
		return models.Interpretation{}, nil
	}

	sourceLang := strings.ToLower(strings.TrimSpace(sess.SourceLanguage))
	targetLang := strings.ToLower(strings.TrimSpace(sess.TargetLanguage))
	segLog := p.log.With().
		Str("sessionId", sess.SessionID).
		Str("segmentId", segmentID).
		Logger()

	// Translation is the core value; without it there is nothing to deliver.
	start := time.Now()
	translated, err := p.translator.Translate(ctx, text, sourceLang, targetLang)
	p.metrics.RecordStageLatency("translate", time.Since(start).Seconds())
	if err != nil {
		p.release(segmentID)
		p.metrics.RecordSegmentFailed("translate")
		segLog.Error().Err(err).Msg("Translation failed, aborting segment")
		return models.Interpretation{}, fmt.Errorf("translate segment %s: %w", segmentID, err)
	}

	audioURL := p.synthesize(ctx, segLog, segmentID, targetLang, translated.TranslatedText)

	classification := p.classify(ctx, segLog, text, sourceLang)
	needsReview := classification.Confidence < p.threshold

	status := store.SegmentApproved
	if needsReview {
		status = store.SegmentPendingReview
	}
	now := time.Now().UTC()

	created, err := p.store.PutSegment(ctx, store.SegmentRecord{
		SegmentID:        segmentID,
		SessionID:        sess.SessionID,
		Text:             text,
		TranslatedText:   translated.TranslatedText,
		Classification:   classification.Label,
		Confidence:       classification.Confidence,
		NeedsHumanReview: needsReview,
		AudioURL:         audioURL,
		Status:           status,
		Timestamp:        now,
	})
	if err != nil {
		p.metrics.RecordStoreError("segment")
		segLog.Error().Err(err).Msg("Failed to persist segment")
	} else if !created {
		// A concurrent invocation already persisted this segment.
		p.metrics.RecordDuplicateSegment()
		segLog.Warn().Msg("Segment record already exists, skipping delivery")
		return models.Interpretation{}, nil
	}

	result := models.Interpretation{
		Type:             models.TypeInterpretation,
		SegmentID:        segmentID,
		Text:             text,
		TranslatedText:   translated.TranslatedText,
		Classification:   classification.Label,
		Confidence:       classification.Confidence,
		NeedsHumanReview: needsReview,
		AudioURL:         audioURL,
		Timestamp:        now.Format(time.RFC3339),
	}

	if err := p.sender.Send(ctx, sess.ConnectionID, result); err != nil {
		// The connection may be gone; the record is already durable.
		segLog.Warn().Err(err).Msg("Failed to deliver interpretation")
	}

	if p.publisher != nil {
		p.publishResult(ctx, sess, result)
	}

	if needsReview {
		p.escalate(ctx, segLog, sess, segmentID, text, translated.TranslatedText)
	}

	p.metrics.RecordSegmentProcessed()
	segLog.Info().
		Str("classification", classification.Label).
		Float64("confidence", classification.Confidence).
		Bool("needsHumanReview", needsReview).
		Msg("Segment processed")
	return result, nil
}

// claim marks a segment ID as in-flight; false means it was already taken.
func (p *Processor) claim(segmentID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.seen[segmentID]; ok {
		return false
	}
	p.seen[segmentID] = struct{}{}
	return true
}

// release forgets a failed segment so a retry can claim it again.
func (p *Processor) release(segmentID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.seen, segmentID)
}

// synthesize produces a presigned URL for the translated audio, or "" when
// synthesis is disabled or any step fails.
func (p *Processor) synthesize(ctx context.Context, segLog zerolog.Logger, segmentID, targetLang, text string) string {
	if p.synthesizer == nil || p.objects == nil {
		return ""
	}

	start := time.Now()
	audio, err := p.synthesizer.Synthesize(ctx, text, stt.MapLanguageCode(targetLang), p.voice)
	p.metrics.RecordStageLatency("synthesize", time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordSegmentFailed("synthesize")
		segLog.Warn().Err(err).Msg("Speech synthesis failed, continuing without audio")
		return ""
	}

	key := fmt.Sprintf("tts/%s.mp3", segmentID)
	if err := p.objects.Put(ctx, key, audio.Data, audio.ContentType); err != nil {
		p.metrics.RecordSegmentFailed("store-audio")
		segLog.Warn().Err(err).Msg("Failed to store synthesized audio")
		return ""
	}

	url, err := p.objects.Presign(ctx, key, p.presignTTL)
	if err != nil {
		segLog.Warn().Err(err).Msg("Failed to presign audio object")
		return ""
	}
	return url
}

// classify labels the source text, defaulting to NEUTRAL/0.5 when the
// classifier fails entirely.
func (p *Processor) classify(ctx context.Context, segLog zerolog.Logger, text, sourceLang string) classify.Result {
	start := time.Now()
	result, err := p.classifier.Classify(ctx, text, sourceLang)
	p.metrics.RecordStageLatency("classify", time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordClassifyFallback()
		segLog.Warn().Err(err).Msg("Classification failed, using defaults")
		return classify.Result{Label: classify.DefaultLabel, Confidence: classify.DefaultConfidence}
	}
	return result
}

// escalate creates the review task, best-effort.
func (p *Processor) escalate(ctx context.Context, segLog zerolog.Logger, sess models.Session, segmentID, text, translatedText string) {
	created, err := p.store.PutReviewTask(ctx, store.ReviewTaskRecord{
		SegmentID:      segmentID,
		SessionID:      sess.SessionID,
		OriginalText:   text,
		TranslatedText: translatedText,
		Status:         store.ReviewPending,
		Priority:       "high", // real-time interpretation reviews jump the queue
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		p.metrics.RecordStoreError("review")
		segLog.Error().Err(err).Msg("Failed to create review task")
		return
	}
	if !created {
		return
	}

	p.metrics.RecordReviewTask()
	segLog.Info().Msg("Review task created")

	if p.publisher != nil {
		event := models.ReviewTaskEvent{
			EventType:      "interpretation.review.task",
			SessionID:      sess.SessionID,
			SegmentID:      segmentID,
			OriginalText:   text,
			TranslatedText: translatedText,
			Priority:       "high",
			Timestamp:      time.Now().UnixMilli(),
		}
		if err := p.publisher.PublishReview(ctx, segmentID, event); err != nil {
			segLog.Warn().Err(err).Msg("Failed to publish review event")
		}
	}
}

func (p *Processor) publishResult(ctx context.Context, sess models.Session, result models.Interpretation) {
	event := models.InterpretationEvent{
		EventType:        "interpretation.segment.result",
		SessionID:        sess.SessionID,
		SegmentID:        result.SegmentID,
		Text:             result.Text,
		TranslatedText:   result.TranslatedText,
		Classification:   result.Classification,
		Confidence:       result.Confidence,
		NeedsHumanReview: result.NeedsHumanReview,
		Timestamp:        time.Now().UnixMilli(),
	}
	if err := p.publisher.PublishResult(ctx, sess.SessionID, event); err != nil {
		p.log.Warn().Err(err).Str("segmentId", result.SegmentID).Msg("Failed to publish result event")
	}
}
