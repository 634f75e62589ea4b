package interpret

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"ai-interpretation-service/internal/models"
	"ai-interpretation-service/internal/service/classify"
	"ai-interpretation-service/internal/service/translation"
	"ai-interpretation-service/internal/service/tts"
	"ai-interpretation-service/internal/storage"
	"ai-interpretation-service/internal/store"
)

// captureSender collects everything the pipeline delivers.
type captureSender struct {
	mu       sync.Mutex
	payloads []any
	err      error
}

func (s *captureSender) Send(ctx context.Context, connectionID string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *captureSender) delivered() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.payloads...)
}

func testSession() models.Session {
	return models.Session{
		ConnectionID:   "conn-1",
		SessionID:      "sess-1",
		SourceLanguage: "en",
		TargetLanguage: "es",
	}
}

func TestProcessSegment_HappyPath(t *testing.T) {
	st := store.NewMemory()
	sender := &captureSender{}
	translator := &translation.StubTranslator{}
	classifier := &classify.StubClassifier{Label: "POSITIVE", Confidence: 0.9}

	p := NewProcessor(Options{
		Translator: translator,
		Classifier: classifier,
		Store:      st,
		Sender:     sender,
		Threshold:  0.7,
	})

	result, err := p.ProcessSegment(context.Background(), testSession(), "segment-1", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TranslatedText != "[es] hello" {
		t.Errorf("expected translated text '[es] hello', got %q", result.TranslatedText)
	}
	if result.Classification != "POSITIVE" || result.Confidence != 0.9 {
		t.Errorf("unexpected classification: %s/%v", result.Classification, result.Confidence)
	}
	if result.NeedsHumanReview {
		t.Error("expected high-confidence segment to skip review")
	}
	if result.Timestamp == "" {
		t.Error("expected timestamp set")
	}

	rec, err := st.GetSegment(context.Background(), "sess-1", "segment-1")
	if err != nil {
		t.Fatalf("expected segment persisted: %v", err)
	}
	if rec.Status != store.SegmentApproved {
		t.Errorf("expected status %q, got %q", store.SegmentApproved, rec.Status)
	}
	if st.ReviewWrites() != 0 {
		t.Errorf("expected no review task, got %d", st.ReviewWrites())
	}

	delivered := sender.delivered()
	if len(delivered) != 1 {
		t.Fatalf("expected 1 delivered payload, got %d", len(delivered))
	}
	if got := delivered[0].(models.Interpretation); got.Type != models.TypeInterpretation {
		t.Errorf("expected type %q, got %q", models.TypeInterpretation, got.Type)
	}
}

func TestProcessSegment_LowConfidenceEscalates(t *testing.T) {
	st := store.NewMemory()
	sender := &captureSender{}

	p := NewProcessor(Options{
		Translator: &translation.StubTranslator{},
		Classifier: &classify.StubClassifier{Label: "NEGATIVE", Confidence: 0.3},
		Store:      st,
		Sender:     sender,
		Threshold:  0.7,
	})

	result, err := p.ProcessSegment(context.Background(), testSession(), "segment-1", "this is wrong")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.NeedsHumanReview {
		t.Error("expected low-confidence segment flagged for review")
	}

	rec, err := st.GetSegment(context.Background(), "sess-1", "segment-1")
	if err != nil {
		t.Fatalf("expected segment persisted: %v", err)
	}
	if rec.Status != store.SegmentPendingReview {
		t.Errorf("expected status %q, got %q", store.SegmentPendingReview, rec.Status)
	}

	pending, err := st.PendingReviews(context.Background())
	if err != nil {
		t.Fatalf("PendingReviews: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending review, got %d", len(pending))
	}
	if pending[0].SegmentID != "segment-1" || pending[0].Priority != "high" {
		t.Errorf("unexpected review task: %+v", pending[0])
	}

	// Delivery still happens; review is an addition, not a replacement.
	if len(sender.delivered()) != 1 {
		t.Errorf("expected interpretation delivered, got %d payloads", len(sender.delivered()))
	}
}

func TestProcessSegment_TranslationFailureAborts(t *testing.T) {
	st := store.NewMemory()
	sender := &captureSender{}
	classifier := &classify.StubClassifier{}

	p := NewProcessor(Options{
		Translator: &translation.StubTranslator{Err: errors.New("quota exceeded")},
		Classifier: classifier,
		Store:      st,
		Sender:     sender,
	})

	_, err := p.ProcessSegment(context.Background(), testSession(), "segment-1", "hello")
	if err == nil {
		t.Fatal("expected error when translation fails")
	}
	if !strings.Contains(err.Error(), "segment-1") {
		t.Errorf("expected segment ID in error, got %v", err)
	}

	if classifier.Calls() != 0 {
		t.Error("expected no classification after translation failure")
	}
	if st.SegmentWrites() != 0 {
		t.Error("expected nothing persisted after translation failure")
	}
	if len(sender.delivered()) != 0 {
		t.Error("expected nothing delivered after translation failure")
	}

	// The failed segment must be claimable again for a retry.
	if _, err := p.ProcessSegment(context.Background(), testSession(), "segment-1", "hello"); err == nil {
		t.Error("expected retry to reach the translator again")
	}
	if p.translator.(*translation.StubTranslator).Calls() != 2 {
		t.Errorf("expected 2 translate attempts, got %d", p.translator.(*translation.StubTranslator).Calls())
	}
}

func TestProcessSegment_ClassifierFailureFallsBack(t *testing.T) {
	st := store.NewMemory()
	sender := &captureSender{}

	p := NewProcessor(Options{
		Translator: &translation.StubTranslator{},
		Classifier: &classify.StubClassifier{Err: errors.New("model unavailable")},
		Store:      st,
		Sender:     sender,
		Threshold:  0.7,
	})

	result, err := p.ProcessSegment(context.Background(), testSession(), "segment-1", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Classification != classify.DefaultLabel {
		t.Errorf("expected fallback label %q, got %q", classify.DefaultLabel, result.Classification)
	}
	if result.Confidence != classify.DefaultConfidence {
		t.Errorf("expected fallback confidence %v, got %v", classify.DefaultConfidence, result.Confidence)
	}
	// 0.5 < 0.7 means the fallback itself lands in review.
	if !result.NeedsHumanReview {
		t.Error("expected fallback confidence to trigger review")
	}
}

func TestProcessSegment_ThresholdSweep(t *testing.T) {
	tests := []struct {
		threshold  float64
		confidence float64
		wantReview bool
	}{
		{0.0, 0.5, false},
		{0.0, 0.05, false},
		{0.5, 0.9, false},
		{0.7, 0.7, false},
		{0.7, 0.69, true},
		{1.0, 0.9, true},
		{1.0, 1.0, false},
		{0.1, 0.3, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("threshold=%v confidence=%v", tt.threshold, tt.confidence), func(t *testing.T) {
			p := NewProcessor(Options{
				Translator: &translation.StubTranslator{},
				Classifier: &classify.StubClassifier{Label: "NEUTRAL", Confidence: tt.confidence},
				Store:      store.NewMemory(),
				Sender:     &captureSender{},
				Threshold:  tt.threshold,
			})

			result, err := p.ProcessSegment(context.Background(), testSession(), "segment-1", "text")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.NeedsHumanReview != tt.wantReview {
				t.Errorf("needsHumanReview: expected %v, got %v", tt.wantReview, result.NeedsHumanReview)
			}
		})
	}
}

func TestNewProcessor_ThresholdDefaulting(t *testing.T) {
	base := func(threshold float64) Options {
		return Options{
			Translator: &translation.StubTranslator{},
			Classifier: &classify.StubClassifier{},
			Store:      store.NewMemory(),
			Sender:     &captureSender{},
			Threshold:  threshold,
		}
	}

	// Zero is a real threshold, not "unset".
	if p := NewProcessor(base(0)); p.threshold != 0 {
		t.Errorf("expected threshold 0 kept, got %v", p.threshold)
	}
	// Negative selects the default.
	if p := NewProcessor(base(-1)); p.threshold != DefaultThreshold {
		t.Errorf("expected default threshold %v, got %v", DefaultThreshold, p.threshold)
	}
}

// recordingSynthesizer captures the voice the pipeline requests.
type recordingSynthesizer struct {
	voice string
}

func (r *recordingSynthesizer) Synthesize(ctx context.Context, text, languageCode, voiceName string) (tts.Audio, error) {
	r.voice = voiceName
	return tts.Audio{Data: []byte("mp3"), ContentType: "audio/mpeg"}, nil
}

func TestProcessSegment_VoiceReachesSynthesizer(t *testing.T) {
	synth := &recordingSynthesizer{}

	p := NewProcessor(Options{
		Translator:  &translation.StubTranslator{},
		Classifier:  &classify.StubClassifier{},
		Synthesizer: synth,
		Objects:     storage.NewMemory(),
		Store:       store.NewMemory(),
		Sender:      &captureSender{},
		Voice:       "es-US-Neural2-A",
	})

	if _, err := p.ProcessSegment(context.Background(), testSession(), "segment-1", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if synth.voice != "es-US-Neural2-A" {
		t.Errorf("expected configured voice passed through, got %q", synth.voice)
	}
}

func TestProcessSegment_EmptyTextIsNoOp(t *testing.T) {
	translator := &translation.StubTranslator{}
	st := store.NewMemory()

	p := NewProcessor(Options{
		Translator: translator,
		Classifier: &classify.StubClassifier{},
		Store:      st,
		Sender:     &captureSender{},
	})

	for _, text := range []string{"", "   ", "\n\t"} {
		result, err := p.ProcessSegment(context.Background(), testSession(), "segment-1", text)
		if err != nil {
			t.Errorf("text %q: unexpected error: %v", text, err)
		}
		if result != (models.Interpretation{}) {
			t.Errorf("text %q: expected zero result, got %+v", text, result)
		}
	}
	if translator.Calls() != 0 {
		t.Errorf("expected no translation for empty text, got %d calls", translator.Calls())
	}
	if st.SegmentWrites() != 0 {
		t.Error("expected nothing persisted for empty text")
	}
}

func TestProcessSegment_DuplicateInvocationIsNoOp(t *testing.T) {
	st := store.NewMemory()
	sender := &captureSender{}

	p := NewProcessor(Options{
		Translator: &translation.StubTranslator{},
		Classifier: &classify.StubClassifier{Label: "NEGATIVE", Confidence: 0.2},
		Store:      st,
		Sender:     sender,
		Threshold:  0.7,
	})

	ctx := context.Background()
	sess := testSession()
	if _, err := p.ProcessSegment(ctx, sess, "segment-1", "hello"); err != nil {
		t.Fatalf("first invocation: %v", err)
	}
	if _, err := p.ProcessSegment(ctx, sess, "segment-1", "hello"); err != nil {
		t.Fatalf("second invocation: %v", err)
	}

	if st.SegmentWrites() != 1 {
		t.Errorf("expected exactly 1 segment write, got %d", st.SegmentWrites())
	}
	if st.ReviewWrites() != 1 {
		t.Errorf("expected exactly 1 review task, got %d", st.ReviewWrites())
	}
	if len(sender.delivered()) != 1 {
		t.Errorf("expected exactly 1 delivery, got %d", len(sender.delivered()))
	}
}

func TestProcessSegment_SynthesisAttachesAudioURL(t *testing.T) {
	objects := storage.NewMemory()

	p := NewProcessor(Options{
		Translator:  &translation.StubTranslator{},
		Classifier:  &classify.StubClassifier{},
		Synthesizer: &tts.StubSynthesizer{},
		Objects:     objects,
		Store:       store.NewMemory(),
		Sender:      &captureSender{},
	})

	result, err := p.ProcessSegment(context.Background(), testSession(), "segment-1", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.AudioURL, "tts/segment-1.mp3") {
		t.Errorf("expected audio URL for tts/segment-1.mp3, got %q", result.AudioURL)
	}
}

func TestProcessSegment_SynthesisFailureIsNotFatal(t *testing.T) {
	p := NewProcessor(Options{
		Translator:  &translation.StubTranslator{},
		Classifier:  &classify.StubClassifier{},
		Synthesizer: &tts.StubSynthesizer{Err: errors.New("voice unavailable")},
		Objects:     storage.NewMemory(),
		Store:       store.NewMemory(),
		Sender:      &captureSender{},
	})

	result, err := p.ProcessSegment(context.Background(), testSession(), "segment-1", "hello")
	if err != nil {
		t.Fatalf("expected synthesis failure to degrade, got %v", err)
	}
	if result.AudioURL != "" {
		t.Errorf("expected empty audio URL, got %q", result.AudioURL)
	}
	if result.TranslatedText == "" {
		t.Error("expected translation to survive synthesis failure")
	}
}

func TestProcessSegment_DeliveryFailureIsNotFatal(t *testing.T) {
	st := store.NewMemory()

	p := NewProcessor(Options{
		Translator: &translation.StubTranslator{},
		Classifier: &classify.StubClassifier{},
		Store:      st,
		Sender:     &captureSender{err: errors.New("connection reset")},
	})

	if _, err := p.ProcessSegment(context.Background(), testSession(), "segment-1", "hello"); err != nil {
		t.Fatalf("expected delivery failure to degrade, got %v", err)
	}
	if st.SegmentWrites() != 1 {
		t.Error("expected segment persisted despite delivery failure")
	}
}

func TestProcessFinal_GeneratesSegmentIDs(t *testing.T) {
	st := store.NewMemory()
	sender := &captureSender{}

	p := NewProcessor(Options{
		Translator: &translation.StubTranslator{},
		Classifier: &classify.StubClassifier{},
		Store:      st,
		Sender:     sender,
	})

	ctx := context.Background()
	first, err := p.ProcessFinal(ctx, testSession(), "hello")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := p.ProcessFinal(ctx, testSession(), "hello")
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if !strings.HasPrefix(first.SegmentID, "segment-") {
		t.Errorf("expected generated segment ID, got %q", first.SegmentID)
	}
	if first.SegmentID == second.SegmentID {
		t.Error("expected distinct segment IDs for distinct finals")
	}
	if st.SegmentWrites() != 2 {
		t.Errorf("expected 2 segment writes, got %d", st.SegmentWrites())
	}
}
