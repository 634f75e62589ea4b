package ws

import (
	"context"
	"encoding/base64"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"ai-interpretation-service/internal/delivery"
	"ai-interpretation-service/internal/models"
	"ai-interpretation-service/internal/service/classify"
	"ai-interpretation-service/internal/service/interpret"
	"ai-interpretation-service/internal/service/stream"
	"ai-interpretation-service/internal/service/stt"
	"ai-interpretation-service/internal/service/stt/mock"
	"ai-interpretation-service/internal/service/translation"
	"ai-interpretation-service/internal/session"
	"ai-interpretation-service/internal/store"
)

type testEnv struct {
	store  *store.Memory
	server *httptest.Server
}

// newTestEnv stands up the full boundary with stubbed providers and a
// scripted recognizer.
func newTestEnv(t *testing.T, factory stt.Factory, confidence float64) *testEnv {
	t.Helper()

	st := store.NewMemory()
	hub := delivery.NewHub(nil)
	registry := session.NewRegistry(st, "en", "es", nil)

	processor := interpret.NewProcessor(interpret.Options{
		Translator: &translation.StubTranslator{},
		Classifier: &classify.StubClassifier{Label: "POSITIVE", Confidence: confidence},
		Store:      st,
		Sender:     hub,
		Threshold:  0.7,
	})

	streams := stream.NewManager(factory, hub, processor, stream.Config{
		Provider:       "mock",
		QueueSize:      32,
		InterimResults: true,
		SegmentTimeout: 5 * time.Second,
	}, nil)
	t.Cleanup(streams.StopAll)

	handler := NewHandler(hub, registry, streams, processor, Config{SegmentTimeout: 5 * time.Second}, nil)

	r := chi.NewRouter()
	handler.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{store: st, server: srv}
}

func (e *testEnv) dial(t *testing.T, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/v1/interpret" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one of type want arrives, returning all
// raw messages seen including it.
func readUntil(t *testing.T, conn *websocket.Conn, want string) []map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var seen []map[string]any
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("reading until %q (saw %d messages): %v", want, len(seen), err)
		}
		seen = append(seen, msg)
		if msg["type"] == want {
			return seen
		}
	}
}

func sendJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestAudioChunk_FullPipeline(t *testing.T) {
	utterance := mock.Utterance{
		Partials:   []string{"hel", "hello"},
		Final:      "hello world",
		Confidence: 0.95,
	}
	factory := func(ctx context.Context) (stt.Adapter, error) {
		return mock.NewScripted(utterance), nil
	}
	env := newTestEnv(t, factory, 0.9)
	conn := env.dial(t, "?sourceLanguage=en&targetLanguage=es&sessionId=sess-1")

	chunk := base64.StdEncoding.EncodeToString([]byte("pcm-audio"))
	// One frame per partial, one more to trigger the final.
	for i := 0; i < len(utterance.Partials)+1; i++ {
		sendJSON(t, conn, models.ClientMessage{Type: models.TypeAudioChunk, AudioData: chunk})
	}

	seen := readUntil(t, conn, models.TypeInterpretation)

	var partials, finals int
	for _, msg := range seen {
		if msg["type"] != models.TypeTranscription {
			continue
		}
		if msg["isPartial"] == true {
			partials++
		} else {
			finals++
			if msg["text"] != "hello world" {
				t.Errorf("unexpected final transcript: %v", msg["text"])
			}
		}
	}
	if partials == 0 {
		t.Error("expected at least one partial transcript")
	}
	if finals != 1 {
		t.Errorf("expected exactly one final transcript, got %d", finals)
	}

	result := seen[len(seen)-1]
	if result["translatedText"] != "[es] hello world" {
		t.Errorf("unexpected translation: %v", result["translatedText"])
	}
	if result["needsHumanReview"] != false {
		t.Error("expected high-confidence segment not flagged for review")
	}

	segmentID, _ := result["segmentId"].(string)
	if _, err := env.store.GetSegment(context.Background(), "sess-1", segmentID); err != nil {
		t.Errorf("expected segment persisted under session sess-1: %v", err)
	}
}

func TestDirectTranscript_IsInterpreted(t *testing.T) {
	env := newTestEnv(t, mock.Factory(), 0.9)
	conn := env.dial(t, "?sourceLanguage=en&targetLanguage=fr")

	sendJSON(t, conn, models.ClientMessage{Type: models.TypeTranscript, Text: "good evening"})

	seen := readUntil(t, conn, models.TypeInterpretation)
	result := seen[len(seen)-1]
	if result["translatedText"] != "[fr] good evening" {
		t.Errorf("unexpected translation: %v", result["translatedText"])
	}
}

func TestBareText_IsTreatedAsTranscript(t *testing.T) {
	env := newTestEnv(t, mock.Factory(), 0.9)
	conn := env.dial(t, "")

	// No type at all; languages fall back to the configured defaults.
	sendJSON(t, conn, map[string]string{"text": "hello"})

	seen := readUntil(t, conn, models.TypeInterpretation)
	result := seen[len(seen)-1]
	if result["translatedText"] != "[es] hello" {
		t.Errorf("unexpected translation: %v", result["translatedText"])
	}
}

func TestPartialTranscript_IsNotInterpreted(t *testing.T) {
	env := newTestEnv(t, mock.Factory(), 0.9)
	conn := env.dial(t, "")

	sendJSON(t, conn, models.ClientMessage{Type: models.TypeTranscription, Text: "half a tho", IsPartial: true})
	sendJSON(t, conn, models.ClientMessage{Type: models.TypeTranscription, Text: "half a thought finished"})

	seen := readUntil(t, conn, models.TypeInterpretation)
	if len(seen) != 1 {
		t.Errorf("expected only the final's interpretation, got %d messages", len(seen))
	}
	if got := seen[0]["text"]; got != "half a thought finished" {
		t.Errorf("unexpected interpreted text: %v", got)
	}
}

func TestLowConfidence_FlagsReview(t *testing.T) {
	env := newTestEnv(t, mock.Factory(), 0.3)
	conn := env.dial(t, "?sessionId=sess-low")

	sendJSON(t, conn, models.ClientMessage{Type: models.TypeTranscript, Text: "ambiguous phrase"})

	seen := readUntil(t, conn, models.TypeInterpretation)
	result := seen[len(seen)-1]
	if result["needsHumanReview"] != true {
		t.Error("expected low-confidence segment flagged for review")
	}

	pending, err := env.store.PendingReviews(context.Background())
	if err != nil {
		t.Fatalf("PendingReviews: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected 1 pending review task, got %d", len(pending))
	}
}

func TestMalformedMessage_IsIgnored(t *testing.T) {
	env := newTestEnv(t, mock.Factory(), 0.9)
	conn := env.dial(t, "")

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	// The connection survives and keeps serving.
	sendJSON(t, conn, models.ClientMessage{Type: models.TypeTranscript, Text: "still here"})

	seen := readUntil(t, conn, models.TypeInterpretation)
	if got := seen[len(seen)-1]["text"]; got != "still here" {
		t.Errorf("unexpected interpreted text: %v", got)
	}
}

func TestSessionLifecycle_RecordedInStore(t *testing.T) {
	env := newTestEnv(t, mock.Factory(), 0.9)
	conn := env.dial(t, "?sessionId=sess-life")

	// A round trip guarantees the server finished connect handling.
	sendJSON(t, conn, models.ClientMessage{Type: models.TypeTranscript, Text: "ping"})
	readUntil(t, conn, models.TypeInterpretation)

	rec, ok := env.store.Session("sess-life")
	if !ok {
		t.Fatal("expected session record")
	}
	if rec.Status != store.SessionConnected {
		t.Errorf("expected status %q, got %q", store.SessionConnected, rec.Status)
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if rec, _ := env.store.Session("sess-life"); rec.Status == store.SessionDisconnected {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("expected disconnect recorded in store")
}
