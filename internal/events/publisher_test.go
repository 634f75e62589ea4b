package events

import (
	"context"
	"testing"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"nil brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerResults != nil {
				t.Error("expected nil results writer when disabled")
			}
			if p.writerReviews != nil {
				t.Error("expected nil reviews writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		TopicResults: "test.results",
		TopicReviews: "test.reviews",
		Principal:    "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicResults != "test.results" {
		t.Errorf("expected results topic 'test.results', got %s", p.topicResults)
	}
	if p.topicReviews != "test.reviews" {
		t.Errorf("expected reviews topic 'test.reviews', got %s", p.topicReviews)
	}
}

func TestPublisher_PublishDisabledIsNoOp(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := map[string]string{"text": "hola"}
	if err := p.PublishResult(context.Background(), "session-1", event); err != nil {
		t.Errorf("expected no error from disabled PublishResult, got %v", err)
	}
	if err := p.PublishReview(context.Background(), "segment-1", event); err != nil {
		t.Errorf("expected no error from disabled PublishReview, got %v", err)
	}
}
