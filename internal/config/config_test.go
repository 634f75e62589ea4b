package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	envVars := []string{
		"SERVICE_NAME", "HTTP_PORT", "SERVICE_PRINCIPAL",
		"STT_PROVIDER", "STT_SAMPLE_RATE_HZ", "STT_INTERIM_RESULTS", "STT_QUEUE_SIZE",
		"CONFIDENCE_THRESHOLD", "SEGMENT_TIMEOUT", "SYNTHESIS_ENABLED", "PRESIGN_TTL",
		"DEFAULT_SOURCE_LANGUAGE", "DEFAULT_TARGET_LANGUAGE",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "REDIS_ENABLED", "REDIS_TTL",
		"SYNTHESIS_VOICE", "STORAGE_BUCKET",
		"LOG_LEVEL", "LOG_FORMAT", "METRICS_PORT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}

	cfg := Load()

	if cfg.Service.Name != "ai-interpretation-service" {
		t.Errorf("expected default service name, got %s", cfg.Service.Name)
	}
	if cfg.Service.HTTPPort != "8080" {
		t.Errorf("expected default port '8080', got %s", cfg.Service.HTTPPort)
	}

	if cfg.STT.Provider != "mock" {
		t.Errorf("expected default STT provider 'mock', got %s", cfg.STT.Provider)
	}
	if cfg.STT.SampleRateHz != 16000 {
		t.Errorf("expected default sample rate 16000, got %d", cfg.STT.SampleRateHz)
	}
	if !cfg.STT.InterimResults {
		t.Error("expected interim results enabled by default")
	}
	if cfg.STT.QueueSize != 256 {
		t.Errorf("expected default queue size 256, got %d", cfg.STT.QueueSize)
	}

	if cfg.Pipeline.ConfidenceThreshold != 0.7 {
		t.Errorf("expected default threshold 0.7, got %v", cfg.Pipeline.ConfidenceThreshold)
	}
	if cfg.Pipeline.SegmentTimeout != 30*time.Second {
		t.Errorf("expected default segment timeout 30s, got %v", cfg.Pipeline.SegmentTimeout)
	}
	if cfg.Pipeline.PresignTTL != 15*time.Minute {
		t.Errorf("expected default presign TTL 15m, got %v", cfg.Pipeline.PresignTTL)
	}

	if cfg.Languages.DefaultSource != "en" || cfg.Languages.DefaultTarget != "es" {
		t.Errorf("expected default language pair en/es, got %s/%s",
			cfg.Languages.DefaultSource, cfg.Languages.DefaultTarget)
	}

	if cfg.Kafka.Enabled {
		t.Error("expected Kafka disabled by default")
	}
	if cfg.Redis.Enabled {
		t.Error("expected Redis disabled by default")
	}
	if cfg.Redis.TTL != 0 {
		t.Errorf("expected no record expiry by default, got %v", cfg.Redis.TTL)
	}

	if cfg.Observability.LogLevel != "info" {
		t.Errorf("expected default log level 'info', got %s", cfg.Observability.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STT_PROVIDER", "google")
	t.Setenv("STT_SAMPLE_RATE_HZ", "8000")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.5")
	t.Setenv("SEGMENT_TIMEOUT", "10s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("DEFAULT_TARGET_LANGUAGE", "fr")
	t.Setenv("REDIS_TTL", "72h")
	t.Setenv("SYNTHESIS_VOICE", "es-US-Neural2-A")

	cfg := Load()

	if cfg.STT.Provider != "google" {
		t.Errorf("expected provider 'google', got %s", cfg.STT.Provider)
	}
	if cfg.STT.SampleRateHz != 8000 {
		t.Errorf("expected sample rate 8000, got %d", cfg.STT.SampleRateHz)
	}
	if cfg.Pipeline.ConfidenceThreshold != 0.5 {
		t.Errorf("expected threshold 0.5, got %v", cfg.Pipeline.ConfidenceThreshold)
	}
	if cfg.Pipeline.SegmentTimeout != 10*time.Second {
		t.Errorf("expected segment timeout 10s, got %v", cfg.Pipeline.SegmentTimeout)
	}
	if !cfg.Kafka.Enabled {
		t.Error("expected Kafka enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "broker-2:9092" {
		t.Errorf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
	if cfg.Languages.DefaultTarget != "fr" {
		t.Errorf("expected target 'fr', got %s", cfg.Languages.DefaultTarget)
	}
	if cfg.Redis.TTL != 72*time.Hour {
		t.Errorf("expected Redis TTL 72h, got %v", cfg.Redis.TTL)
	}
	if cfg.Pipeline.VoiceName != "es-US-Neural2-A" {
		t.Errorf("expected voice 'es-US-Neural2-A', got %s", cfg.Pipeline.VoiceName)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("STT_SAMPLE_RATE_HZ", "not-a-number")
	t.Setenv("CONFIDENCE_THRESHOLD", "high")
	t.Setenv("SEGMENT_TIMEOUT", "soon")

	cfg := Load()

	if cfg.STT.SampleRateHz != 16000 {
		t.Errorf("expected fallback sample rate 16000, got %d", cfg.STT.SampleRateHz)
	}
	if cfg.Pipeline.ConfidenceThreshold != 0.7 {
		t.Errorf("expected fallback threshold 0.7, got %v", cfg.Pipeline.ConfidenceThreshold)
	}
	if cfg.Pipeline.SegmentTimeout != 30*time.Second {
		t.Errorf("expected fallback timeout 30s, got %v", cfg.Pipeline.SegmentTimeout)
	}
}
