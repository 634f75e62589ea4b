// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the full service configuration.
type Config struct {
	Service       ServiceConfig
	STT           STTConfig
	Pipeline      PipelineConfig
	Languages     LanguageConfig
	Kafka         KafkaConfig
	Redis         RedisConfig
	Storage       StorageConfig
	Observability ObservabilityConfig
}

// ServiceConfig identifies the service and its listen ports.
type ServiceConfig struct {
	Name     string
	HTTPPort string
}

// STTConfig configures the streaming speech-recognition adapter.
type STTConfig struct {
	Provider       string // "google" or "mock"
	SampleRateHz   int
	InterimResults bool
	QueueSize      int // max buffered audio frames per connection
}

// PipelineConfig configures the segment processing pipeline.
type PipelineConfig struct {
	ConfidenceThreshold float64
	SegmentTimeout      time.Duration
	SynthesisEnabled    bool
	VoiceName           string
	PresignTTL          time.Duration
}

// LanguageConfig holds the fallback language pair for invalid or missing codes.
type LanguageConfig struct {
	DefaultSource string
	DefaultTarget string
}

// KafkaConfig configures the event publisher.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicResults string
	TopicReviews string
	Principal    string
}

// RedisConfig configures the key-value store.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	// TTL bounds record retention; zero keeps records forever.
	TTL time.Duration
}

// StorageConfig configures synthesized-audio object storage.
type StorageConfig struct {
	Bucket string
}

// ObservabilityConfig configures logging and the metrics server.
type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string // json or console
	MetricsPort string
}

// Load reads configuration from environment variables, applying defaults.
func Load() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     envOrDefault("SERVICE_NAME", "ai-interpretation-service"),
			HTTPPort: envOrDefault("HTTP_PORT", "8080"),
		},
		STT: STTConfig{
			Provider:       envOrDefault("STT_PROVIDER", "mock"),
			SampleRateHz:   envInt("STT_SAMPLE_RATE_HZ", 16000),
			InterimResults: envBool("STT_INTERIM_RESULTS", true),
			QueueSize:      envInt("STT_QUEUE_SIZE", 256),
		},
		Pipeline: PipelineConfig{
			ConfidenceThreshold: envFloat("CONFIDENCE_THRESHOLD", 0.7),
			SegmentTimeout:      envDuration("SEGMENT_TIMEOUT", 30*time.Second),
			SynthesisEnabled:    envBool("SYNTHESIS_ENABLED", true),
			VoiceName:           envOrDefault("SYNTHESIS_VOICE", ""),
			PresignTTL:          envDuration("PRESIGN_TTL", 15*time.Minute),
		},
		Languages: LanguageConfig{
			DefaultSource: envOrDefault("DEFAULT_SOURCE_LANGUAGE", "en"),
			DefaultTarget: envOrDefault("DEFAULT_TARGET_LANGUAGE", "es"),
		},
		Kafka: KafkaConfig{
			Enabled:      envBool("KAFKA_ENABLED", false),
			Brokers:      envList("KAFKA_BROKERS"),
			TopicResults: envOrDefault("KAFKA_TOPIC_RESULTS", "interpretation.segment.result"),
			TopicReviews: envOrDefault("KAFKA_TOPIC_REVIEWS", "interpretation.review.task"),
			Principal:    envOrDefault("SERVICE_PRINCIPAL", "svc-interpretation"),
		},
		Redis: RedisConfig{
			Enabled:  envBool("REDIS_ENABLED", false),
			Addr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
			TTL:      envDuration("REDIS_TTL", 0),
		},
		Storage: StorageConfig{
			Bucket: os.Getenv("STORAGE_BUCKET"),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
