// Package events publishes interpretation and review events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-interpretation-service/internal/observability/metrics"
)

// Publisher publishes segment results and review escalations to separate
// Kafka topics. When disabled it degrades to log-only mode.
type Publisher struct {
	writerResults *kafka.Writer
	writerReviews *kafka.Writer
	principal     string
	topicResults  string
	topicReviews  string
	enabled       bool
	metrics       *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers      []string
	TopicResults string
	TopicReviews string
	Principal    string
	Enabled      bool
}

// New creates a Kafka event publisher with separate topics for segment
// results and review tasks.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{enabled: false, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:    cfg.Principal,
			topicResults: cfg.TopicResults,
			topicReviews: cfg.TopicReviews,
			enabled:      false,
			metrics:      m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicResults", cfg.TopicResults).
		Str("topicReviews", cfg.TopicReviews).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerResults: newWriter(cfg.TopicResults),
		writerReviews: newWriter(cfg.TopicReviews),
		principal:     cfg.Principal,
		topicResults:  cfg.TopicResults,
		topicReviews:  cfg.TopicReviews,
		enabled:       true,
		metrics:       m,
	}
}

// PublishResult publishes a processed segment event, keyed by session.
func (p *Publisher) PublishResult(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerResults, p.topicResults, "result", key, event)
}

// PublishReview publishes a review escalation event, keyed by segment.
func (p *Publisher) PublishReview(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerReviews, p.topicReviews, "review", key, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(topic)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerResults != nil {
		if e := p.writerResults.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing results writer")
			err = e
		}
	}
	if p.writerReviews != nil {
		if e := p.writerReviews.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing reviews writer")
			err = e
		}
	}
	return err
}
