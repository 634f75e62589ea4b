package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis instance. Records are stored as JSON
// under their composite keys; conditional creates use SETNX.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// TTL bounds how long records are retained; zero means no expiry.
	TTL time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Redis{client: client, ttl: cfg.TTL}, nil
}

func (r *Redis) PutSession(ctx context.Context, rec SessionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, SessionKey(rec.SessionID), payload, r.ttl).Err()
}

func (r *Redis) PutSegment(ctx context.Context, rec SegmentRecord) (bool, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	return r.client.SetNX(ctx, SegmentKey(rec.SessionID, rec.SegmentID), payload, r.ttl).Result()
}

func (r *Redis) PutReviewTask(ctx context.Context, rec ReviewTaskRecord) (bool, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return false, err
	}
	return r.client.SetNX(ctx, ReviewKey(rec.SegmentID), payload, r.ttl).Result()
}

func (r *Redis) GetSegment(ctx context.Context, sessionID, segmentID string) (SegmentRecord, error) {
	data, err := r.client.Get(ctx, SegmentKey(sessionID, segmentID)).Bytes()
	if err == redis.Nil {
		return SegmentRecord{}, ErrNotFound
	}
	if err != nil {
		return SegmentRecord{}, err
	}
	var rec SegmentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return SegmentRecord{}, err
	}
	return rec, nil
}

func (r *Redis) PendingReviews(ctx context.Context) ([]ReviewTaskRecord, error) {
	var out []ReviewTaskRecord
	iter := r.client.Scan(ctx, 0, "review#*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec ReviewTaskRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		if rec.Status == ReviewPending {
			out = append(out, rec)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
