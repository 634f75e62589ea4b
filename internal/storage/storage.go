// Package storage abstracts the object store holding synthesized audio.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// Store writes audio objects and issues time-limited access URLs.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)
	Close() error
}
