// Package delivery pushes JSON payloads to specific WebSocket connections.
package delivery

import (
	"context"
	"errors"
)

// ErrConnectionGone is returned when the target connection is no longer
// registered. Callers treat this as best-effort: a closed connection simply
// cannot receive further updates.
var ErrConnectionGone = errors.New("connection gone")

// Sender pushes a JSON-serializable payload to one connection.
type Sender interface {
	Send(ctx context.Context, connectionID string, payload any) error
}
