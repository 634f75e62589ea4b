// Package stream manages per-connection speech-recognition streams: one
// Handle per WebSocket connection, fed by a bounded audio queue and drained
// into an stt.Adapter.
package stream

// State is the lifecycle state of a stream handle.
type State int32

const (
	// StateIdle means the handle exists but the recognizer stream has not
	// been opened yet.
	StateIdle State = iota
	// StateStreaming means audio is flowing to the recognizer.
	StateStreaming
	// StateStopping means teardown has begun; new audio is discarded.
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}
