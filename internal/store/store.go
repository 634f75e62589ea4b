// Package store persists sessions, segments and review tasks in a flat
// key-value table using a composite key scheme:
//
//	session#<sessionId>
//	segment#<sessionId>#<segmentId>
//	review#<segmentId>
package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Session statuses.
const (
	SessionConnected    = "connected"
	SessionDisconnected = "disconnected"
)

// Segment statuses.
const (
	SegmentApproved      = "approved"
	SegmentPendingReview = "pending_review"
)

// Review task statuses.
const (
	ReviewPending  = "pending"
	ReviewReviewed = "reviewed"
)

// SessionRecord is the durable trace of a connection lifecycle event.
type SessionRecord struct {
	SessionID      string    `json:"sessionId"`
	ConnectionID   string    `json:"connectionId"`
	SourceLanguage string    `json:"sourceLanguage,omitempty"`
	TargetLanguage string    `json:"targetLanguage,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
	DisconnectedAt time.Time `json:"disconnectedAt,omitempty"`
}

// SegmentRecord is the terminal record for one processed segment.
type SegmentRecord struct {
	SegmentID        string    `json:"segmentId"`
	SessionID        string    `json:"sessionId"`
	Text             string    `json:"text"`
	TranslatedText   string    `json:"translatedText"`
	Classification   string    `json:"classification"`
	Confidence       float64   `json:"confidence"`
	NeedsHumanReview bool      `json:"needsHumanReview"`
	AudioURL         string    `json:"audioUrl,omitempty"`
	Status           string    `json:"status"`
	Timestamp        time.Time `json:"timestamp"`
}

// ReviewTaskRecord is the side record for a low-confidence segment.
type ReviewTaskRecord struct {
	SegmentID      string    `json:"segmentId"`
	SessionID      string    `json:"sessionId"`
	OriginalText   string    `json:"originalText"`
	TranslatedText string    `json:"translatedText"`
	Status         string    `json:"status"`
	Priority       string    `json:"priority"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Store is the key-value persistence interface. PutSegment and PutReviewTask
// are conditional creates: they report false without writing when a record
// with the same key already exists, which is what makes retried pipeline
// stages safe.
type Store interface {
	PutSession(ctx context.Context, rec SessionRecord) error
	PutSegment(ctx context.Context, rec SegmentRecord) (bool, error)
	PutReviewTask(ctx context.Context, rec ReviewTaskRecord) (bool, error)
	GetSegment(ctx context.Context, sessionID, segmentID string) (SegmentRecord, error)
	PendingReviews(ctx context.Context) ([]ReviewTaskRecord, error)
	Close() error
}

// SessionKey returns the composite key for a session record.
func SessionKey(sessionID string) string {
	return fmt.Sprintf("session#%s", sessionID)
}

// SegmentKey returns the composite key for a segment record.
func SegmentKey(sessionID, segmentID string) string {
	return fmt.Sprintf("segment#%s#%s", sessionID, segmentID)
}

// ReviewKey returns the composite key for a review task record.
func ReviewKey(segmentID string) string {
	return fmt.Sprintf("review#%s", segmentID)
}
