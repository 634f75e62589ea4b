package store

import (
	"context"
	"sync"
)

// Memory is an in-memory Store for tests and local development.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]SessionRecord
	segments map[string]SegmentRecord
	reviews  map[string]ReviewTaskRecord

	segmentPuts int
	reviewPuts  int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]SessionRecord),
		segments: make(map[string]SegmentRecord),
		reviews:  make(map[string]ReviewTaskRecord),
	}
}

func (m *Memory) PutSession(ctx context.Context, rec SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[SessionKey(rec.SessionID)] = rec
	return nil
}

func (m *Memory) PutSegment(ctx context.Context, rec SegmentRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := SegmentKey(rec.SessionID, rec.SegmentID)
	if _, exists := m.segments[key]; exists {
		return false, nil
	}
	m.segments[key] = rec
	m.segmentPuts++
	return true, nil
}

func (m *Memory) PutReviewTask(ctx context.Context, rec ReviewTaskRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ReviewKey(rec.SegmentID)
	if _, exists := m.reviews[key]; exists {
		return false, nil
	}
	m.reviews[key] = rec
	m.reviewPuts++
	return true, nil
}

func (m *Memory) GetSegment(ctx context.Context, sessionID, segmentID string) (SegmentRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.segments[SegmentKey(sessionID, segmentID)]
	if !ok {
		return SegmentRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) PendingReviews(ctx context.Context) ([]ReviewTaskRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []ReviewTaskRecord
	for _, rec := range m.reviews {
		if rec.Status == ReviewPending {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

// SegmentWrites reports how many segment records were actually written.
func (m *Memory) SegmentWrites() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.segmentPuts
}

// ReviewWrites reports how many review task records were actually written.
func (m *Memory) ReviewWrites() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reviewPuts
}

// Session returns the stored session record, if any.
func (m *Memory) Session(sessionID string) (SessionRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[SessionKey(sessionID)]
	return rec, ok
}
