package memory

import (
	"context"
	"log"
	"sync"
	"time"

	"quizesch/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressStore, the
// fallback when no Redis is configured.
type ProgressStore struct {
	maxAge time.Duration
	clock  func() time.Time

	mu        sync.RWMutex
	snapshots map[string]domain.ProgressSnapshot
}

func NewProgressStore(maxAge time.Duration) *ProgressStore {
	return NewProgressStoreWithClock(maxAge, time.Now)
}

// NewProgressStoreWithClock allows deterministic staleness tests.
func NewProgressStoreWithClock(maxAge time.Duration, clock func() time.Time) *ProgressStore {
	return &ProgressStore{
		maxAge:    maxAge,
		clock:     clock,
		snapshots: make(map[string]domain.ProgressSnapshot),
	}
}

func (s *ProgressStore) Save(_ context.Context, snapshot domain.ProgressSnapshot) error {
	if snapshot.FileID == "" {
		log.Printf("progress: refusing to save snapshot without a quiz file id")
		return nil
	}
	s.mu.Lock()
	s.snapshots[snapshot.FileID] = snapshot
	s.mu.Unlock()
	return nil
}

func (s *ProgressStore) Load(_ context.Context, fileID string, expectedCount int) (domain.ProgressSnapshot, bool, error) {
	s.mu.RLock()
	snapshot, ok := s.snapshots[fileID]
	s.mu.RUnlock()
	if !ok {
		return domain.ProgressSnapshot{}, false, nil
	}
	if snapshot.QuestionCount != expectedCount {
		return domain.ProgressSnapshot{}, false, nil
	}
	age := s.clock().UnixMilli() - snapshot.SavedAt
	if age >= s.maxAge.Milliseconds() {
		return domain.ProgressSnapshot{}, false, nil
	}
	snapshot.Normalize(expectedCount)
	return snapshot, true, nil
}

func (s *ProgressStore) Clear(_ context.Context, fileID string) error {
	s.mu.Lock()
	delete(s.snapshots, fileID)
	s.mu.Unlock()
	return nil
}

func (s *ProgressStore) ClearAll(context.Context) error {
	s.mu.Lock()
	s.snapshots = make(map[string]domain.ProgressSnapshot)
	s.mu.Unlock()
	return nil
}

func (s *ProgressStore) LoadAll(context.Context) (map[string]domain.ProgressSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.ProgressSnapshot, len(s.snapshots))
	for fileID, snapshot := range s.snapshots {
		out[fileID] = snapshot
	}
	return out, nil
}
