package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"quizesch/internal/domain"
	"github.com/redis/go-redis/v9"
)

// progressKey is the single document holding every quiz's snapshot, one hash
// field per fileID.
const progressKey = "quizesch:progress"

// ProgressStore is the Redis implementation of app.ProgressStore.
type ProgressStore struct {
	client *redis.Client
	maxAge time.Duration
	clock  func() time.Time
}

func NewProgressStore(client *redis.Client, maxAge time.Duration) *ProgressStore {
	return NewProgressStoreWithClock(client, maxAge, time.Now)
}

// NewProgressStoreWithClock allows deterministic staleness tests.
func NewProgressStoreWithClock(client *redis.Client, maxAge time.Duration, clock func() time.Time) *ProgressStore {
	return &ProgressStore{client: client, maxAge: maxAge, clock: clock}
}

func (s *ProgressStore) Save(ctx context.Context, snapshot domain.ProgressSnapshot) error {
	if snapshot.FileID == "" {
		log.Printf("progress: refusing to save snapshot without a quiz file id")
		return nil
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	if err := s.client.HSet(ctx, progressKey, snapshot.FileID, data).Err(); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) Load(ctx context.Context, fileID string, expectedCount int) (domain.ProgressSnapshot, bool, error) {
	raw, err := s.client.HGet(ctx, progressKey, fileID).Result()
	if err == redis.Nil {
		return domain.ProgressSnapshot{}, false, nil
	}
	if err != nil {
		return domain.ProgressSnapshot{}, false, fmt.Errorf("load progress: %w", err)
	}

	var snapshot domain.ProgressSnapshot
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		// Corrupted entries behave like a cache miss; the next save
		// overwrites them.
		log.Printf("progress: discarding unreadable snapshot for %s: %v", fileID, err)
		return domain.ProgressSnapshot{}, false, nil
	}
	if snapshot.QuestionCount != expectedCount {
		return domain.ProgressSnapshot{}, false, nil
	}
	if s.clock().UnixMilli()-snapshot.SavedAt >= s.maxAge.Milliseconds() {
		return domain.ProgressSnapshot{}, false, nil
	}
	snapshot.Normalize(expectedCount)
	return snapshot, true, nil
}

func (s *ProgressStore) Clear(ctx context.Context, fileID string) error {
	if err := s.client.HDel(ctx, progressKey, fileID).Err(); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) ClearAll(ctx context.Context) error {
	if err := s.client.Del(ctx, progressKey).Err(); err != nil {
		return fmt.Errorf("clear all progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) LoadAll(ctx context.Context) (map[string]domain.ProgressSnapshot, error) {
	fields, err := s.client.HGetAll(ctx, progressKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load all progress: %w", err)
	}
	out := make(map[string]domain.ProgressSnapshot, len(fields))
	for fileID, raw := range fields {
		var snapshot domain.ProgressSnapshot
		if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
			log.Printf("progress: skipping unreadable snapshot for %s: %v", fileID, err)
			continue
		}
		out[fileID] = snapshot
	}
	return out, nil
}
