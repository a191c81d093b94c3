package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"quizesch/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const quizKeyPrefix = "quizesch:quiz:"

// QuizLoader fetches quiz content from a backing store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, fileID string) (domain.Quiz, error)
}

// QuizRepository caches whole quizzes as JSON in Redis and falls back to a
// loader on cache miss.
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, fileID string) (domain.Quiz, error) {
	key := quizKeyPrefix + fileID

	if quiz, ok := r.cached(ctx, key, fileID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(fileID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if quiz, ok := r.cached(ctx, key, fileID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, fileID)
		if err != nil {
			return domain.Quiz{}, err
		}

		data, err := json.Marshal(quiz)
		if err != nil {
			return domain.Quiz{}, fmt.Errorf("marshal quiz %s: %w", fileID, err)
		}
		// Cache population is best effort; serving the quiz matters more.
		_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()

		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate drops the cached copy, e.g. after the supervision sweep rewrote
// the content file.
func (r *QuizRepository) Invalidate(ctx context.Context, fileID string) {
	_ = r.client.Del(ctx, quizKeyPrefix+fileID).Err()
}

func (r *QuizRepository) cached(ctx context.Context, key, fileID string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return domain.Quiz{}, false
	}
	quiz.FileID = fileID
	return quiz, true
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
