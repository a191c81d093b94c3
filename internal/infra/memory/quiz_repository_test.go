package memory_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"quizesch/internal/domain"
	"quizesch/internal/infra/memory"
)

type countingLoader struct {
	calls int64
	quiz  domain.Quiz
}

func (l *countingLoader) LoadQuiz(_ context.Context, fileID string) (domain.Quiz, error) {
	atomic.AddInt64(&l.calls, 1)
	if fileID != l.quiz.FileID {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return l.quiz, nil
}

func TestQuizRepositoryCachesContent(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{quiz: domain.Quiz{FileID: "cached.json", Questions: []domain.Question{{Type: domain.MultiChoice}}}}
	repo := memory.NewQuizRepository(loader, time.Minute)

	for i := 0; i < 5; i++ {
		if _, err := repo.GetQuiz(ctx, "cached.json"); err != nil {
			t.Fatalf("get failed: %v", err)
		}
	}
	if calls := atomic.LoadInt64(&loader.calls); calls != 1 {
		t.Fatalf("expected a single backing load, got %d", calls)
	}
}

func TestQuizRepositoryInvalidate(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{quiz: domain.Quiz{FileID: "cached.json"}}
	repo := memory.NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(ctx, "cached.json"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	repo.Invalidate("cached.json")
	if _, err := repo.GetQuiz(ctx, "cached.json"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if calls := atomic.LoadInt64(&loader.calls); calls != 2 {
		t.Fatalf("invalidate should force a reload, got %d loads", calls)
	}
}

func TestQuizRepositoryPropagatesNotFound(t *testing.T) {
	loader := &countingLoader{quiz: domain.Quiz{FileID: "exists.json"}}
	repo := memory.NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "missing.json"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
