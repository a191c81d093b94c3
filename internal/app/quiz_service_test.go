package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizesch/internal/app"
	"quizesch/internal/domain"
	"quizesch/internal/infra/memory"
)

func newTestService(clock func() time.Time) *app.QuizService {
	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"history.json": {
			FileID:    "history.json",
			Questions: testQuestions(3),
		},
	})
	quizzes := memory.NewQuizRepository(loader, time.Minute)
	progress := memory.NewProgressStoreWithClock(7*24*time.Hour, clock)
	trust := app.NewTrustService(memory.NewVoteStore(), app.StaticIdentity("tester"))
	return app.NewQuizService(quizzes, progress, trust)
}

func TestOpenUnknownQuiz(t *testing.T) {
	service := newTestService(time.Now)
	if _, _, err := service.Open(context.Background(), "ghost.json"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestOpenRestoresSavedProgress(t *testing.T) {
	ctx := context.Background()
	service := newTestService(time.Now)

	run, restored, err := service.Open(ctx, "history.json")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if restored {
		t.Fatal("first open must not restore anything")
	}

	run.SaveAnswer(0, correctAnswer())
	run.MarkCurrentEvaluated()
	run.GoNext()
	if err := service.SaveProgress(ctx, run); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reopened, restored, err := service.Open(ctx, "history.json")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if !restored {
		t.Fatal("expected a restore on reopen")
	}
	if reopened.CurrentIndex() != 1 {
		t.Fatalf("cursor not restored, at %d", reopened.CurrentIndex())
	}
	if got := reopened.ProgressSummary(); got.Correct != 1 || got.TotalEvaluated != 1 {
		t.Fatalf("evaluation state not restored: %+v", got)
	}
}

func TestOpenIgnoresStaleProgress(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	service := newTestService(func() time.Time { return now })

	run, _, err := service.Open(ctx, "history.json")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	run.SaveAnswer(0, correctAnswer())
	if err := service.SaveProgress(ctx, run); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Eight days later the snapshot is past the freshness window.
	now = now.Add(8 * 24 * time.Hour)
	_, restored, err := service.Open(ctx, "history.json")
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if restored {
		t.Fatal("stale progress must start a fresh run")
	}
}

func TestOpenDropsMalformedShuffleOrder(t *testing.T) {
	ctx := context.Background()
	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"history.json": {FileID: "history.json", Questions: testQuestions(3)},
	})
	progress := memory.NewProgressStore(7 * 24 * time.Hour)
	service := app.NewQuizService(
		memory.NewQuizRepository(loader, time.Minute),
		progress,
		app.NewTrustService(memory.NewVoteStore(), app.StaticIdentity("tester")),
	)

	// A snapshot whose remembered shuffle order disagrees with its own
	// question count. Everything else about it is fresh and well-formed.
	if err := progress.Save(ctx, domain.ProgressSnapshot{
		FileID:        "history.json",
		QuestionCount: 3,
		Answers:       []*domain.Answer{correctAnswer(), nil, nil},
		Evaluated:     []bool{true, false, false},
		SavedAt:       time.Now().UnixMilli(),
		Shuffled:      testQuestions(4),
		Original:      testQuestions(4),
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	run, restored, err := service.Open(ctx, "history.json")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if !restored {
		t.Fatal("answers should still restore when only the shuffle order is bad")
	}
	if run.Len() != 3 {
		t.Fatalf("run must keep the quiz's own questions, got %d", run.Len())
	}
	if run.Shuffled() {
		t.Fatal("a dropped shuffle order must not leave the run shuffled")
	}
	if score := run.ComputeFinalScore(); score != 1 {
		t.Fatalf("score = %d, want 1", score)
	}
}

type brokenProgressStore struct{}

func (brokenProgressStore) Save(context.Context, domain.ProgressSnapshot) error { return nil }
func (brokenProgressStore) Load(context.Context, string, int) (domain.ProgressSnapshot, bool, error) {
	return domain.ProgressSnapshot{}, false, errors.New("store down")
}
func (brokenProgressStore) Clear(context.Context, string) error    { return nil }
func (brokenProgressStore) ClearAll(context.Context) error         { return nil }
func (brokenProgressStore) LoadAll(context.Context) (map[string]domain.ProgressSnapshot, error) {
	return nil, errors.New("store down")
}

func TestOpenSurvivesBrokenProgressStore(t *testing.T) {
	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"history.json": {FileID: "history.json", Questions: testQuestions(2)},
	})
	service := app.NewQuizService(
		memory.NewQuizRepository(loader, time.Minute),
		brokenProgressStore{},
		app.NewTrustService(memory.NewVoteStore(), app.StaticIdentity("tester")),
	)

	run, restored, err := service.Open(context.Background(), "history.json")
	if err != nil {
		t.Fatalf("a broken progress store must not block opening: %v", err)
	}
	if restored || run.Len() != 2 {
		t.Fatalf("expected a fresh run, restored=%v len=%d", restored, run.Len())
	}
}

func TestClearProgress(t *testing.T) {
	ctx := context.Background()
	service := newTestService(time.Now)

	run, _, _ := service.Open(ctx, "history.json")
	run.SaveAnswer(0, correctAnswer())
	if err := service.SaveProgress(ctx, run); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := service.ClearProgress(ctx, "history.json"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	_, restored, _ := service.Open(ctx, "history.json")
	if restored {
		t.Fatal("cleared progress must not restore")
	}

	overview, err := service.Overview(ctx)
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if len(overview) != 0 {
		t.Fatalf("overview should be empty after clear, got %d entries", len(overview))
	}
}
