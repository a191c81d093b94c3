package app

import (
	"context"
	"fmt"

	"quizesch/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, fileID string) (domain.Quiz, error)
}

// ProgressStore persists per-quiz run snapshots inside one shared document
// keyed by fileID.
type ProgressStore interface {
	// Save overwrites the quiz's entry; a snapshot without a fileID is a
	// logged no-op.
	Save(ctx context.Context, snapshot domain.ProgressSnapshot) error
	// Load returns the stored snapshot only when it exists, its question
	// count matches, and it is fresh. Arrays come back re-padded to the
	// expected length. ok=false is the cache-miss result, not an error.
	Load(ctx context.Context, fileID string, expectedCount int) (domain.ProgressSnapshot, bool, error)
	// Clear removes just that quiz's entry.
	Clear(ctx context.Context, fileID string) error
	// ClearAll wipes the whole progress document.
	ClearAll(ctx context.Context) error
	// LoadAll returns the full fileID to snapshot mapping for menu display.
	LoadAll(ctx context.Context) (map[string]domain.ProgressSnapshot, error)
}

// QuizService composes the quiz client use cases: loading content into a run,
// restoring and saving progress, and the trust vote pass-through.
type QuizService struct {
	quizzes  QuizRepository
	progress ProgressStore
	trust    *TrustService
}

func NewQuizService(quizzes QuizRepository, progress ProgressStore, trust *TrustService) *QuizService {
	return &QuizService{quizzes: quizzes, progress: progress, trust: trust}
}

// Open loads the quiz content into a fresh run and restores persisted
// progress when a valid snapshot exists. It reports whether a restore
// happened.
func (s *QuizService) Open(ctx context.Context, fileID string) (*QuizRun, bool, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, fileID)
	if err != nil {
		return nil, false, fmt.Errorf("open quiz %s: %w", fileID, err)
	}

	run := NewQuizRun()
	run.Load(quiz.Questions, fileID)

	snapshot, ok, err := s.progress.Load(ctx, fileID, len(quiz.Questions))
	if err != nil {
		// Progress is an accelerator, not a dependency; a broken store must
		// not block opening the quiz.
		return run, false, nil
	}
	if ok {
		run.ApplyPersisted(snapshot)
	}
	return run, ok, nil
}

// SaveProgress snapshots the run into the progress store.
func (s *QuizService) SaveProgress(ctx context.Context, run *QuizRun) error {
	return s.progress.Save(ctx, run.Snapshot())
}

// ClearProgress forgets the stored snapshot for one quiz.
func (s *QuizService) ClearProgress(ctx context.Context, fileID string) error {
	return s.progress.Clear(ctx, fileID)
}

// ClearAllProgress wipes every stored snapshot.
func (s *QuizService) ClearAllProgress(ctx context.Context) error {
	return s.progress.ClearAll(ctx)
}

// Overview returns the stored snapshot per quiz, for aggregate progress bars
// on the selection menu without loading each quiz's content.
func (s *QuizService) Overview(ctx context.Context) (map[string]domain.ProgressSnapshot, error) {
	return s.progress.LoadAll(ctx)
}

// Trust exposes the trust score aggregator.
func (s *QuizService) Trust() *TrustService {
	return s.trust
}
