package app

import (
	"math/rand"
	"sync"
	"time"

	"quizesch/internal/domain"
	"quizesch/internal/question"
)

// QuizRun owns the mutable state of one loaded quiz: question order, cursor,
// answers, evaluation flags, and score. The zero value (or NewQuizRun) is the
// unloaded state; Load and Unload are the lifecycle boundaries. Operations
// never fail on out-of-range input: they clamp, no-op, or report a boolean.
type QuizRun struct {
	mu            sync.RWMutex
	fileID        string
	questions     []domain.Question
	originalOrder []domain.Question
	currentIndex  int
	answers       []*domain.Answer
	evaluated     []bool
	score         int
	shuffled      bool

	now         func() time.Time
	rnd         *rand.Rand
	subscribers map[chan domain.ProgressSummary]struct{}
}

func NewQuizRun() *QuizRun {
	return NewQuizRunWithClock(time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewQuizRunWithClock allows deterministic timestamps and shuffles in tests.
func NewQuizRunWithClock(now func() time.Time, rnd *rand.Rand) *QuizRun {
	return &QuizRun{
		now:         now,
		rnd:         rnd,
		subscribers: make(map[chan domain.ProgressSummary]struct{}),
	}
}

// Load ingests a question sequence and resets all run state. An empty quiz
// is legal.
func (r *QuizRun) Load(questions []domain.Question, fileID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.originalOrder = append([]domain.Question(nil), questions...)
	r.questions = append([]domain.Question(nil), questions...)
	r.fileID = fileID
	r.shuffled = false
	r.resetRunStateLocked()
	r.broadcastLocked()
}

// Unload clears everything back to the unloaded state.
func (r *QuizRun) Unload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fileID = ""
	r.questions = nil
	r.originalOrder = nil
	r.answers = nil
	r.evaluated = nil
	r.currentIndex = 0
	r.score = 0
	r.shuffled = false
	r.broadcastLocked()
}

// Loaded reports whether a quiz with at least one question is loaded.
func (r *QuizRun) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.questions) > 0
}

// ApplyPersisted overwrites cursor, answers, and evaluation flags from a
// snapshot. The caller must have validated shape and length beforehand; the
// run does not re-validate. A remembered shuffle order replaces the question
// sequences.
func (r *QuizRun) ApplyPersisted(s domain.ProgressSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.currentIndex = s.CurrentIndex
	r.answers = s.Answers
	if s.Evaluated != nil {
		r.evaluated = s.Evaluated
	} else {
		r.evaluated = make([]bool, len(r.questions))
	}
	if len(s.Shuffled) > 0 && len(s.Original) > 0 {
		r.questions = s.Shuffled
		r.originalOrder = s.Original
		r.shuffled = true
	}
	r.broadcastLocked()
}

func (r *QuizRun) resetRunStateLocked() {
	n := len(r.questions)
	r.currentIndex = 0
	r.answers = make([]*domain.Answer, n)
	r.evaluated = make([]bool, n)
	r.score = 0
}

// FileID returns the persistence key of the loaded quiz.
func (r *QuizRun) FileID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fileID
}

// Len returns the number of loaded questions.
func (r *QuizRun) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.questions)
}

// CurrentIndex returns the cursor position.
func (r *QuizRun) CurrentIndex() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentIndex
}

// CurrentQuestion returns the question under the cursor, or ok=false when
// nothing is loaded.
func (r *QuizRun) CurrentQuestion() (domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.currentIndex < 0 || r.currentIndex >= len(r.questions) {
		return domain.Question{}, false
	}
	return r.questions[r.currentIndex], true
}

// Questions returns a copy of the current question order.
func (r *QuizRun) Questions() []domain.Question {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Question(nil), r.questions...)
}

// CurrentAnswer returns the answer stored for the cursor question.
func (r *QuizRun) CurrentAnswer() *domain.Answer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.currentIndex < 0 || r.currentIndex >= len(r.answers) {
		return nil
	}
	return r.answers[r.currentIndex]
}

// AnswerAt returns the stored answer at index, nil when out of range.
func (r *QuizRun) AnswerAt(index int) *domain.Answer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.answers) {
		return nil
	}
	return r.answers[index]
}

// CurrentEvaluated reports whether the cursor question has been evaluated.
func (r *QuizRun) CurrentEvaluated() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.currentIndex < 0 || r.currentIndex >= len(r.evaluated) {
		return false
	}
	return r.evaluated[r.currentIndex]
}

// SaveAnswer stores an answer at index and clears its evaluated flag. An
// out-of-range index is a no-op.
func (r *QuizRun) SaveAnswer(index int, answer *domain.Answer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.answers) {
		return
	}
	r.answers[index] = answer
	r.evaluated[index] = false
	r.broadcastLocked()
}

// GoNext advances the cursor, reporting whether it moved.
func (r *QuizRun) GoNext() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentIndex < len(r.questions)-1 {
		r.currentIndex++
		return true
	}
	return false
}

// GoPrevious retreats the cursor, reporting whether it moved.
func (r *QuizRun) GoPrevious() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentIndex > 0 {
		r.currentIndex--
		return true
	}
	return false
}

// SetCurrentIndex jumps to index; invalid targets are rejected without
// mutation.
func (r *QuizRun) SetCurrentIndex(index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.questions) {
		return false
	}
	r.currentIndex = index
	return true
}

// ToggleShuffle switches between a fresh random permutation of the original
// order and the original order itself. Both directions reset the run state:
// question identity is positional, so in-progress answers cannot survive a
// reorder. Returns the new shuffled flag.
func (r *QuizRun) ToggleShuffle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.shuffled {
		r.questions = append([]domain.Question(nil), r.originalOrder...)
		r.shuffled = false
	} else {
		shuffled := append([]domain.Question(nil), r.originalOrder...)
		// Fisher-Yates over the copy.
		for i := len(shuffled) - 1; i >= 1; i-- {
			j := r.rnd.Intn(i + 1)
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		}
		r.questions = shuffled
		r.shuffled = true
	}
	r.resetRunStateLocked()
	r.broadcastLocked()
	return r.shuffled
}

// Shuffled reports whether the question order is currently shuffled.
func (r *QuizRun) Shuffled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.shuffled
}

// ResetCurrentAnswer clears the cursor question's answer to its
// type-appropriate empty value and clears its evaluated flag.
func (r *QuizRun) ResetCurrentAnswer() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentIndex < 0 || r.currentIndex >= len(r.questions) {
		return
	}
	r.answers[r.currentIndex] = domain.EmptyAnswer(r.questions[r.currentIndex].Type)
	r.evaluated[r.currentIndex] = false
	r.broadcastLocked()
}

// ResetAll reinitializes answers, flags, score, and cursor without touching
// the question content.
func (r *QuizRun) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetRunStateLocked()
	r.broadcastLocked()
}

// MarkCurrentEvaluated flags the cursor question as evaluated. Idempotent.
func (r *QuizRun) MarkCurrentEvaluated() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.currentIndex < 0 || r.currentIndex >= len(r.evaluated) {
		return
	}
	r.evaluated[r.currentIndex] = true
	r.broadcastLocked()
}

// ComputeFinalScore counts every question whose stored answer is correct,
// evaluated or not, and stores the result. It answers "what would you score
// if submitted now" and is safe to call repeatedly.
func (r *QuizRun) ComputeFinalScore() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	score := 0
	for i, q := range r.questions {
		if question.IsCorrect(q, r.answers[i]) {
			score++
		}
	}
	r.score = score
	return score
}

// Score returns the last computed final score.
func (r *QuizRun) Score() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.score
}

// ProgressSummary buckets only the questions the user has actually checked
// (evaluated flag set), unlike ComputeFinalScore which considers everything.
func (r *QuizRun) ProgressSummary() domain.ProgressSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.progressSummaryLocked()
}

func (r *QuizRun) progressSummaryLocked() domain.ProgressSummary {
	summary := domain.ProgressSummary{TotalQuestions: len(r.questions)}
	for i, q := range r.questions {
		if i >= len(r.evaluated) || !r.evaluated[i] {
			continue
		}
		summary.TotalEvaluated++
		if question.IsCorrect(q, r.answers[i]) {
			summary.Correct++
		} else {
			summary.Incorrect++
		}
	}
	return summary
}

// Snapshot captures the run for persistence. The shuffle order is included
// so a restored session keeps the order the user was working through.
func (r *QuizRun) Snapshot() domain.ProgressSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := domain.ProgressSnapshot{
		FileID:        r.fileID,
		QuestionCount: len(r.questions),
		CurrentIndex:  r.currentIndex,
		Answers:       append([]*domain.Answer(nil), r.answers...),
		Evaluated:     append([]bool(nil), r.evaluated...),
		Summary:       r.progressSummaryLocked(),
		SavedAt:       r.now().UnixMilli(),
	}
	if r.shuffled {
		snapshot.Shuffled = append([]domain.Question(nil), r.questions...)
		snapshot.Original = append([]domain.Question(nil), r.originalOrder...)
	}
	return snapshot
}

// Subscribe returns a channel receiving progress summaries after every
// state change. The caller must invoke the cancel function to avoid leaks.
func (r *QuizRun) Subscribe() (<-chan domain.ProgressSummary, func()) {
	ch := make(chan domain.ProgressSummary, 8)

	r.mu.Lock()
	r.subscribers[ch] = struct{}{}
	initial := r.progressSummaryLocked()
	r.mu.Unlock()

	ch <- initial

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

func (r *QuizRun) broadcastLocked() {
	if len(r.subscribers) == 0 {
		return
	}
	summary := r.progressSummaryLocked()
	for ch := range r.subscribers {
		select {
		case ch <- summary:
		default:
			// Drop the stale update so a slow consumer cannot block state
			// changes; the latest summary supersedes it anyway.
			select {
			case <-ch:
			default:
			}
			ch <- summary
		}
	}
}
