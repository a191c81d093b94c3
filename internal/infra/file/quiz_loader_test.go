package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quizesch/internal/domain"
)

func writeQuizFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const taggedQuiz = `{
  "tags": {"subject": "history", "type": "exam", "year": "2024"},
  "questions": [
    {"question_type": "multi_choice", "question_title": "q1", "options": {"a": "1", "b": "2"}, "answer": ["a"]}
  ]
}`

const legacyQuiz = `[
  {"question_type": "multi_choice", "question_title": "old", "options": {"a": "1"}, "answer": ["a"]}
]`

func TestLoadQuizTaggedAndLegacy(t *testing.T) {
	dir := t.TempDir()
	writeQuizFile(t, dir, "tagged.json", taggedQuiz)
	writeQuizFile(t, dir, "legacy.json", legacyQuiz)
	loader := NewQuizLoader(dir)

	quiz, err := loader.LoadQuiz(context.Background(), "tagged.json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if quiz.Tags == nil || quiz.Tags.Subject != "history" || len(quiz.Questions) != 1 {
		t.Fatalf("tagged quiz mangled: %+v", quiz)
	}

	quiz, err = loader.LoadQuiz(context.Background(), "legacy.json")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if quiz.Tags != nil || len(quiz.Questions) != 1 {
		t.Fatalf("legacy quiz mangled: %+v", quiz)
	}
}

func TestLoadQuizMissingFile(t *testing.T) {
	loader := NewQuizLoader(t.TempDir())
	if _, err := loader.LoadQuiz(context.Background(), "ghost.json"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestLoadQuizRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	writeQuizFile(t, dir, "real.json", legacyQuiz)
	loader := NewQuizLoader(filepath.Join(dir, "sub"))

	for _, fileID := range []string{"../real.json", "/etc/passwd", "", ".hidden.json", "a/b.json"} {
		if _, err := loader.LoadQuiz(context.Background(), fileID); !errors.Is(err, domain.ErrQuizNotFound) {
			t.Fatalf("file id %q should be rejected, got %v", fileID, err)
		}
	}
}

func TestSupervisionInfo(t *testing.T) {
	dir := t.TempDir()
	writeQuizFile(t, dir, "mixed.json", `[
  {"question_type": "multi_choice", "supervised": "yes"},
  {"question_type": "multi_choice", "supervised": "generated"},
  {"question_type": "multi_choice"}
]`)
	loader := NewQuizLoader(dir)

	summary, err := loader.SupervisionInfo(context.Background(), "mixed.json")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	want := domain.SupervisionSummary{Total: 3, Supervised: 1, Generated: 1, Unsupervised: 1}
	if summary != want {
		t.Fatalf("summary = %+v, want %+v", summary, want)
	}
}
