package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"quizesch/internal/domain"
)

func elevatedTally() domain.VoteTally {
	return domain.VoteTally{Positive: 10, Total: 11} // 90.9%, 11 votes
}

func TestApplySupervisionMarksQuestions(t *testing.T) {
	dir := t.TempDir()
	writeQuizFile(t, dir, "tagged.json", taggedQuiz)

	tallies := map[domain.QuestionKey]domain.VoteTally{
		{FileID: "tagged.json", Index: 0}: elevatedTally(),
	}
	updated, err := ApplySupervision(dir, tallies)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 file updated, got %d", updated)
	}

	quiz, err := NewQuizLoader(dir).LoadQuiz(context.Background(), "tagged.json")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if quiz.Questions[0].Supervised != "yes" {
		t.Fatalf("question not marked: %+v", quiz.Questions[0])
	}
	if quiz.Tags == nil || quiz.Tags.Subject != "history" {
		t.Fatal("sweep must preserve the tags block")
	}
}

func TestApplySupervisionPreservesLegacyShape(t *testing.T) {
	dir := t.TempDir()
	writeQuizFile(t, dir, "legacy.json", legacyQuiz)

	tallies := map[domain.QuestionKey]domain.VoteTally{
		{FileID: "legacy.json", Index: 0}: elevatedTally(),
	}
	if _, err := ApplySupervision(dir, tallies); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "legacy.json"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		t.Fatal("legacy files must stay bare arrays")
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil {
		t.Fatalf("rewritten file unreadable: %v", err)
	}
	if questions[0].Supervised != "yes" {
		t.Fatalf("question not marked: %+v", questions[0])
	}
}

func TestApplySupervisionSkipsWeakTallies(t *testing.T) {
	dir := t.TempDir()
	writeQuizFile(t, dir, "tagged.json", taggedQuiz)

	weak := []domain.VoteTally{
		{Positive: 7, Total: 10}, // too few votes
		{Positive: 7, Total: 11}, // 63.6%, too low
	}
	for _, tally := range weak {
		updated, err := ApplySupervision(dir, map[domain.QuestionKey]domain.VoteTally{
			{FileID: "tagged.json", Index: 0}: tally,
		})
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if updated != 0 {
			t.Fatalf("weak tally %+v must not promote", tally)
		}
	}

	quiz, _ := NewQuizLoader(dir).LoadQuiz(context.Background(), "tagged.json")
	if quiz.Questions[0].Supervised != "" {
		t.Fatalf("question wrongly promoted: %+v", quiz.Questions[0])
	}
}

func TestApplySupervisionToleratesUnknownTargets(t *testing.T) {
	dir := t.TempDir()
	writeQuizFile(t, dir, "tagged.json", taggedQuiz)

	tallies := map[domain.QuestionKey]domain.VoteTally{
		{FileID: "ghost.json", Index: 0}:  elevatedTally(),
		{FileID: "tagged.json", Index: 9}: elevatedTally(),
	}
	updated, err := ApplySupervision(dir, tallies)
	if err != nil {
		t.Fatalf("sweep should log and continue, got %v", err)
	}
	if updated != 0 {
		t.Fatalf("nothing should have changed, updated %d", updated)
	}
}

func TestApplySupervisionIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeQuizFile(t, dir, "tagged.json", taggedQuiz)

	tallies := map[domain.QuestionKey]domain.VoteTally{
		{FileID: "tagged.json", Index: 0}: elevatedTally(),
	}
	if _, err := ApplySupervision(dir, tallies); err != nil {
		t.Fatalf("first sweep failed: %v", err)
	}
	updated, err := ApplySupervision(dir, tallies)
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if updated != 0 {
		t.Fatalf("already supervised files must not count as updated, got %d", updated)
	}
}
