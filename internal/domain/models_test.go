package domain_test

import (
	"encoding/json"
	"testing"

	"quizesch/internal/domain"
)

func TestBlankListAcceptsArrayAndSingleObject(t *testing.T) {
	var q domain.Question
	single := []byte(`{"question_type":"fill_the_blanks","blank":{"identifier":"x","answer":"one"}}`)
	if err := json.Unmarshal(single, &q); err != nil {
		t.Fatalf("single object form failed: %v", err)
	}
	if len(q.Blanks) != 1 || q.Blanks[0].Identifier != "x" {
		t.Fatalf("unexpected blanks: %+v", q.Blanks)
	}

	var q2 domain.Question
	array := []byte(`{"question_type":"fill_the_blanks","blank":[{"identifier":"a","answer":"1"},{"identifier":"b","answer":"2"}]}`)
	if err := json.Unmarshal(array, &q2); err != nil {
		t.Fatalf("array form failed: %v", err)
	}
	if len(q2.Blanks) != 2 || q2.Blanks[1].Identifier != "b" {
		t.Fatalf("unexpected blanks: %+v", q2.Blanks)
	}
}

func TestDropTargets(t *testing.T) {
	q := domain.Question{
		Type: domain.DragDrop,
		Text: "Match [c1] with [c3], ignore the rest.",
		Choices: []domain.Choice{
			{Identifier: "c1", Label: "alpha"},
			{Identifier: "c2", Label: "decoy"},
			{Identifier: "c3", Label: "gamma"},
		},
	}
	targets := q.DropTargets()
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %v", targets)
	}
	if targets["c1"] != "c1" || targets["c3"] != "c3" {
		t.Fatalf("targets should map to themselves: %v", targets)
	}
}

func TestDropTargetsOnlyForDragDrop(t *testing.T) {
	q := domain.Question{
		Type:    domain.MultiChoice,
		Text:    "[c1] is literal text here",
		Choices: []domain.Choice{{Identifier: "c1", Label: "x"}},
	}
	if targets := q.DropTargets(); len(targets) != 0 {
		t.Fatalf("non drag-n-drop questions have no targets, got %v", targets)
	}
}

func TestSnapshotNormalizeRepadsArrays(t *testing.T) {
	s := domain.ProgressSnapshot{
		FileID:        "quiz.json",
		QuestionCount: 5,
		CurrentIndex:  9,
		Answers:       []*domain.Answer{{Kind: domain.AnswerSelection, Selection: []string{"a"}}},
		Evaluated:     []bool{true},
	}
	s.Normalize(5)

	if len(s.Answers) != 5 || len(s.Evaluated) != 5 {
		t.Fatalf("arrays not repadded: %d answers, %d flags", len(s.Answers), len(s.Evaluated))
	}
	if s.Answers[0] == nil || !s.Evaluated[0] {
		t.Fatal("existing entries must survive repadding")
	}
	if s.Answers[4] != nil || s.Evaluated[4] {
		t.Fatal("padding must be empty")
	}
	if s.CurrentIndex != 4 {
		t.Fatalf("index should clamp to last question, got %d", s.CurrentIndex)
	}
}

func TestSnapshotNormalizeTruncates(t *testing.T) {
	s := domain.ProgressSnapshot{
		Answers:      make([]*domain.Answer, 8),
		Evaluated:    make([]bool, 8),
		CurrentIndex: -2,
	}
	s.Normalize(3)
	if len(s.Answers) != 3 || len(s.Evaluated) != 3 {
		t.Fatal("oversized arrays should be truncated")
	}
	if s.CurrentIndex != 0 {
		t.Fatalf("negative index should clamp to 0, got %d", s.CurrentIndex)
	}
}

func TestSnapshotNormalizeDropsMismatchedShuffleOrder(t *testing.T) {
	three := []domain.Question{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	s := domain.ProgressSnapshot{
		QuestionCount: 2,
		Answers:       make([]*domain.Answer, 2),
		Evaluated:     make([]bool, 2),
		Shuffled:      three,
		Original:      three,
	}
	s.Normalize(2)
	if s.Shuffled != nil || s.Original != nil {
		t.Fatalf("oversized shuffle order should be dropped, got %d/%d questions",
			len(s.Shuffled), len(s.Original))
	}

	// A matching order survives.
	two := []domain.Question{{Title: "a"}, {Title: "b"}}
	s = domain.ProgressSnapshot{
		QuestionCount: 2,
		Shuffled:      two,
		Original:      two,
	}
	s.Normalize(2)
	if len(s.Shuffled) != 2 || len(s.Original) != 2 {
		t.Fatal("well-formed shuffle order must survive Normalize")
	}

	// A one-sided order is as useless as an oversized one.
	s = domain.ProgressSnapshot{QuestionCount: 2, Shuffled: two}
	s.Normalize(2)
	if s.Shuffled != nil {
		t.Fatal("shuffle order without the original sequence should be dropped")
	}
}

func TestSupervisionSummarize(t *testing.T) {
	questions := []domain.Question{
		{Supervised: "yes"},
		{Supervised: "Yes "},
		{Supervised: "generated"},
		{Supervised: ""},
		{Supervised: "no"},
	}
	got := domain.Summarize(questions)
	want := domain.SupervisionSummary{Total: 5, Supervised: 2, Generated: 1, Unsupervised: 2}
	if got != want {
		t.Fatalf("Summarize = %+v, want %+v", got, want)
	}
}
