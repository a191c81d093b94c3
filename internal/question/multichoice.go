package question

import (
	"encoding/json"
	"sort"

	"quizesch/internal/domain"
)

type multiChoiceCodec struct{}

func (multiChoiceCodec) Decode(raw json.RawMessage) *domain.Answer {
	var selection []string
	if len(raw) > 0 {
		// Partial or malformed payloads decode to an empty selection.
		_ = json.Unmarshal(raw, &selection)
	}
	if selection == nil {
		selection = []string{}
	}
	return &domain.Answer{Kind: domain.AnswerSelection, Selection: selection}
}

// IsCorrect requires set equality between the selected keys and the correct
// keys, ignoring order and duplicates.
func (multiChoiceCodec) IsCorrect(q domain.Question, a *domain.Answer) bool {
	correct := uniqueSorted(q.Answer)
	var selected []string
	if a != nil && a.Kind == domain.AnswerSelection {
		selected = uniqueSorted(a.Selection)
	}
	if len(selected) != len(correct) {
		return false
	}
	for i := range correct {
		if selected[i] != correct[i] {
			return false
		}
	}
	return true
}

func (multiChoiceCodec) Outcomes(q domain.Question, a *domain.Answer) []Outcome {
	correct := make(map[string]bool, len(q.Answer))
	for _, key := range q.Answer {
		correct[key] = true
	}
	selected := make(map[string]bool)
	if a != nil && a.Kind == domain.AnswerSelection {
		for _, key := range a.Selection {
			selected[key] = true
		}
	}

	keys := make([]string, 0, len(q.Options))
	for key := range q.Options {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var outcomes []Outcome
	for _, key := range keys {
		switch {
		case selected[key] && correct[key]:
			outcomes = append(outcomes, Outcome{Identifier: key, Mark: MarkCorrect})
		case selected[key] && !correct[key]:
			outcomes = append(outcomes, Outcome{Identifier: key, Mark: MarkIncorrectSelected})
		case !selected[key] && correct[key]:
			outcomes = append(outcomes, Outcome{Identifier: key, Mark: MarkMissed})
		}
	}
	return outcomes
}

func uniqueSorted(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
