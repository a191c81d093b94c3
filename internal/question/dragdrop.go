package question

import (
	"encoding/json"
	"sort"

	"quizesch/internal/domain"
)

type dragDropCodec struct{}

func (dragDropCodec) Decode(raw json.RawMessage) *domain.Answer {
	drops := map[string]string{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &drops)
	}
	return &domain.Answer{Kind: domain.AnswerDrops, Drops: drops}
}

// IsCorrect requires the submitted mapping to cover exactly the question's
// drop targets with every value matching. A missing answer is correct only
// when the question has no targets at all.
func (dragDropCodec) IsCorrect(q domain.Question, a *domain.Answer) bool {
	targets := q.DropTargets()
	if a == nil || a.Kind != domain.AnswerDrops {
		return len(targets) == 0
	}
	matched := 0
	for targetID, choiceID := range a.Drops {
		if want, ok := targets[targetID]; ok && want == choiceID {
			matched++
		}
	}
	return matched == len(targets) && len(a.Drops) == len(targets)
}

func (dragDropCodec) Outcomes(q domain.Question, a *domain.Answer) []Outcome {
	targets := q.DropTargets()
	labels := make(map[string]string, len(q.Choices))
	for _, choice := range q.Choices {
		labels[choice.Identifier] = choice.Label
	}
	drops := map[string]string{}
	if a != nil && a.Kind == domain.AnswerDrops {
		drops = a.Drops
	}

	ids := make([]string, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var outcomes []Outcome
	for _, targetID := range ids {
		want := targets[targetID]
		dropped, ok := drops[targetID]
		switch {
		case ok && dropped == want:
			outcomes = append(outcomes, Outcome{Identifier: targetID, Mark: MarkCorrect})
		case ok:
			outcomes = append(outcomes, Outcome{Identifier: targetID, Mark: MarkIncorrectSelected, Expected: labels[want]})
		default:
			outcomes = append(outcomes, Outcome{Identifier: targetID, Mark: MarkMissed, Expected: labels[want]})
		}
	}
	return outcomes
}
