package question

import (
	"encoding/json"
	"log"
	"strings"

	"quizesch/internal/domain"
)

type fillBlanksCodec struct{}

func (fillBlanksCodec) Decode(raw json.RawMessage) *domain.Answer {
	values := map[string]string{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &values)
	}
	for id, v := range values {
		values[id] = strings.TrimSpace(v)
	}
	return &domain.Answer{Kind: domain.AnswerBlanks, Blanks: values}
}

// IsCorrect compares the user's trimmed, lowercased value for every blank
// against the lowercased expected answer. The expected answer is not
// independently trimmed. Zero blanks is vacuously correct; a missing answer
// map is incorrect otherwise. Blanks without an identifier are skipped.
func (fillBlanksCodec) IsCorrect(q domain.Question, a *domain.Answer) bool {
	if len(q.Blanks) == 0 {
		return true
	}
	if a == nil || a.Kind != domain.AnswerBlanks {
		return false
	}
	for _, blank := range q.Blanks {
		if blank.Identifier == "" {
			log.Printf("question: skipping blank with empty identifier in %q", q.Title)
			continue
		}
		submitted := strings.ToLower(strings.TrimSpace(a.Blanks[blank.Identifier]))
		if submitted != strings.ToLower(blank.Answer) {
			return false
		}
	}
	return true
}

func (fillBlanksCodec) Outcomes(q domain.Question, a *domain.Answer) []Outcome {
	values := map[string]string{}
	if a != nil && a.Kind == domain.AnswerBlanks {
		values = a.Blanks
	}
	var outcomes []Outcome
	for _, blank := range q.Blanks {
		if blank.Identifier == "" {
			continue
		}
		submitted := strings.TrimSpace(values[blank.Identifier])
		switch {
		case strings.ToLower(submitted) == strings.ToLower(blank.Answer):
			outcomes = append(outcomes, Outcome{Identifier: blank.Identifier, Mark: MarkCorrect})
		case submitted == "":
			outcomes = append(outcomes, Outcome{Identifier: blank.Identifier, Mark: MarkMissed, Expected: blank.Answer})
		default:
			outcomes = append(outcomes, Outcome{Identifier: blank.Identifier, Mark: MarkIncorrectSelected, Expected: blank.Answer})
		}
	}
	return outcomes
}
