// Package question implements the per-type answer codecs: decoding raw
// interaction payloads into canonical answers, judging correctness, and
// producing per-element evaluation outcomes for rendering.
package question

import (
	"encoding/json"

	"quizesch/internal/domain"
)

// Mark is the evaluation outcome of a single element (option, blank, or
// drop target).
type Mark string

const (
	// MarkCorrect: present/selected and right.
	MarkCorrect Mark = "correct"
	// MarkIncorrectSelected: present/selected but wrong.
	MarkIncorrectSelected Mark = "incorrect"
	// MarkMissed: should be present but absent or not selected.
	MarkMissed Mark = "missed"
)

// Outcome reports the evaluation of one element of a question.
type Outcome struct {
	Identifier string `json:"identifier"`
	Mark       Mark   `json:"mark"`
	Expected   string `json:"expected,omitempty"`
}

// Codec is the uniform per-question-type contract.
type Codec interface {
	// Decode extracts the canonical answer from a raw interaction payload.
	// It tolerates missing or partial input and never fails; garbage decodes
	// to the empty answer of the right kind.
	Decode(raw json.RawMessage) *domain.Answer
	// IsCorrect judges the answer against the question.
	IsCorrect(q domain.Question, a *domain.Answer) bool
	// Outcomes returns per-element marks for rendering an evaluation.
	Outcomes(q domain.Question, a *domain.Answer) []Outcome
}

var codecs = map[domain.QuestionType]Codec{
	domain.MultiChoice: multiChoiceCodec{},
	domain.FillBlanks:  fillBlanksCodec{},
	domain.DragDrop:    dragDropCodec{},
}

// For returns the codec handling the given question type.
func For(t domain.QuestionType) (Codec, bool) {
	c, ok := codecs[t]
	return c, ok
}

// IsCorrect dispatches to the question's codec. Unknown types are never
// correct.
func IsCorrect(q domain.Question, a *domain.Answer) bool {
	c, ok := codecs[q.Type]
	if !ok {
		return false
	}
	return c.IsCorrect(q, a)
}

// Decode dispatches to the codec for the question type; unknown types yield
// an unanswered (nil) result.
func Decode(t domain.QuestionType, raw json.RawMessage) *domain.Answer {
	c, ok := codecs[t]
	if !ok {
		return nil
	}
	return c.Decode(raw)
}

// Outcomes dispatches to the question's codec; unknown types yield none.
func Outcomes(q domain.Question, a *domain.Answer) []Outcome {
	c, ok := codecs[q.Type]
	if !ok {
		return nil
	}
	return c.Outcomes(q, a)
}
