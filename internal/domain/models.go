package domain

import (
	"encoding/json"
	"strings"
)

// QuestionType discriminates the supported question variants. Values match
// the question_type field of the quiz content files.
type QuestionType string

const (
	MultiChoice QuestionType = "multi_choice"
	FillBlanks  QuestionType = "fill_the_blanks"
	DragDrop    QuestionType = "drag_n_drop"
)

// Blank is one gap in a fill-the-blanks question. The identifier names the
// [identifier] placeholder inside the question text.
type Blank struct {
	Identifier string `json:"identifier"`
	Answer     string `json:"answer"`
}

// BlankList tolerates content files that store a single blank as a bare
// object instead of a one-element array.
type BlankList []Blank

func (b *BlankList) UnmarshalJSON(data []byte) error {
	var list []Blank
	if err := json.Unmarshal(data, &list); err == nil {
		*b = list
		return nil
	}
	var single Blank
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*b = BlankList{single}
	return nil
}

// Choice is one draggable label in a drag-and-drop question. A choice whose
// [identifier] placeholder appears in the question text is also a drop target.
type Choice struct {
	Identifier string `json:"identifier"`
	Label      string `json:"label"`
}

// Question is a single quiz question as loaded from content. Only the fields
// for its QuestionType are populated.
type Question struct {
	Type       QuestionType      `json:"question_type"`
	Title      string            `json:"question_title,omitempty"`
	Options    map[string]string `json:"options,omitempty"`
	Answer     []string          `json:"answer,omitempty"`
	Text       string            `json:"text,omitempty"`
	Blanks     BlankList         `json:"blank,omitempty"`
	Choices    []Choice          `json:"choices,omitempty"`
	Supervised string            `json:"supervised,omitempty"`
}

// DropTargets returns the correct target→choice mapping for a drag-and-drop
// question: each choice whose placeholder occurs in the text belongs at the
// slot carrying its own identifier.
func (q Question) DropTargets() map[string]string {
	mapping := make(map[string]string)
	if q.Type != DragDrop {
		return mapping
	}
	for _, choice := range q.Choices {
		if choice.Identifier == "" {
			continue
		}
		if strings.Contains(q.Text, "["+choice.Identifier+"]") {
			mapping[choice.Identifier] = choice.Identifier
		}
	}
	return mapping
}

// QuizTags classify a quiz for the selection menu.
type QuizTags struct {
	Subject string `json:"subject"`
	Type    string `json:"type"`
	Year    string `json:"year"`
}

// Quiz is a loaded quiz: its content identity plus the ordered questions.
type Quiz struct {
	FileID    string     `json:"fileId"`
	Tags      *QuizTags  `json:"tags,omitempty"`
	Questions []Question `json:"questions"`
}

// AnswerKind tags the representation carried by an Answer.
type AnswerKind string

const (
	// AnswerSelection holds the selected option keys of a multi-choice question.
	AnswerSelection AnswerKind = "selection"
	// AnswerBlanks maps blank identifiers to the submitted text.
	AnswerBlanks AnswerKind = "blanks"
	// AnswerDrops maps drop-target identifiers to the dropped choice identifier.
	AnswerDrops AnswerKind = "drops"
)

// Answer is the polymorphic user answer for one question. Exactly the field
// matching Kind is populated; a nil *Answer means the question is unanswered.
type Answer struct {
	Kind      AnswerKind        `json:"kind"`
	Selection []string          `json:"selection,omitempty"`
	Blanks    map[string]string `json:"blanks,omitempty"`
	Drops     map[string]string `json:"drops,omitempty"`
}

// KindFor returns the answer representation a question type expects.
func KindFor(t QuestionType) AnswerKind {
	switch t {
	case FillBlanks:
		return AnswerBlanks
	case DragDrop:
		return AnswerDrops
	default:
		return AnswerSelection
	}
}

// EmptyAnswer returns the type-appropriate cleared answer: an empty mapping
// for blanks and drops, nil for multi-choice.
func EmptyAnswer(t QuestionType) *Answer {
	switch t {
	case FillBlanks:
		return &Answer{Kind: AnswerBlanks, Blanks: map[string]string{}}
	case DragDrop:
		return &Answer{Kind: AnswerDrops, Drops: map[string]string{}}
	default:
		return nil
	}
}

// Matches reports whether the answer's representation fits the question type.
func (a *Answer) Matches(t QuestionType) bool {
	if a == nil {
		return true
	}
	return a.Kind == KindFor(t)
}

// ProgressSummary buckets evaluated questions for progress display. It only
// counts questions whose evaluated flag is set, unlike the final score.
type ProgressSummary struct {
	Correct        int `json:"correct"`
	Incorrect      int `json:"incorrect"`
	TotalEvaluated int `json:"totalEvaluated"`
	TotalQuestions int `json:"totalQuestions"`
}

// ProgressSnapshot is the serialized capture of a quiz run. JSON keys mirror
// the on-disk progress document format.
type ProgressSnapshot struct {
	FileID        string          `json:"quizFile"`
	QuestionCount int             `json:"questionsLength"`
	CurrentIndex  int             `json:"currentQuestionIndex"`
	Answers       []*Answer       `json:"userAnswers"`
	Evaluated     []bool          `json:"evaluatedQuestions"`
	Summary       ProgressSummary `json:"aggregateProgress"`
	SavedAt       int64           `json:"timestamp"` // epoch millis
	Shuffled      []Question      `json:"shuffledQuestions,omitempty"`
	Original      []Question      `json:"originalQuestionsOrder,omitempty"`
}

// Normalize re-pads or truncates the answer and evaluated arrays so their
// lengths match the freshly loaded quiz. Storage can be hand-edited or
// corrupted; the run state engine must never see mismatched lengths.
func (s *ProgressSnapshot) Normalize(expected int) {
	if len(s.Answers) != expected {
		answers := make([]*Answer, expected)
		copy(answers, s.Answers)
		s.Answers = answers
	}
	if len(s.Evaluated) != expected {
		evaluated := make([]bool, expected)
		copy(evaluated, s.Evaluated)
		s.Evaluated = evaluated
	}
	// A remembered shuffle order must describe exactly the loaded quiz;
	// mismatched orders are dropped so the run falls back to the original
	// sequence.
	if len(s.Shuffled) != expected || len(s.Original) != expected {
		s.Shuffled = nil
		s.Original = nil
	}
	if s.CurrentIndex < 0 {
		s.CurrentIndex = 0
	}
	if expected > 0 && s.CurrentIndex >= expected {
		s.CurrentIndex = expected - 1
	}
}

// Manifest lists the quizzes available for selection plus the tag values seen
// across them.
type Manifest struct {
	Quizzes       []ManifestEntry `json:"quizzes"`
	AvailableTags AvailableTags   `json:"availableTags"`
}

// ManifestEntry is one selectable quiz file.
type ManifestEntry struct {
	FileName string   `json:"fileName"`
	Tags     QuizTags `json:"tags"`
}

// AvailableTags aggregates the distinct tag values for filter UIs.
type AvailableTags struct {
	Subject []string `json:"subject"`
	Type    []string `json:"type"`
	Year    []string `json:"year"`
}

// SupervisionSummary counts the supervision status of a quiz's questions.
type SupervisionSummary struct {
	Total        int `json:"total"`
	Supervised   int `json:"supervised"`
	Generated    int `json:"generated"`
	Unsupervised int `json:"unsupervised"`
}

// Summarize buckets questions by their supervised marker.
func Summarize(questions []Question) SupervisionSummary {
	summary := SupervisionSummary{Total: len(questions)}
	for _, q := range questions {
		switch strings.ToLower(strings.TrimSpace(q.Supervised)) {
		case "yes":
			summary.Supervised++
		case "generated":
			summary.Generated++
		default:
			summary.Unsupervised++
		}
	}
	return summary
}
