package question

import (
	"encoding/json"
	"fmt"

	"quizesch/internal/domain"
)

// taggedContent is the current quiz file format; legacy files are a bare
// question array.
type taggedContent struct {
	Tags      *domain.QuizTags  `json:"tags"`
	Questions []domain.Question `json:"questions"`
}

// ParseContent decodes raw quiz content into a Quiz, accepting both the
// legacy bare-array shape and the tagged object shape transparently.
func ParseContent(fileID string, raw []byte) (domain.Quiz, error) {
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err == nil {
		return domain.Quiz{FileID: fileID, Questions: questions}, nil
	}

	var tagged taggedContent
	if err := json.Unmarshal(raw, &tagged); err != nil {
		return domain.Quiz{}, fmt.Errorf("parse quiz %s: %w", fileID, err)
	}
	if tagged.Questions == nil {
		tagged.Questions = []domain.Question{}
	}
	return domain.Quiz{FileID: fileID, Tags: tagged.Tags, Questions: tagged.Questions}, nil
}
