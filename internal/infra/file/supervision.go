package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"quizesch/internal/domain"
)

// SupervisionInfo summarizes the supervision status of one quiz's questions.
func (l *QuizLoader) SupervisionInfo(ctx context.Context, fileID string) (domain.SupervisionSummary, error) {
	quiz, err := l.LoadQuiz(ctx, fileID)
	if err != nil {
		return domain.SupervisionSummary{}, err
	}
	return domain.Summarize(quiz.Questions), nil
}

// ApplySupervision rewrites local quiz files, marking every question whose
// vote tally has elevated trust as supervised. It returns the number of
// files updated. Tallies for unknown files or out-of-range indices are
// skipped with a warning.
func ApplySupervision(dataDir string, tallies map[domain.QuestionKey]domain.VoteTally) (int, error) {
	byFile := make(map[string][]int)
	for key, tally := range tallies {
		if !tally.Elevated() {
			continue
		}
		byFile[key.FileID] = append(byFile[key.FileID], key.Index)
	}

	updated := 0
	for fileID, indices := range byFile {
		changed, err := markSupervised(dataDir, fileID, indices)
		if err != nil {
			log.Printf("supervise: skipping %s: %v", fileID, err)
			continue
		}
		if changed {
			updated++
		}
	}
	return updated, nil
}

func markSupervised(dataDir, fileID string, indices []int) (bool, error) {
	if !validFileID(fileID) {
		return false, fmt.Errorf("invalid file id %q", fileID)
	}
	path := filepath.Join(dataDir, fileID)
	raw, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	// Preserve the file's shape: legacy files stay bare arrays, tagged files
	// stay objects.
	legacy := bytes.HasPrefix(bytes.TrimLeft(raw, " \t\r\n"), []byte("["))

	var questions []domain.Question
	var tagged struct {
		Tags      *domain.QuizTags  `json:"tags,omitempty"`
		Questions []domain.Question `json:"questions"`
	}
	if legacy {
		if err := json.Unmarshal(raw, &questions); err != nil {
			return false, err
		}
	} else {
		if err := json.Unmarshal(raw, &tagged); err != nil {
			return false, err
		}
		questions = tagged.Questions
	}

	changed := false
	for _, index := range indices {
		if index < 0 || index >= len(questions) {
			log.Printf("supervise: %s has no question %d", fileID, index)
			continue
		}
		if questions[index].Supervised != "yes" {
			questions[index].Supervised = "yes"
			changed = true
		}
	}
	if !changed {
		return false, nil
	}

	var out []byte
	if legacy {
		out, err = json.MarshalIndent(questions, "", "  ")
	} else {
		tagged.Questions = questions
		out, err = json.MarshalIndent(tagged, "", "  ")
	}
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
