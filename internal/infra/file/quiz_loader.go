// Package file serves quiz content, the manifest, and the supervision sweep
// from a local data directory of JSON quiz files.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quizesch/internal/domain"
	"quizesch/internal/question"
)

// QuizLoader reads quiz JSON files from a data directory. File ids are plain
// file names; anything that looks like a path is rejected.
type QuizLoader struct {
	dataDir string
}

func NewQuizLoader(dataDir string) *QuizLoader {
	return &QuizLoader{dataDir: dataDir}
}

func (l *QuizLoader) LoadQuiz(_ context.Context, fileID string) (domain.Quiz, error) {
	if !validFileID(fileID) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	raw, err := os.ReadFile(filepath.Join(l.dataDir, fileID))
	if os.IsNotExist(err) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("read quiz %s: %w", fileID, err)
	}
	return question.ParseContent(fileID, raw)
}

func validFileID(fileID string) bool {
	if fileID == "" || fileID != filepath.Base(fileID) {
		return false
	}
	return !strings.HasPrefix(fileID, ".")
}
