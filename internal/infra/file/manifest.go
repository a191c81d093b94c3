package file

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"quizesch/internal/domain"
	"quizesch/internal/question"
)

// ManifestFileName is the default manifest location inside the data
// directory's parent.
const ManifestFileName = "quiz-manifest.json"

// untaggedValue marks quizzes in the legacy bare-array format.
const untaggedValue = "Untagged"

// BuildManifest scans dataDir for quiz JSON files and assembles the
// selection manifest. Legacy bare-array files are tagged Untagged; files that
// match neither format are skipped with a warning.
func BuildManifest(dataDir string) (domain.Manifest, error) {
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("scan data dir: %w", err)
	}

	manifest := domain.Manifest{Quizzes: []domain.ManifestEntry{}}
	subjects := map[string]bool{}
	types := map[string]bool{}
	years := map[string]bool{}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == ManifestFileName {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dataDir, name))
		if err != nil {
			log.Printf("manifest: skipping %s: %v", name, err)
			continue
		}
		quiz, err := question.ParseContent(name, raw)
		if err != nil {
			log.Printf("manifest: skipping %s: not a quiz file: %v", name, err)
			continue
		}

		tags := domain.QuizTags{Subject: untaggedValue, Type: untaggedValue, Year: untaggedValue}
		if quiz.Tags != nil {
			tags = *quiz.Tags
		} else if len(quiz.Questions) == 0 {
			log.Printf("manifest: skipping %s: no tags and no questions", name)
			continue
		}

		manifest.Quizzes = append(manifest.Quizzes, domain.ManifestEntry{FileName: name, Tags: tags})
		subjects[tags.Subject] = true
		types[tags.Type] = true
		years[tags.Year] = true
	}

	sort.Slice(manifest.Quizzes, func(i, j int) bool {
		return manifest.Quizzes[i].FileName < manifest.Quizzes[j].FileName
	})
	manifest.AvailableTags = domain.AvailableTags{
		Subject: sortedTags(subjects),
		Type:    sortedTags(types),
		Year:    sortedYears(years),
	}
	return manifest, nil
}

// WriteManifest builds the manifest and writes it to path.
func WriteManifest(dataDir, path string) (domain.Manifest, error) {
	manifest, err := BuildManifest(dataDir)
	if err != nil {
		return domain.Manifest{}, err
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return domain.Manifest{}, fmt.Errorf("write manifest: %w", err)
	}
	return manifest, nil
}

// LoadManifest reads a previously written manifest.
func LoadManifest(path string) (domain.Manifest, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return domain.Manifest{}, domain.ErrManifestNotFound
	}
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var manifest domain.Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return domain.Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	return manifest, nil
}

// sortedTags sorts alphabetically with Untagged forced last.
func sortedTags(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i] == untaggedValue {
			return false
		}
		if out[j] == untaggedValue {
			return true
		}
		return out[i] < out[j]
	})
	return out
}

// sortedYears sorts numerically descending with Untagged last.
func sortedYears(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i] == untaggedValue {
			return false
		}
		if out[j] == untaggedValue {
			return true
		}
		yi, ei := strconv.Atoi(out[i])
		yj, ej := strconv.Atoi(out[j])
		if ei == nil && ej == nil {
			return yi > yj
		}
		return out[i] > out[j]
	})
	return out
}
