package cli

import (
	"fmt"
	"log"
	"path/filepath"

	"quizesch/internal/config"
	"quizesch/internal/infra/file"
	"github.com/spf13/cobra"
)

// NewManifestCmd scans the quiz data directory and writes the manifest file
// the selection menu is built from.
func NewManifestCmd(configPath *string) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Rebuild the quiz manifest from the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Quiz.DataDir == "" {
				return fmt.Errorf("quiz data directory not configured")
			}

			target := outPath
			if target == "" {
				target = cfg.Quiz.ManifestPath
			}
			if target == "" {
				target = filepath.Join(cfg.Quiz.DataDir, "quiz-manifest.json")
			}

			manifest, err := file.WriteManifest(cfg.Quiz.DataDir, target)
			if err != nil {
				return err
			}
			log.Printf("manifest written to %s (%d quizzes)", target, len(manifest.Quizzes))
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "manifest output path (defaults next to the data)")
	return cmd
}
