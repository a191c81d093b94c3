package cli

import (
	"fmt"
	"log"

	"quizesch/internal/config"
	"quizesch/internal/infra/file"
	redisinfra "quizesch/internal/infra/redis"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewSuperviseCmd sweeps the vote tallies and promotes questions with enough
// crowd trust to supervised status in the content files.
func NewSuperviseCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "supervise",
		Short: "Mark crowd-trusted questions as supervised",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Quiz.DataDir == "" {
				return fmt.Errorf("quiz data directory not configured")
			}
			if cfg.Redis.Addr == "" {
				return fmt.Errorf("redis not configured, no vote tallies to sweep")
			}

			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer client.Close()

			tallies, err := redisinfra.NewVoteStore(client).ListTallies(cmd.Context())
			if err != nil {
				return err
			}

			updated, err := file.ApplySupervision(cfg.Quiz.DataDir, tallies)
			if err != nil {
				return err
			}
			log.Printf("supervision sweep done, %d files updated", updated)
			return nil
		},
	}
}
