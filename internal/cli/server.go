package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quizesch/internal/app"
	"quizesch/internal/config"
	"quizesch/internal/domain"
	"quizesch/internal/infra/file"
	"quizesch/internal/infra/memory"
	pgloader "quizesch/internal/infra/postgres"
	redisinfra "quizesch/internal/infra/redis"
	transport "quizesch/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const defaultProgressMaxAge = 7 * 24 * time.Hour

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	switch {
	case pool != nil:
		loader = pgloader.NewQuizLoader(pool)
	case cfg.Quiz.DataDir != "":
		loader = file.NewQuizLoader(cfg.Quiz.DataDir)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	maxAge := config.TTLDuration(cfg.Progress.MaxAge, defaultProgressMaxAge)
	var progress app.ProgressStore
	var votes app.VoteStore
	if redisClient != nil {
		progress = redisinfra.NewProgressStore(redisClient, maxAge)
		votes = redisinfra.NewVoteStore(redisClient)
	} else {
		progress = memory.NewProgressStore(maxAge)
		votes = memory.NewVoteStore()
	}

	trust := app.NewTrustService(votes, app.StaticIdentity(voterID(cfg)))
	service := app.NewQuizService(quizRepo, progress, trust)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizesch on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// voterID returns the configured voter identity or mints an ephemeral one so
// an unconfigured instance can still cast votes for its lifetime.
func voterID(cfg config.Config) string {
	if cfg.Identity.VoterID != "" {
		return cfg.Identity.VoterID
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Printf("could not mint voter id: %v", err)
		return ""
	}
	return "anon-" + hex.EncodeToString(buf)
}

// sampleQuizzes provides built-in demo content for running without a data
// directory or database.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"sample.json": {
			FileID: "sample.json",
			Tags:   &domain.QuizTags{Year: "2026", Subject: "arithmetic"},
			Questions: []domain.Question{
				{
					Type:  domain.MultiChoice,
					Title: "What is 2 + 2?",
					Options: map[string]string{
						"a": "3",
						"b": "4",
						"c": "5",
					},
					Answer: []string{"b"},
				},
				{
					Type:   domain.FillBlanks,
					Title:  "Complete the sentence.",
					Text:   "Two plus two equals [sum].",
					Blanks: domain.BlankList{{Identifier: "sum", Answer: "four"}},
				},
			},
		},
	}
}
