package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-assessment/internal/app"
	"quiz-assessment/internal/config"
	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/infra/bank"
	"quiz-assessment/internal/infra/memory"
	pgstore "quiz-assessment/internal/infra/postgres"
	redisstore "quiz-assessment/internal/infra/redis"
	sqlitestore "quiz-assessment/internal/infra/sqlite"
)

// deps is everything the commands need, wired from config. Stores are picked
// in order of preference: Postgres, SQLite, Redis, memory.
type deps struct {
	logger   *slog.Logger
	loader   memory.QuizLoader
	quizzes  app.QuizRepository
	sessions app.SessionRepository
	attempts app.AttemptRepository
	pool     *pgxpool.Pool
	closers  []func()
}

func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel()}))
}

func buildDeps(ctx context.Context, cfg config.Config, logger *slog.Logger) (*deps, error) {
	d := &deps{logger: logger}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, func() { _ = redisClient.Close() })
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		d.pool = pool
		d.closers = append(d.closers, pool.Close)
	}

	switch {
	case d.pool != nil:
		d.loader = pgstore.NewQuizLoader(d.pool)
	case cfg.Quiz.BankDir != "":
		d.loader = bank.NewLoader(cfg.Quiz.BankDir)
	default:
		logger.Warn("no quiz source configured, serving built-in sample quiz")
		d.loader = memory.NewStaticQuizLoader(sampleQuizzes())
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		d.quizzes = redisstore.NewQuizRepository(redisClient, d.loader, quizTTL)
		d.sessions = redisstore.NewSessionStore(redisClient, redisTTL)
	} else {
		d.quizzes = memory.NewQuizRepository(d.loader, quizTTL)
		d.sessions = memory.NewSessionStore()
	}

	switch {
	case d.pool != nil:
		d.attempts = pgstore.NewAttemptStore(d.pool)
	case cfg.SQLite.Path != "":
		store, err := sqlitestore.Open(cfg.SQLite.Path)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		d.attempts = store
		d.closers = append(d.closers, func() { _ = store.Close() })
	case redisClient != nil:
		d.attempts = redisstore.NewAttemptStore(redisClient)
	default:
		d.attempts = memory.NewAttemptStore()
	}
	return d, nil
}

func (d *deps) service() *app.QuizService {
	return app.NewQuizService(d.sessions, d.quizzes, d.attempts, app.WithLogger(d.logger))
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// sampleQuizzes provides a minimal quiz when no bank or database is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Sample",
			Questions: []domain.Question{
				{
					ID:          "q1",
					Difficulty:  1,
					Concept:     "arithmetic",
					Prompt:      "What is 2 + 2?",
					Explanation: "Two plus two is four.",
					Body:        domain.MultipleChoice{Options: []string{"3", "4", "5"}, CorrectIndex: 1},
				},
				{
					ID:         "q2",
					Difficulty: 2,
					Concept:    "ordering",
					Prompt:     "Put the numbers in ascending order.",
					Body:       domain.Ordering{Items: []string{"3", "1", "2"}, CorrectOrder: []int{1, 2, 0}},
				},
			},
		},
	}
}
