package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"quiz-assessment/internal/assessment"
	"quiz-assessment/internal/config"
	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/infra/bank"
	pgstore "quiz-assessment/internal/infra/postgres"
)

// NewCheckCmd validates every quiz file in a bank directory.
func NewCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check [dir]",
		Short: "Validate quiz files against the schema and structural rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := bankDir(*configPath, args)
			if err != nil {
				return err
			}
			quizzes, err := bank.NewLoader(dir).LoadAll()
			if err != nil {
				return err
			}
			for _, q := range quizzes {
				fmt.Fprintf(cmd.OutOrStdout(), "ok  %s  (%d questions, max score %d)\n", q.ID, len(q.Questions), assessment.Score(q.Questions, nil).MaxScore)
			}
			return nil
		},
	}
}

// NewImportCmd loads a quiz bank directory into the Postgres quizzes table.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import [dir]",
		Short: "Import quiz files into Postgres",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			dir := cfg.Quiz.BankDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no quiz directory given and quiz.bank_dir is empty")
			}
			return importBank(cmd.Context(), cfg, dir, func(q domain.Quiz) {
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s\n", q.ID)
			})
		},
	}
}

func importBank(ctx context.Context, cfg config.Config, dir string, done func(domain.Quiz)) error {
	quizzes, err := bank.NewLoader(dir).LoadAll()
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg, newLogger(cfg)); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	store := pgstore.NewQuizLoader(pool)
	for _, q := range quizzes {
		if err := store.SaveQuiz(ctx, q); err != nil {
			return err
		}
		done(q)
	}
	return nil
}

func bankDir(configPath string, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	if cfg.Quiz.BankDir == "" {
		return "", fmt.Errorf("no quiz directory given and quiz.bank_dir is empty")
	}
	return cfg.Quiz.BankDir, nil
}
