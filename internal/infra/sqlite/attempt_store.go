package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"quiz-assessment/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS quiz_attempts (
    id TEXT PRIMARY KEY,
    quiz_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    score INTEGER NOT NULL,
    max_score INTEGER NOT NULL,
    total_questions INTEGER NOT NULL,
    correct_count INTEGER NOT NULL,
    percentage REAL NOT NULL,
    mastery_level TEXT NOT NULL,
    completed_at TEXT NOT NULL,
    responses TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS quiz_attempts_user_quiz_idx ON quiz_attempts (user_id, quiz_id);
`

// AttemptStore keeps attempt history in a single-file SQLite database, for
// deployments without Postgres.
type AttemptStore struct {
	db *sql.DB
}

// Open creates the database file if needed and applies the schema. Use
// ":memory:" for a throwaway store.
func Open(path string) (*AttemptStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection: SQLite has a single writer and ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &AttemptStore{db: db}, nil
}

func (s *AttemptStore) Close() error {
	return s.db.Close()
}

func (s *AttemptStore) AppendAttempt(ctx context.Context, a domain.QuizAttempt) error {
	responses := a.Responses
	if responses == nil {
		responses = []domain.QuestionResponse{}
	}
	raw, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("marshal responses: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quiz_attempts
		   (id, quiz_id, user_id, score, max_score, total_questions, correct_count,
		    percentage, mastery_level, completed_at, responses)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.QuizID, a.UserID, a.Score, a.MaxScore, a.TotalQuestions, a.CorrectCount,
		a.Percentage, string(a.MasteryLevel), a.CompletedAt.UTC().Format(time.RFC3339Nano), string(raw))
	if err != nil {
		return fmt.Errorf("insert attempt %s: %w", a.ID, err)
	}
	return nil
}

func (s *AttemptStore) ListAttempts(ctx context.Context, userID, quizID string) ([]domain.QuizAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, quiz_id, user_id, score, max_score, total_questions, correct_count,
		        percentage, mastery_level, completed_at, responses
		   FROM quiz_attempts
		  WHERE user_id = ? AND quiz_id = ?`,
		userID, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.QuizAttempt
	for rows.Next() {
		var (
			a         domain.QuizAttempt
			mastery   string
			completed string
			raw       string
		)
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &a.Score, &a.MaxScore, &a.TotalQuestions,
			&a.CorrectCount, &a.Percentage, &mastery, &completed, &raw); err != nil {
			return nil, err
		}
		a.MasteryLevel = domain.MasteryLevel(mastery)
		if a.CompletedAt, err = time.Parse(time.RFC3339Nano, completed); err != nil {
			return nil, fmt.Errorf("parse completed_at of %s: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(raw), &a.Responses); err != nil {
			return nil, fmt.Errorf("unmarshal responses of %s: %w", a.ID, err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
