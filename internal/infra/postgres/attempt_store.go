package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-assessment/internal/domain"
)

// AttemptStore persists completed attempts in the quiz_attempts table.
// Responses are kept as a JSONB array.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
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
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quiz_attempts
		   (id, quiz_id, user_id, score, max_score, total_questions, correct_count,
		    percentage, mastery_level, completed_at, responses)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb)`,
		a.ID, a.QuizID, a.UserID, a.Score, a.MaxScore, a.TotalQuestions, a.CorrectCount,
		a.Percentage, string(a.MasteryLevel), a.CompletedAt, string(raw))
	if err != nil {
		return fmt.Errorf("insert attempt %s: %w", a.ID, err)
	}
	return nil
}

func (s *AttemptStore) ListAttempts(ctx context.Context, userID, quizID string) ([]domain.QuizAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, quiz_id, user_id, score, max_score, total_questions, correct_count,
		        percentage, mastery_level, completed_at, responses
		   FROM quiz_attempts
		  WHERE user_id = $1 AND quiz_id = $2
		  ORDER BY completed_at DESC`,
		userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []domain.QuizAttempt
	for rows.Next() {
		var (
			a       domain.QuizAttempt
			mastery string
			raw     []byte
		)
		if err := rows.Scan(&a.ID, &a.QuizID, &a.UserID, &a.Score, &a.MaxScore, &a.TotalQuestions,
			&a.CorrectCount, &a.Percentage, &mastery, &a.CompletedAt, &raw); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.MasteryLevel = domain.MasteryLevel(mastery)
		if err := json.Unmarshal(raw, &a.Responses); err != nil {
			return nil, fmt.Errorf("unmarshal responses of %s: %w", a.ID, err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
