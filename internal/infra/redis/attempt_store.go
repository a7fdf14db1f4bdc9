package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quiz-assessment/internal/domain"
)

// AttemptStore appends completed attempts to a Redis list per user and quiz:
//
//	RPUSH quiz:attempts:{len(userID)}:{userID}:{quizID} <json>
//
// The length prefix keeps IDs containing ':' from sharing a list.
type AttemptStore struct {
	client *redis.Client
}

func NewAttemptStore(client *redis.Client) *AttemptStore {
	return &AttemptStore{client: client}
}

func (s *AttemptStore) AppendAttempt(ctx context.Context, attempt domain.QuizAttempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("encode attempt %s: %w", attempt.ID, err)
	}
	return s.client.RPush(ctx, s.key(attempt.UserID, attempt.QuizID), payload).Err()
}

func (s *AttemptStore) ListAttempts(ctx context.Context, userID, quizID string) ([]domain.QuizAttempt, error) {
	raw, err := s.client.LRange(ctx, s.key(userID, quizID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	attempts := make([]domain.QuizAttempt, 0, len(raw))
	for _, item := range raw {
		var attempt domain.QuizAttempt
		if err := json.Unmarshal([]byte(item), &attempt); err != nil {
			return nil, fmt.Errorf("decode attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

func (s *AttemptStore) key(userID, quizID string) string {
	return fmt.Sprintf("quiz:attempts:%d:%s:%s", len(userID), userID, quizID)
}
