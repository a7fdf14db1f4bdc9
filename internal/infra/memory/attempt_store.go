package memory

import (
	"context"
	"sync"

	"quiz-assessment/internal/domain"
)

// AttemptStore keeps completed attempts in process memory, append-only.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[attemptKey][]domain.QuizAttempt
}

type attemptKey struct {
	userID string
	quizID string
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[attemptKey][]domain.QuizAttempt)}
}

func (s *AttemptStore) AppendAttempt(_ context.Context, attempt domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey{userID: attempt.UserID, quizID: attempt.QuizID}
	s.attempts[key] = append(s.attempts[key], attempt)
	return nil
}

func (s *AttemptStore) ListAttempts(_ context.Context, userID, quizID string) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.attempts[attemptKey{userID: userID, quizID: quizID}]
	out := make([]domain.QuizAttempt, len(stored))
	copy(out, stored)
	return out, nil
}
