package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"quiz-assessment/internal/assessment"
	"quiz-assessment/internal/domain"
)

// SessionRepository abstracts how live sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptRepository persists completed attempts. It is append-only.
type AttemptRepository interface {
	AppendAttempt(ctx context.Context, attempt domain.QuizAttempt) error
	ListAttempts(ctx context.Context, userID, quizID string) ([]domain.QuizAttempt, error)
}

// QuizService contains the quiz use cases around a Session.
type QuizService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	attempts AttemptRepository
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a QuizService.
type Option func(*QuizService)

func WithLogger(l *slog.Logger) Option { return func(s *QuizService) { s.logger = l } }

// WithClock sets the clock handed to new sessions.
func WithClock(now func() time.Time) Option { return func(s *QuizService) { s.now = now } }

func NewQuizService(store SessionRepository, quizzes QuizRepository, attempts AttemptRepository, opts ...Option) *QuizService {
	s := &QuizService{
		sessions: store,
		quizzes:  quizzes,
		attempts: attempts,
		logger:   slog.Default(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// OpenSession loads the quiz and registers a new session in the start state.
func (s *QuizService) OpenSession(ctx context.Context, quizID, userID string) (*Session, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := quiz.CheckLoaded(quizID); err != nil {
		return nil, err
	}

	session := NewSessionWithClock(s.newID(), userID, quiz, s.now)
	s.sessions.Put(session)
	s.logger.Info("session opened", "session_id", session.ID(), "quiz_id", quizID, "user_id", userID)
	return session, nil
}

// Session returns a live session by ID.
func (s *QuizService) Session(_ context.Context, sessionID string) (*Session, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Start begins the attempt. An empty quiz completes immediately and its
// attempt is stored.
func (s *QuizService) Start(ctx context.Context, sessionID string) error {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := session.Start(); err != nil {
		return err
	}
	if attempt, ok := session.Attempt(); ok {
		return s.store(ctx, session, attempt)
	}
	return nil
}

// RecordAnswer updates the pending answer of the current question.
func (s *QuizService) RecordAnswer(ctx context.Context, sessionID string, answer domain.Answer) error {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	return session.RecordAnswer(answer)
}

// SetConfidence attaches a self-rating to the next submission.
func (s *QuizService) SetConfidence(ctx context.Context, sessionID string, level domain.Confidence) error {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	return session.SetConfidence(level)
}

// SubmitAnswer validates the pending answer and returns the feedback to show.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID string) (assessment.Feedback, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return assessment.Feedback{}, err
	}
	fb, err := session.Submit()
	if err != nil {
		return assessment.Feedback{}, err
	}
	s.logger.Debug("answer submitted", "session_id", sessionID, "question_id", fb.QuestionID, "correct", fb.Correct)
	return fb, nil
}

// NextQuestion advances the session. When the last question is passed the
// attempt is stored and returned.
func (s *QuizService) NextQuestion(ctx context.Context, sessionID string) (*domain.QuizAttempt, error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	attempt, err := session.Next()
	if err != nil || attempt == nil {
		return attempt, err
	}
	return attempt, s.store(ctx, session, *attempt)
}

// Abandon notifies subscribers and drops the session. No attempt is stored.
func (s *QuizService) Abandon(ctx context.Context, sessionID string) error {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := session.Abandon(); err != nil {
		return err
	}
	s.sessions.Delete(sessionID)
	s.logger.Info("session abandoned", "session_id", sessionID, "answered", len(session.Responses()))
	return nil
}

// Retake resets a completed session to start with the same quiz.
func (s *QuizService) Retake(ctx context.Context, sessionID string) error {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return err
	}
	return session.Retake()
}

// Subscribe returns a channel that receives completion and abandonment events.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(ctx context.Context, sessionID string) (<-chan Event, func(), error) {
	session, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Close drops a session without signalling abandonment.
func (s *QuizService) Close(_ context.Context, sessionID string) {
	s.sessions.Delete(sessionID)
}

// Quiz returns checked quiz content, for read-only views.
func (s *QuizService) Quiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if err := quiz.CheckLoaded(quizID); err != nil {
		return domain.Quiz{}, err
	}
	return quiz, nil
}

// History aggregates the stored attempts of a user on a quiz.
func (s *QuizService) History(ctx context.Context, userID, quizID string) (assessment.Summary, error) {
	attempts, err := s.attempts.ListAttempts(ctx, userID, quizID)
	if err != nil {
		return assessment.Summary{}, fmt.Errorf("list attempts: %w", err)
	}
	return assessment.Summarize(attempts), nil
}

func (s *QuizService) store(ctx context.Context, session *Session, attempt domain.QuizAttempt) error {
	if err := s.attempts.AppendAttempt(ctx, attempt); err != nil {
		s.logger.Error("store attempt failed", "session_id", session.ID(), "attempt_id", attempt.ID, "error", err)
		return fmt.Errorf("store attempt: %w", err)
	}
	s.logger.Info("attempt completed",
		"session_id", session.ID(),
		"quiz_id", attempt.QuizID,
		"user_id", attempt.UserID,
		"score", attempt.Score,
		"max_score", attempt.MaxScore,
		"percentage", attempt.Percentage,
		"mastery", attempt.MasteryLevel,
	)
	return nil
}
