package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"quiz-assessment/internal/assessment"
	"quiz-assessment/internal/domain"
)

// State is the lifecycle position of a session.
type State string

const (
	StateStart      State = "start"
	StateInProgress State = "in-progress"
	StateCompleted  State = "completed"
)

// EventType identifies what a session event reports.
type EventType string

const (
	EventCompleted EventType = "completed"
	EventAbandoned EventType = "abandoned"
)

// Completion is the payload of a completed attempt.
type Completion struct {
	Score          int                       `json:"score"`
	TotalQuestions int                       `json:"totalQuestions"`
	Percentage     float64                   `json:"percentage"`
	Responses      []domain.QuestionResponse `json:"responses"`
	Attempt        domain.QuizAttempt        `json:"attempt"`
}

// Event is published to subscribers. Completion is set only for EventCompleted.
type Event struct {
	Type       EventType   `json:"type"`
	SessionID  string      `json:"sessionId"`
	Completion *Completion `json:"completion,omitempty"`
}

// Session drives one user through a quiz: start, answer, submit, next,
// until the last question completes the attempt.
type Session struct {
	id     string
	userID string
	quiz   domain.Quiz
	now    func() time.Time

	mu              sync.RWMutex
	state           State
	currentIndex    int
	pending         domain.Answer
	confidence      *domain.Confidence
	feedbackVisible bool
	questionStart   time.Time
	responses       []domain.QuestionResponse
	attempt         *domain.QuizAttempt
	abandoned       bool
	subscribers     map[chan Event]struct{}
}

// NewSession creates a session in the start state.
func NewSession(id, userID string, quiz domain.Quiz) *Session {
	return NewSessionWithClock(id, userID, quiz, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id, userID string, quiz domain.Quiz, now func() time.Time) *Session {
	questions := make([]domain.Question, len(quiz.Questions))
	copy(questions, quiz.Questions)
	quiz.Questions = questions

	return &Session{
		id:          id,
		userID:      userID,
		quiz:        quiz,
		now:         now,
		state:       StateStart,
		subscribers: make(map[chan Event]struct{}),
	}
}

func (s *Session) ID() string       { return s.id }
func (s *Session) UserID() string   { return s.userID }
func (s *Session) Quiz() domain.Quiz { return s.quiz }

// Start moves the session from start to in-progress. A quiz without
// questions completes immediately with a zero score.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(StateStart, "start"); err != nil {
		return err
	}
	s.state = StateInProgress
	s.questionStart = s.now()
	if len(s.quiz.Questions) == 0 {
		s.completeLocked()
	}
	return nil
}

// RecordAnswer replaces the pending answer for the current question. A nil
// answer clears it.
func (s *Session) RecordAnswer(answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAnsweringLocked("record answer"); err != nil {
		return err
	}
	if answer == nil {
		s.pending = nil
		return nil
	}
	if err := domain.CheckAnswerShape(s.quiz.Questions[s.currentIndex].Type(), answer); err != nil {
		return err
	}
	s.pending = domain.CloneAnswer(answer)
	return nil
}

// SetConfidence attaches a self-rating to the next submitted response.
func (s *Session) SetConfidence(level domain.Confidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := domain.ParseConfidence(string(level)); err != nil {
		return err
	}
	if err := s.requireAnsweringLocked("set confidence"); err != nil {
		return err
	}
	s.confidence = &level
	return nil
}

// Submit validates the pending answer, appends the response and shows
// feedback. It does not advance to the next question.
func (s *Session) Submit() (assessment.Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireAnsweringLocked("submit"); err != nil {
		return assessment.Feedback{}, err
	}
	if s.pending == nil {
		return assessment.Feedback{}, domain.ErrMissingAnswer
	}

	question := s.quiz.Questions[s.currentIndex]
	feedback, err := assessment.Explain(question, s.pending)
	if err != nil {
		return assessment.Feedback{}, err
	}

	elapsed := s.now().Sub(s.questionStart).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	s.responses = append(s.responses, domain.QuestionResponse{
		QuestionID: question.ID,
		Answer:     domain.CloneAnswer(s.pending),
		IsCorrect:  feedback.Correct,
		Confidence: s.confidence,
		TimeTaken:  elapsed,
	})
	s.feedbackVisible = true
	return feedback, nil
}

// Next advances past the feedback of the current question. On the last
// question it completes the attempt and returns it; otherwise it returns nil.
func (s *Session) Next() (*domain.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(StateInProgress, "next"); err != nil {
		return nil, err
	}
	if !s.feedbackVisible {
		return nil, fmt.Errorf("%w: next before the answer was submitted", domain.ErrIllegalTransition)
	}

	if s.currentIndex < len(s.quiz.Questions)-1 {
		s.currentIndex++
		s.pending = nil
		s.confidence = nil
		s.feedbackVisible = false
		s.questionStart = s.now()
		return nil, nil
	}

	attempt := s.completeLocked()
	attempt.Responses = domain.CloneResponses(attempt.Responses)
	return &attempt, nil
}

// Abandon signals that the user left. Recorded responses are kept, no attempt
// is produced and subscribers get one abandoned event.
func (s *Session) Abandon() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.abandoned {
		return fmt.Errorf("%w: %w", domain.ErrIllegalTransition, domain.ErrSessionAbandoned)
	}
	if s.state == StateStart {
		return fmt.Errorf("%w: abandon before start", domain.ErrIllegalTransition)
	}
	s.abandoned = true
	s.broadcastLocked(Event{Type: EventAbandoned, SessionID: s.id})
	return nil
}

// Retake returns a completed session to start with the same quiz.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireLocked(StateCompleted, "retake"); err != nil {
		return err
	}
	s.state = StateStart
	s.currentIndex = 0
	s.pending = nil
	s.confidence = nil
	s.feedbackVisible = false
	s.questionStart = time.Time{}
	s.responses = nil
	s.attempt = nil
	return nil
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) CurrentIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentIndex
}

// CurrentQuestion returns the active question while the session is in progress.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateInProgress || s.currentIndex >= len(s.quiz.Questions) {
		return domain.Question{}, false
	}
	return s.quiz.Questions[s.currentIndex], true
}

func (s *Session) PendingAnswer() domain.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneAnswer(s.pending)
}

func (s *Session) Confidence() *domain.Confidence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.confidence == nil {
		return nil
	}
	c := *s.confidence
	return &c
}

func (s *Session) FeedbackVisible() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedbackVisible
}

func (s *Session) Abandoned() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.abandoned
}

// Progress is (currentIndex+1)/totalQuestions, or 0 for an empty quiz.
func (s *Session) Progress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := len(s.quiz.Questions)
	if total == 0 {
		return 0
	}
	return float64(s.currentIndex+1) / float64(total)
}

// Responses returns a deep copy of the responses recorded in this attempt.
func (s *Session) Responses() []domain.QuestionResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneResponses(s.responses)
}

// Attempt returns the completed attempt, if any.
func (s *Session) Attempt() (domain.QuizAttempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.attempt == nil {
		return domain.QuizAttempt{}, false
	}
	attempt := *s.attempt
	attempt.Responses = domain.CloneResponses(attempt.Responses)
	return attempt, true
}

// SubscriberBuffer is how many undelivered events a subscriber may hold.
const SubscriberBuffer = 8

// Subscribe returns a channel of session events. The caller must invoke the
// returned cancel function to avoid leaks.
//
// Events are queued without blocking the session. Each completed attempt is
// queued exactly once, but a subscriber more than SubscriberBuffer events
// behind loses the oldest queued events.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, SubscriberBuffer)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) requireLocked(want State, op string) error {
	if s.abandoned {
		return fmt.Errorf("%w: %w", domain.ErrIllegalTransition, domain.ErrSessionAbandoned)
	}
	if s.state != want {
		return fmt.Errorf("%w: %s while %s", domain.ErrIllegalTransition, op, s.state)
	}
	return nil
}

// requireAnsweringLocked allows operations on the current question before
// its answer is submitted.
func (s *Session) requireAnsweringLocked(op string) error {
	if err := s.requireLocked(StateInProgress, op); err != nil {
		return err
	}
	if s.feedbackVisible {
		return fmt.Errorf("%w: %s after the answer was submitted", domain.ErrIllegalTransition, op)
	}
	return nil
}

func (s *Session) completeLocked() domain.QuizAttempt {
	ptrs := make([]*domain.QuestionResponse, len(s.responses))
	for i := range s.responses {
		ptrs[i] = &s.responses[i]
	}
	result := assessment.Score(s.quiz.Questions, ptrs)

	attempt := domain.QuizAttempt{
		ID:             uuid.NewString(),
		QuizID:         s.quiz.ID,
		UserID:         s.userID,
		Score:          result.Score,
		MaxScore:       result.MaxScore,
		TotalQuestions: result.TotalQuestions,
		CorrectCount:   result.CorrectCount,
		Percentage:     result.Percentage,
		MasteryLevel:   assessment.Classify(result.Percentage),
		CompletedAt:    s.now(),
		Responses:      domain.CloneResponses(s.responses),
	}

	s.state = StateCompleted
	s.pending = nil
	s.confidence = nil
	s.feedbackVisible = false
	s.attempt = &attempt
	s.broadcastLocked(Event{Type: EventCompleted, SessionID: s.id, Completion: s.completionLocked()})
	return attempt
}

// completionLocked builds the completed event payload. It shares no memory
// with the session state.
func (s *Session) completionLocked() *Completion {
	attempt := *s.attempt
	attempt.Responses = domain.CloneResponses(attempt.Responses)
	return &Completion{
		Score:          attempt.Score,
		TotalQuestions: attempt.TotalQuestions,
		Percentage:     attempt.Percentage,
		Responses:      domain.CloneResponses(attempt.Responses),
		Attempt:        attempt,
	}
}

func (s *Session) broadcastLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest queued event so a slow subscriber cannot block the session.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
