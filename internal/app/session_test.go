package app_test

import (
	"errors"
	"testing"
	"time"

	"quiz-assessment/internal/app"
	"quiz-assessment/internal/assessment"
	"quiz-assessment/internal/domain"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func newSession(clock *fakeClock) *app.Session {
	return app.NewSessionWithClock("s-1", "u1", weightedQuiz(), clock.Now)
}

// weightedQuiz has difficulties 1, 3, 2.
func weightedQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{ID: "q1", Difficulty: 1, Body: domain.MultipleChoice{Options: []string{"a", "b"}, CorrectIndex: 0}},
			{ID: "q2", Difficulty: 3, Body: domain.TrueFalse{CorrectAnswer: true}},
			{ID: "q3", Difficulty: 2, Body: domain.Ordering{Items: []string{"x", "y"}, CorrectOrder: []int{1, 0}}},
		},
	}
}

func answerAndSubmit(t *testing.T, s *app.Session, a domain.Answer) assessment.Feedback {
	t.Helper()
	if err := s.RecordAnswer(a); err != nil {
		t.Fatalf("record answer: %v", err)
	}
	fb, err := s.Submit()
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return fb
}

func TestSessionFullAttempt(t *testing.T) {
	clock := newClock()
	s := newSession(clock)

	if s.State() != app.StateStart {
		t.Fatalf("expected start state, got %s", s.State())
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(4 * time.Second)
	if fb := answerAndSubmit(t, s, domain.IndexAnswer(0)); !fb.Correct {
		t.Fatalf("expected q1 correct")
	}
	if len(s.Responses()) != s.CurrentIndex()+1 {
		t.Fatalf("responses must equal currentIndex+1 after submit")
	}
	if got := s.Responses()[0].TimeTaken; got != 4 {
		t.Fatalf("expected 4s time taken, got %v", got)
	}
	if attempt, err := s.Next(); err != nil || attempt != nil {
		t.Fatalf("expected to advance without attempt, got %v %v", attempt, err)
	}

	clock.Advance(10 * time.Second)
	answerAndSubmit(t, s, domain.BoolAnswer(false))
	if _, err := s.Next(); err != nil {
		t.Fatalf("next: %v", err)
	}

	clock.Advance(2 * time.Second)
	answerAndSubmit(t, s, domain.OrderAnswer{1, 0})
	attempt, err := s.Next()
	if err != nil {
		t.Fatalf("final next: %v", err)
	}
	if attempt == nil {
		t.Fatalf("expected attempt on final question")
	}

	if s.State() != app.StateCompleted {
		t.Fatalf("expected completed, got %s", s.State())
	}
	if len(s.Responses()) != 3 {
		t.Fatalf("expected 3 responses, got %d", len(s.Responses()))
	}

	responses := s.Responses()
	ptrs := []*domain.QuestionResponse{&responses[0], &responses[1], &responses[2]}
	want := assessment.Score(weightedQuiz().Questions, ptrs)
	if attempt.Score != want.Score || attempt.Percentage != want.Percentage {
		t.Fatalf("attempt %+v does not match independent score %+v", attempt, want)
	}
	if attempt.Score != 3 || attempt.MaxScore != 6 || attempt.Percentage != 50 {
		t.Fatalf("expected 3/6 = 50%%, got %d/%d = %v", attempt.Score, attempt.MaxScore, attempt.Percentage)
	}
	if attempt.MasteryLevel != domain.MasteryDeveloping || attempt.CorrectCount != 2 || attempt.TotalQuestions != 3 {
		t.Fatalf("unexpected attempt: %+v", attempt)
	}
	if !attempt.CompletedAt.Equal(clock.now) || attempt.UserID != "u1" || attempt.QuizID != "quiz-1" {
		t.Fatalf("unexpected attempt metadata: %+v", attempt)
	}
}

func TestSessionRejectsIllegalTransitions(t *testing.T) {
	s := newSession(newClock())

	if err := s.RecordAnswer(domain.IndexAnswer(0)); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("record before start: expected illegal transition, got %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("next before start: expected illegal transition, got %v", err)
	}
	if err := s.Retake(); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("retake from start: expected illegal transition, got %v", err)
	}
	if err := s.Abandon(); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("abandon before start: expected illegal transition, got %v", err)
	}

	_ = s.Start()
	if err := s.Start(); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("double start: expected illegal transition, got %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("next before feedback: expected illegal transition, got %v", err)
	}
	if err := s.Retake(); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("retake in progress: expected illegal transition, got %v", err)
	}

	answerAndSubmit(t, s, domain.IndexAnswer(1))
	if _, err := s.Submit(); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("double submit: expected illegal transition, got %v", err)
	}
	if err := s.RecordAnswer(domain.IndexAnswer(0)); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("record after submit: expected illegal transition, got %v", err)
	}
	if err := s.SetConfidence(domain.ConfidenceLow); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("confidence after submit: expected illegal transition, got %v", err)
	}
	if len(s.Responses()) != 1 || s.Responses()[0].IsCorrect {
		t.Fatalf("rejected calls must not change recorded responses: %+v", s.Responses())
	}
}

func TestSessionSubmitRequiresAnswer(t *testing.T) {
	s := newSession(newClock())
	_ = s.Start()

	if _, err := s.Submit(); !errors.Is(err, domain.ErrMissingAnswer) {
		t.Fatalf("expected missing answer, got %v", err)
	}
	if s.FeedbackVisible() || len(s.Responses()) != 0 {
		t.Fatalf("failed submit must leave the session unchanged")
	}

	_ = s.RecordAnswer(domain.IndexAnswer(1))
	_ = s.RecordAnswer(nil)
	if _, err := s.Submit(); !errors.Is(err, domain.ErrMissingAnswer) {
		t.Fatalf("expected missing answer after clearing, got %v", err)
	}
}

func TestSessionRecordAnswerLastWins(t *testing.T) {
	s := newSession(newClock())
	_ = s.Start()

	_ = s.RecordAnswer(domain.IndexAnswer(1))
	_ = s.RecordAnswer(domain.IndexAnswer(0))
	if s.PendingAnswer() != domain.IndexAnswer(0) {
		t.Fatalf("expected last recorded answer, got %v", s.PendingAnswer())
	}
	if len(s.Responses()) != 0 || s.FeedbackVisible() {
		t.Fatalf("recording must not submit")
	}

	if err := s.RecordAnswer(domain.BoolAnswer(true)); !errors.Is(err, domain.ErrInvalidAnswerShape) {
		t.Fatalf("expected invalid shape, got %v", err)
	}
	if s.PendingAnswer() != domain.IndexAnswer(0) {
		t.Fatalf("rejected answer must not replace the pending one")
	}
}

func TestSessionConfidenceAttachesToResponse(t *testing.T) {
	s := newSession(newClock())
	_ = s.Start()

	if err := s.SetConfidence("certain"); !errors.Is(err, domain.ErrInvalidConfidence) {
		t.Fatalf("expected invalid confidence, got %v", err)
	}
	if err := s.SetConfidence(domain.ConfidenceHigh); err != nil {
		t.Fatalf("set confidence: %v", err)
	}
	answerAndSubmit(t, s, domain.IndexAnswer(0))
	r := s.Responses()[0]
	if r.Confidence == nil || *r.Confidence != domain.ConfidenceHigh {
		t.Fatalf("expected high confidence on response, got %v", r.Confidence)
	}

	_, _ = s.Next()
	if s.Confidence() != nil || s.PendingAnswer() != nil || s.FeedbackVisible() {
		t.Fatalf("next must clear pending answer, confidence and feedback")
	}
	answerAndSubmit(t, s, domain.BoolAnswer(true))
	if s.Responses()[1].Confidence != nil {
		t.Fatalf("confidence must not carry over to the next question")
	}
}

func TestSessionProgressAndCurrentQuestion(t *testing.T) {
	s := newSession(newClock())
	if _, ok := s.CurrentQuestion(); ok {
		t.Fatalf("no active question before start")
	}
	_ = s.Start()

	q, ok := s.CurrentQuestion()
	if !ok || q.ID != "q1" {
		t.Fatalf("expected q1 active, got %+v", q)
	}
	if p := s.Progress(); p != 1.0/3 {
		t.Fatalf("expected progress 1/3, got %v", p)
	}

	answerAndSubmit(t, s, domain.IndexAnswer(0))
	_, _ = s.Next()
	q, _ = s.CurrentQuestion()
	if q.ID != "q2" || s.Progress() != 2.0/3 {
		t.Fatalf("expected q2 at 2/3, got %s at %v", q.ID, s.Progress())
	}
}

func TestSessionRetakeResetsTransientState(t *testing.T) {
	s := newSession(newClock())
	completeAll(t, s)

	if err := s.Retake(); err != nil {
		t.Fatalf("retake: %v", err)
	}
	if s.State() != app.StateStart || s.CurrentIndex() != 0 || len(s.Responses()) != 0 {
		t.Fatalf("expected fresh start state after retake")
	}
	if s.PendingAnswer() != nil || s.FeedbackVisible() || s.Confidence() != nil {
		t.Fatalf("expected transient fields cleared")
	}
	if _, ok := s.Attempt(); ok {
		t.Fatalf("expected no attempt after retake")
	}
	if len(s.Quiz().Questions) != 3 || s.Quiz().ID != "quiz-1" {
		t.Fatalf("expected same quiz after retake")
	}

	completeAll(t, s)
	if s.State() != app.StateCompleted {
		t.Fatalf("expected second attempt to complete")
	}
}

func TestSessionAbandonKeepsResponses(t *testing.T) {
	s := newSession(newClock())
	events, cancel := s.Subscribe()
	defer cancel()

	_ = s.Start()
	answerAndSubmit(t, s, domain.IndexAnswer(0))

	if err := s.Abandon(); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	ev := <-events
	if ev.Type != app.EventAbandoned || ev.Completion != nil {
		t.Fatalf("expected abandoned event without payload, got %+v", ev)
	}
	if len(s.Responses()) != 1 {
		t.Fatalf("abandon must keep recorded responses")
	}
	if _, ok := s.Attempt(); ok {
		t.Fatalf("abandon must not produce an attempt")
	}

	if err := s.Abandon(); !errors.Is(err, domain.ErrSessionAbandoned) {
		t.Fatalf("second abandon: expected session abandoned, got %v", err)
	}
	if _, err := s.Next(); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("next after abandon: expected illegal transition, got %v", err)
	}
	select {
	case ev := <-events:
		t.Fatalf("expected at most one abandoned event, got %+v", ev)
	default:
	}
}

func TestSessionPublishesCompletionOncePerAttempt(t *testing.T) {
	s := newSession(newClock())
	events, cancel := s.Subscribe()
	defer cancel()

	completeAll(t, s)
	ev := <-events
	if ev.Type != app.EventCompleted || ev.Completion == nil {
		t.Fatalf("expected completion event, got %+v", ev)
	}
	if ev.Completion.TotalQuestions != 3 || len(ev.Completion.Responses) != 3 || ev.Completion.Score != 6 {
		t.Fatalf("unexpected completion payload: %+v", ev.Completion)
	}
	if ev.Completion.Percentage != 100 || ev.Completion.Attempt.MasteryLevel != domain.MasteryExpert {
		t.Fatalf("expected perfect attempt, got %+v", ev.Completion.Attempt)
	}

	select {
	case extra := <-events:
		t.Fatalf("unexpected second event %+v", extra)
	default:
	}
}

func TestSessionResponsesDoNotAliasCallerSlices(t *testing.T) {
	quiz := domain.Quiz{
		ID: "select",
		Questions: []domain.Question{
			{ID: "q1", Difficulty: 2, Body: domain.MultipleSelect{Options: []string{"a", "b", "c"}, CorrectIndices: []int{0, 1}}},
		},
	}
	s := app.NewSessionWithClock("s-alias", "u1", quiz, newClock().Now)
	events, cancel := s.Subscribe()
	defer cancel()
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	ans := domain.IndicesAnswer{0, 1}
	if err := s.RecordAnswer(ans); err != nil {
		t.Fatalf("record answer: %v", err)
	}
	ans[1] = 2
	if fb, err := s.Submit(); err != nil || !fb.Correct {
		t.Fatalf("expected the recorded answer to be scored, got %+v %v", fb, err)
	}
	ans[0] = 2

	got := s.Responses()
	got[0].Answer.(domain.IndicesAnswer)[0] = 9
	resp := s.Responses()[0]
	if idx := resp.Answer.(domain.IndicesAnswer); idx[0] != 0 || idx[1] != 1 || !resp.IsCorrect {
		t.Fatalf("stored response changed after submission: %+v", resp)
	}

	attempt, err := s.Next()
	if err != nil || attempt == nil {
		t.Fatalf("next: %v", err)
	}
	attempt.Responses[0].Answer.(domain.IndicesAnswer)[1] = 9
	ev := <-events
	ev.Completion.Responses[0].Answer.(domain.IndicesAnswer)[0] = 9

	stored, _ := s.Attempt()
	if idx := stored.Responses[0].Answer.(domain.IndicesAnswer); idx[0] != 0 || idx[1] != 1 {
		t.Fatalf("stored attempt changed through a returned copy: %v", idx)
	}
	if idx := ev.Completion.Attempt.Responses[0].Answer.(domain.IndicesAnswer); idx[0] != 0 {
		t.Fatalf("completion attempt shares memory with completion responses: %v", idx)
	}
}

func TestSessionSubscriberKeepsMostRecentCompletions(t *testing.T) {
	s := newSession(newClock())
	events, cancel := s.Subscribe()
	defer cancel()

	var ids []string
	for i := 0; i <= app.SubscriberBuffer; i++ {
		if i > 0 {
			if err := s.Retake(); err != nil {
				t.Fatalf("retake %d: %v", i, err)
			}
		}
		completeAll(t, s)
		attempt, _ := s.Attempt()
		ids = append(ids, attempt.ID)
	}

	// The subscriber never read, so only the oldest completion is gone.
	for _, want := range ids[1:] {
		select {
		case ev := <-events:
			if ev.Type != app.EventCompleted || ev.Completion.Attempt.ID != want {
				t.Fatalf("expected completion of %s, got %+v", want, ev)
			}
		default:
			t.Fatalf("missing completion of %s", want)
		}
	}
	select {
	case ev := <-events:
		t.Fatalf("unexpected extra event %+v", ev)
	default:
	}
}

func TestSessionEmptyQuizCompletesOnStart(t *testing.T) {
	s := app.NewSession("s-empty", "u1", domain.Quiz{ID: "empty"})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	attempt, ok := s.Attempt()
	if !ok || s.State() != app.StateCompleted {
		t.Fatalf("expected empty quiz to complete on start")
	}
	if attempt.MaxScore != 0 || attempt.Percentage != 0 || attempt.MasteryLevel != domain.MasteryNovice {
		t.Fatalf("unexpected empty attempt: %+v", attempt)
	}
}

func completeAll(t *testing.T, s *app.Session) {
	t.Helper()
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	answers := []domain.Answer{domain.IndexAnswer(0), domain.BoolAnswer(true), domain.OrderAnswer{1, 0}}
	for _, a := range answers {
		answerAndSubmit(t, s, a)
		if _, err := s.Next(); err != nil {
			t.Fatalf("next: %v", err)
		}
	}
}
