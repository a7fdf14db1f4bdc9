package http

import (
	"errors"

	"quiz-assessment/internal/app"
	"quiz-assessment/internal/domain"
)

// questionView is what a client may see of a question: the prompt and the
// choices, never the answer key.
type questionView struct {
	ID            string              `json:"id"`
	Type          domain.QuestionType `json:"type"`
	Difficulty    int                 `json:"difficulty"`
	Concept       string              `json:"concept,omitempty"`
	Prompt        string              `json:"prompt"`
	Options       []string            `json:"options,omitempty"`
	MinSelections int                 `json:"minSelections,omitempty"`
	MaxSelections int                 `json:"maxSelections,omitempty"`
	CodeSnippet   string              `json:"codeSnippet,omitempty"`
	Language      string              `json:"language,omitempty"`
	LeftColumn    []string            `json:"leftColumn,omitempty"`
	RightColumn   []string            `json:"rightColumn,omitempty"`
	Items         []string            `json:"items,omitempty"`
}

func newQuestionView(q domain.Question) questionView {
	v := &questionView{
		ID:         q.ID,
		Type:       q.Type(),
		Difficulty: q.Difficulty,
		Concept:    q.Concept,
		Prompt:     q.Prompt,
	}
	if q.Body != nil {
		_ = q.Body.Accept(v)
	}
	return *v
}

func (v *questionView) VisitMultipleChoice(b domain.MultipleChoice) error {
	v.Options = b.Options
	return nil
}

func (v *questionView) VisitTrueFalse(domain.TrueFalse) error { return nil }

func (v *questionView) VisitMultipleSelect(b domain.MultipleSelect) error {
	v.Options = b.Options
	v.MinSelections = b.MinSelections
	v.MaxSelections = b.MaxSelections
	return nil
}

func (v *questionView) VisitCodeAnalysis(b domain.CodeAnalysis) error {
	v.CodeSnippet = b.CodeSnippet
	v.Language = b.Language
	v.Options = b.Options
	return nil
}

func (v *questionView) VisitMatching(b domain.Matching) error {
	v.LeftColumn = b.LeftColumn
	v.RightColumn = b.RightColumn
	return nil
}

func (v *questionView) VisitOrdering(b domain.Ordering) error {
	v.Items = b.Items
	return nil
}

type quizView struct {
	ID        string         `json:"id"`
	Title     string         `json:"title,omitempty"`
	Questions []questionView `json:"questions"`
}

func newQuizView(q domain.Quiz) quizView {
	questions := make([]questionView, 0, len(q.Questions))
	for _, question := range q.Questions {
		questions = append(questions, newQuestionView(question))
	}
	return quizView{ID: q.ID, Title: q.Title, Questions: questions}
}

type stateView struct {
	SessionID       string             `json:"sessionId"`
	QuizID          string             `json:"quizId"`
	State           app.State          `json:"state"`
	CurrentIndex    int                `json:"currentIndex"`
	TotalQuestions  int                `json:"totalQuestions"`
	Progress        float64            `json:"progress"`
	Question        *questionView      `json:"question,omitempty"`
	PendingAnswer   domain.Answer      `json:"pendingAnswer,omitempty"`
	Confidence      *domain.Confidence `json:"confidence,omitempty"`
	FeedbackVisible bool               `json:"feedbackVisible"`
	Answered        int                `json:"answered"`
}

func newStateView(s *app.Session) stateView {
	v := stateView{
		SessionID:       s.ID(),
		QuizID:          s.Quiz().ID,
		State:           s.State(),
		CurrentIndex:    s.CurrentIndex(),
		TotalQuestions:  len(s.Quiz().Questions),
		Progress:        s.Progress(),
		PendingAnswer:   s.PendingAnswer(),
		Confidence:      s.Confidence(),
		FeedbackVisible: s.FeedbackVisible(),
		Answered:        len(s.Responses()),
	}
	if q, ok := s.CurrentQuestion(); ok {
		qv := newQuestionView(q)
		v.Question = &qv
	}
	return v
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newErrorPayload(err error) errorPayload {
	return errorPayload{Code: errorCode(err), Message: err.Error()}
}

// errorCode maps domain errors to stable protocol codes. Order matters:
// an abandoned session also reports ErrIllegalTransition.
func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionAbandoned):
		return "session_abandoned"
	case errors.Is(err, domain.ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, domain.ErrMissingAnswer):
		return "missing_answer"
	case errors.Is(err, domain.ErrInvalidAnswerShape):
		return "invalid_answer"
	case errors.Is(err, domain.ErrInvalidConfidence):
		return "invalid_confidence"
	case errors.Is(err, domain.ErrQuizNotFound):
		return "quiz_not_found"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domain.ErrInvalidQuestion), errors.Is(err, domain.ErrUnknownQuestionType):
		return "invalid_quiz"
	default:
		return "internal"
	}
}
