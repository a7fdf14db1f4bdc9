package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Quiz is an ordered sequence of questions. It is read-only for the
// lifetime of a session.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// Confidence is an optional self-rating attached to a response.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence validates a raw confidence value.
func ParseConfidence(raw string) (Confidence, error) {
	switch c := Confidence(raw); c {
	case ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidConfidence, raw)
}

// QuestionResponse records one submission. IsCorrect is computed once at
// submission time and never changes.
type QuestionResponse struct {
	QuestionID string
	Answer     Answer
	IsCorrect  bool
	Confidence *Confidence
	// TimeTaken is in seconds.
	TimeTaken float64
}

type questionResponseJSON struct {
	QuestionID string          `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
	IsCorrect  bool            `json:"isCorrect"`
	Confidence *Confidence     `json:"confidence,omitempty"`
	TimeTaken  float64         `json:"timeTaken"`
}

func (r QuestionResponse) MarshalJSON() ([]byte, error) {
	answer, err := marshalAnswer(r.Answer)
	if err != nil {
		return nil, err
	}
	return json.Marshal(questionResponseJSON{
		QuestionID: r.QuestionID,
		Answer:     answer,
		IsCorrect:  r.IsCorrect,
		Confidence: r.Confidence,
		TimeTaken:  r.TimeTaken,
	})
}

func (r *QuestionResponse) UnmarshalJSON(data []byte) error {
	var raw questionResponseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	answer, err := unmarshalAnswer(raw.Answer)
	if err != nil {
		return fmt.Errorf("response %q: %w", raw.QuestionID, err)
	}
	*r = QuestionResponse{
		QuestionID: raw.QuestionID,
		Answer:     answer,
		IsCorrect:  raw.IsCorrect,
		Confidence: raw.Confidence,
		TimeTaken:  raw.TimeTaken,
	}
	return nil
}

// MasteryLevel is the tier derived from an attempt percentage.
type MasteryLevel string

const (
	MasteryNovice     MasteryLevel = "novice"
	MasteryDeveloping MasteryLevel = "developing"
	MasteryProficient MasteryLevel = "proficient"
	MasteryExpert     MasteryLevel = "expert"
)

// QuizAttempt summarizes one completed run through a quiz. It is derived at
// session completion and treated as append-only afterwards.
type QuizAttempt struct {
	ID             string             `json:"id"`
	QuizID         string             `json:"quizId"`
	UserID         string             `json:"userId"`
	Score          int                `json:"score"`
	MaxScore       int                `json:"maxScore"`
	TotalQuestions int                `json:"totalQuestions"`
	CorrectCount   int                `json:"correctCount"`
	Percentage     float64            `json:"percentage"`
	MasteryLevel   MasteryLevel       `json:"masteryLevel"`
	CompletedAt    time.Time          `json:"completedAt"`
	Responses      []QuestionResponse `json:"responses,omitempty"`
}
