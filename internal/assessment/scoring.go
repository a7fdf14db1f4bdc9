package assessment

import "quiz-assessment/internal/domain"

// Result is the difficulty-weighted outcome of a set of responses.
type Result struct {
	Score          int     `json:"score"`
	MaxScore       int     `json:"maxScore"`
	Percentage     float64 `json:"percentage"`
	CorrectCount   int     `json:"correctCount"`
	TotalQuestions int     `json:"totalQuestions"`
}

// Score weighs each question by its difficulty. responses are matched to
// questions by position, not by question ID; a missing or nil slot counts as
// not correct.
func Score(questions []domain.Question, responses []*domain.QuestionResponse) Result {
	res := Result{TotalQuestions: len(questions)}
	for i, q := range questions {
		res.MaxScore += q.Difficulty
		if i < len(responses) && responses[i] != nil && responses[i].IsCorrect {
			res.Score += q.Difficulty
			res.CorrectCount++
		}
	}
	res.Percentage = Percentage(res.Score, res.MaxScore)
	return res
}

// Percentage returns score/maxScore*100, or 0 when maxScore is not positive.
func Percentage(score, maxScore int) float64 {
	if maxScore <= 0 {
		return 0
	}
	return float64(score) / float64(maxScore) * 100
}
