package assessment

import "quiz-assessment/internal/domain"

// Feedback is shown after a submission. The partial counts are for display
// only and never feed into Score.
type Feedback struct {
	QuestionID  string `json:"questionId"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`

	// ordering: items in the right position.
	CorrectPositions int `json:"correctPositions,omitempty"`
	// matching: correct pairs found among the submitted ones.
	MatchedPairs int `json:"matchedPairs,omitempty"`
	// multiple_select: correct indices not picked, and picked indices that are wrong.
	Missing []int `json:"missing,omitempty"`
	Extra   []int `json:"extra,omitempty"`
	// Total is the number of positions, pairs or correct indices the counts relate to.
	Total int `json:"total,omitempty"`
}

// Explain validates answer and adds per-variant detail for presentation.
func Explain(question domain.Question, answer domain.Answer) (Feedback, error) {
	correct, err := Validate(question, answer)
	if err != nil {
		return Feedback{}, err
	}
	fb := Feedback{
		QuestionID:  question.ID,
		Correct:     correct,
		Explanation: question.Explanation,
	}

	switch body := question.Body.(type) {
	case domain.Ordering:
		order := answer.(domain.OrderAnswer)
		fb.Total = len(body.CorrectOrder)
		for i := range body.CorrectOrder {
			if i < len(order) && order[i] == body.CorrectOrder[i] {
				fb.CorrectPositions++
			}
		}
	case domain.Matching:
		submitted := make(map[domain.Pair]struct{})
		for _, p := range answer.(domain.PairsAnswer) {
			submitted[p] = struct{}{}
		}
		fb.Total = len(body.CorrectPairs)
		for _, p := range body.CorrectPairs {
			if _, ok := submitted[p]; ok {
				fb.MatchedPairs++
			}
		}
	case domain.MultipleSelect:
		picked := toSet(answer.(domain.IndicesAnswer))
		want := toSet(body.CorrectIndices)
		fb.Total = len(body.CorrectIndices)
		for _, i := range body.CorrectIndices {
			if _, ok := picked[i]; !ok {
				fb.Missing = append(fb.Missing, i)
			}
		}
		for _, i := range answer.(domain.IndicesAnswer) {
			if _, ok := want[i]; !ok {
				fb.Extra = append(fb.Extra, i)
			}
		}
	}
	return fb, nil
}
