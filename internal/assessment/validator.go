// Package assessment holds the pure parts of quiz grading: answer validation,
// difficulty-weighted scoring, mastery tiers and attempt history statistics.
package assessment

import (
	"fmt"

	"quiz-assessment/internal/domain"
)

// Validate reports whether answer is correct for question. An answer whose
// shape does not fit the question's variant fails with ErrInvalidAnswerShape.
func Validate(question domain.Question, answer domain.Answer) (bool, error) {
	if question.Body == nil {
		return false, fmt.Errorf("%w: question %q has no body", domain.ErrInvalidQuestion, question.ID)
	}
	if err := domain.CheckAnswerShape(question.Type(), answer); err != nil {
		return false, err
	}
	v := &answerValidator{answer: answer}
	if err := question.Body.Accept(v); err != nil {
		return false, err
	}
	return v.correct, nil
}

// answerValidator visits the question body; every variant must set correct
// explicitly, there is no fallthrough.
type answerValidator struct {
	answer  domain.Answer
	correct bool
}

func (v *answerValidator) VisitMultipleChoice(b domain.MultipleChoice) error {
	v.correct = int(v.answer.(domain.IndexAnswer)) == b.CorrectIndex
	return nil
}

func (v *answerValidator) VisitCodeAnalysis(b domain.CodeAnalysis) error {
	v.correct = int(v.answer.(domain.IndexAnswer)) == b.CorrectIndex
	return nil
}

func (v *answerValidator) VisitTrueFalse(b domain.TrueFalse) error {
	v.correct = bool(v.answer.(domain.BoolAnswer)) == b.CorrectAnswer
	return nil
}

// VisitMultipleSelect requires exact set equality: a superset of the correct
// indices is wrong.
func (v *answerValidator) VisitMultipleSelect(b domain.MultipleSelect) error {
	v.correct = sameSet(v.answer.(domain.IndicesAnswer), b.CorrectIndices)
	return nil
}

// VisitMatching only requires every correct pair to be present. Extra pairs
// are not penalized, unlike multiple_select.
func (v *answerValidator) VisitMatching(b domain.Matching) error {
	submitted := make(map[domain.Pair]struct{}, len(v.answer.(domain.PairsAnswer)))
	for _, p := range v.answer.(domain.PairsAnswer) {
		submitted[p] = struct{}{}
	}
	for _, p := range b.CorrectPairs {
		if _, ok := submitted[p]; !ok {
			v.correct = false
			return nil
		}
	}
	v.correct = true
	return nil
}

// VisitOrdering compares position by position; one misplaced item fails the question.
func (v *answerValidator) VisitOrdering(b domain.Ordering) error {
	order := v.answer.(domain.OrderAnswer)
	if len(order) != len(b.CorrectOrder) {
		v.correct = false
		return nil
	}
	for i := range b.CorrectOrder {
		if order[i] != b.CorrectOrder[i] {
			v.correct = false
			return nil
		}
	}
	v.correct = true
	return nil
}

func sameSet(submitted, correct []int) bool {
	a := toSet(submitted)
	b := toSet(correct)
	if len(a) != len(b) || len(submitted) != len(a) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			return false
		}
	}
	return true
}

func toSet(values []int) map[int]struct{} {
	set := make(map[int]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
