package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been initialized.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuestion indicates quiz content that breaks a structural rule.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrUnknownQuestionType is returned for a type tag outside the six variants.
	ErrUnknownQuestionType = errors.New("unknown question type")

	// ErrInvalidAnswerShape means an answer does not fit the variant it is checked against.
	ErrInvalidAnswerShape = errors.New("answer shape does not match question type")
	// ErrMissingAnswer is returned when a submission has no pending answer.
	ErrMissingAnswer = errors.New("no answer recorded for current question")
	// ErrIllegalTransition is returned when a session operation is not valid in its current state.
	ErrIllegalTransition = errors.New("illegal session transition")
	// ErrSessionAbandoned is returned, alongside ErrIllegalTransition, for any
	// operation on a session that was abandoned.
	ErrSessionAbandoned = errors.New("session abandoned")
	// ErrInvalidConfidence is returned for confidence values outside low/medium/high.
	ErrInvalidConfidence = errors.New("invalid confidence level")
)
