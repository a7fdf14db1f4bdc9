package domain

import (
	"encoding/json"
	"fmt"
	"slices"
)

// AnswerKind names the shape of an answer value.
type AnswerKind string

const (
	KindIndex   AnswerKind = "index"
	KindBool    AnswerKind = "bool"
	KindIndices AnswerKind = "indices"
	KindPairs   AnswerKind = "pairs"
	KindOrder   AnswerKind = "order"
)

// Answer is a submitted value. It is only meaningful next to the question it
// was submitted against.
type Answer interface {
	Kind() AnswerKind
	clone() Answer
	isAnswer()
}

// IndexAnswer selects one option (multiple_choice, code_analysis).
type IndexAnswer int

// BoolAnswer answers a true_false question.
type BoolAnswer bool

// IndicesAnswer is the set of options picked for multiple_select.
type IndicesAnswer []int

// PairsAnswer is the list of pairings submitted for matching.
type PairsAnswer []Pair

// OrderAnswer is the submitted arrangement of item indices for ordering.
type OrderAnswer []int

func (IndexAnswer) Kind() AnswerKind   { return KindIndex }
func (BoolAnswer) Kind() AnswerKind    { return KindBool }
func (IndicesAnswer) Kind() AnswerKind { return KindIndices }
func (PairsAnswer) Kind() AnswerKind   { return KindPairs }
func (OrderAnswer) Kind() AnswerKind   { return KindOrder }

func (a IndexAnswer) clone() Answer   { return a }
func (a BoolAnswer) clone() Answer    { return a }
func (a IndicesAnswer) clone() Answer { return IndicesAnswer(slices.Clone(a)) }
func (a PairsAnswer) clone() Answer   { return PairsAnswer(slices.Clone(a)) }
func (a OrderAnswer) clone() Answer   { return OrderAnswer(slices.Clone(a)) }

// CloneAnswer returns a copy of a that shares no memory with it.
func CloneAnswer(a Answer) Answer {
	if a == nil {
		return nil
	}
	return a.clone()
}

// CloneResponses copies responses together with their answers.
func CloneResponses(rs []QuestionResponse) []QuestionResponse {
	out := make([]QuestionResponse, len(rs))
	for i, r := range rs {
		r.Answer = CloneAnswer(r.Answer)
		if r.Confidence != nil {
			c := *r.Confidence
			r.Confidence = &c
		}
		out[i] = r
	}
	return out
}

func (IndexAnswer) isAnswer()   {}
func (BoolAnswer) isAnswer()    {}
func (IndicesAnswer) isAnswer() {}
func (PairsAnswer) isAnswer()   {}
func (OrderAnswer) isAnswer()   {}

// CheckAnswerShape fails with ErrInvalidAnswerShape when a does not fit t.
func CheckAnswerShape(t QuestionType, a Answer) error {
	want, err := t.AnswerKind()
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("%w: nil answer for %s", ErrInvalidAnswerShape, t)
	}
	if a.Kind() != want {
		return fmt.Errorf("%w: %s question needs %s answer, got %s", ErrInvalidAnswerShape, t, want, a.Kind())
	}
	return nil
}

// DecodeAnswer reads a raw client value using the shape the question type
// implies: a number, a bool, an index array, a pair array or an order array.
func DecodeAnswer(t QuestionType, raw json.RawMessage) (Answer, error) {
	kind, err := t.AnswerKind()
	if err != nil {
		return nil, err
	}
	answer, err := decodeKind(kind, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAnswerShape, t, err)
	}
	return answer, nil
}

func decodeKind(kind AnswerKind, raw json.RawMessage) (Answer, error) {
	switch kind {
	case KindIndex:
		var v int
		err := json.Unmarshal(raw, &v)
		return IndexAnswer(v), err
	case KindBool:
		var v bool
		err := json.Unmarshal(raw, &v)
		return BoolAnswer(v), err
	case KindIndices:
		var v []int
		err := json.Unmarshal(raw, &v)
		return IndicesAnswer(v), err
	case KindPairs:
		var v []Pair
		err := json.Unmarshal(raw, &v)
		return PairsAnswer(v), err
	case KindOrder:
		var v []int
		err := json.Unmarshal(raw, &v)
		return OrderAnswer(v), err
	}
	return nil, fmt.Errorf("unknown answer kind %q", string(kind))
}

// answerEnvelope is the self-describing form used when answers are stored
// away from their question.
type answerEnvelope struct {
	Kind  AnswerKind      `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func marshalAnswer(a Answer) ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	value, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return json.Marshal(answerEnvelope{Kind: a.Kind(), Value: value})
}

func unmarshalAnswer(data []byte) (Answer, error) {
	if string(data) == "null" || len(data) == 0 {
		return nil, nil
	}
	var env answerEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return decodeKind(env.Kind, env.Value)
}
