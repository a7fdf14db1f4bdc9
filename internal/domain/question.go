package domain

import (
	"encoding/json"
	"fmt"
)

// QuestionType is the tag of one of the six question variants.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeTrueFalse      QuestionType = "true_false"
	TypeMultipleSelect QuestionType = "multiple_select"
	TypeCodeAnalysis   QuestionType = "code_analysis"
	TypeMatching       QuestionType = "matching"
	TypeOrdering       QuestionType = "ordering"
)

// QuestionTypes lists every variant in a stable order.
var QuestionTypes = []QuestionType{
	TypeMultipleChoice,
	TypeTrueFalse,
	TypeMultipleSelect,
	TypeCodeAnalysis,
	TypeMatching,
	TypeOrdering,
}

// AnswerKind returns the only answer shape the variant accepts.
func (t QuestionType) AnswerKind() (AnswerKind, error) {
	switch t {
	case TypeMultipleChoice, TypeCodeAnalysis:
		return KindIndex, nil
	case TypeTrueFalse:
		return KindBool, nil
	case TypeMultipleSelect:
		return KindIndices, nil
	case TypeMatching:
		return KindPairs, nil
	case TypeOrdering:
		return KindOrder, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownQuestionType, string(t))
}

const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Question is a single quiz item. Difficulty doubles as the point weight.
// Questions are treated as immutable once loaded into a session.
type Question struct {
	ID          string
	Difficulty  int
	Concept     string
	Prompt      string
	Explanation string
	Body        Body
}

// Type reports the variant tag carried by the body.
func (q Question) Type() QuestionType {
	if q.Body == nil {
		return ""
	}
	return q.Body.Type()
}

// Body holds the variant-specific fields of a question.
type Body interface {
	Type() QuestionType
	Accept(v BodyVisitor) error
}

// BodyVisitor has one method per variant. Adding a variant adds a method here,
// so every visitor stops compiling until it handles the new case.
type BodyVisitor interface {
	VisitMultipleChoice(MultipleChoice) error
	VisitTrueFalse(TrueFalse) error
	VisitMultipleSelect(MultipleSelect) error
	VisitCodeAnalysis(CodeAnalysis) error
	VisitMatching(Matching) error
	VisitOrdering(Ordering) error
}

type MultipleChoice struct {
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

type TrueFalse struct {
	CorrectAnswer bool `json:"correctAnswer"`
}

// MultipleSelect bounds are presentation hints; zero means unbounded.
type MultipleSelect struct {
	Options        []string `json:"options"`
	CorrectIndices []int    `json:"correctIndices"`
	MinSelections  int      `json:"minSelections,omitempty"`
	MaxSelections  int      `json:"maxSelections,omitempty"`
}

type CodeAnalysis struct {
	CodeSnippet  string   `json:"codeSnippet"`
	Language     string   `json:"language"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Pair links a left-column index to a right-column index.
type Pair struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

type Matching struct {
	LeftColumn   []string `json:"leftColumn"`
	RightColumn  []string `json:"rightColumn"`
	CorrectPairs []Pair   `json:"correctPairs"`
}

// Ordering expects CorrectOrder to be a permutation of item indices.
type Ordering struct {
	Items        []string `json:"items"`
	CorrectOrder []int    `json:"correctOrder"`
}

func (MultipleChoice) Type() QuestionType { return TypeMultipleChoice }
func (TrueFalse) Type() QuestionType      { return TypeTrueFalse }
func (MultipleSelect) Type() QuestionType { return TypeMultipleSelect }
func (CodeAnalysis) Type() QuestionType   { return TypeCodeAnalysis }
func (Matching) Type() QuestionType       { return TypeMatching }
func (Ordering) Type() QuestionType       { return TypeOrdering }

func (b MultipleChoice) Accept(v BodyVisitor) error { return v.VisitMultipleChoice(b) }
func (b TrueFalse) Accept(v BodyVisitor) error      { return v.VisitTrueFalse(b) }
func (b MultipleSelect) Accept(v BodyVisitor) error { return v.VisitMultipleSelect(b) }
func (b CodeAnalysis) Accept(v BodyVisitor) error   { return v.VisitCodeAnalysis(b) }
func (b Matching) Accept(v BodyVisitor) error       { return v.VisitMatching(b) }
func (b Ordering) Accept(v BodyVisitor) error       { return v.VisitOrdering(b) }

// AllowsSelections reports whether count satisfies the optional bounds.
func (b MultipleSelect) AllowsSelections(count int) bool {
	if b.MinSelections > 0 && count < b.MinSelections {
		return false
	}
	if b.MaxSelections > 0 && count > b.MaxSelections {
		return false
	}
	return true
}

// questionHeader is the part of the wire form shared by all variants.
type questionHeader struct {
	ID          string       `json:"id"`
	Type        QuestionType `json:"type"`
	Difficulty  int          `json:"difficulty"`
	Concept     string       `json:"concept"`
	Prompt      string       `json:"prompt"`
	Explanation string       `json:"explanation"`
}

// MarshalJSON writes the question as one flat object discriminated by "type".
func (q Question) MarshalJSON() ([]byte, error) {
	if q.Body == nil {
		return nil, fmt.Errorf("%w: question %q has no body", ErrInvalidQuestion, q.ID)
	}
	header, err := json.Marshal(questionHeader{
		ID:          q.ID,
		Type:        q.Body.Type(),
		Difficulty:  q.Difficulty,
		Concept:     q.Concept,
		Prompt:      q.Prompt,
		Explanation: q.Explanation,
	})
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(q.Body)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(header, &fields); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// UnmarshalJSON reads the flat wire form, picking the body by "type".
func (q *Question) UnmarshalJSON(data []byte) error {
	var header questionHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return err
	}
	body, err := decodeBody(header.Type, data)
	if err != nil {
		return fmt.Errorf("question %q: %w", header.ID, err)
	}
	*q = Question{
		ID:          header.ID,
		Difficulty:  header.Difficulty,
		Concept:     header.Concept,
		Prompt:      header.Prompt,
		Explanation: header.Explanation,
		Body:        body,
	}
	return nil
}

func decodeBody(t QuestionType, data []byte) (Body, error) {
	switch t {
	case TypeMultipleChoice:
		var b MultipleChoice
		err := json.Unmarshal(data, &b)
		return b, err
	case TypeTrueFalse:
		var b TrueFalse
		err := json.Unmarshal(data, &b)
		return b, err
	case TypeMultipleSelect:
		var b MultipleSelect
		err := json.Unmarshal(data, &b)
		return b, err
	case TypeCodeAnalysis:
		var b CodeAnalysis
		err := json.Unmarshal(data, &b)
		return b, err
	case TypeMatching:
		var b Matching
		err := json.Unmarshal(data, &b)
		return b, err
	case TypeOrdering:
		var b Ordering
		err := json.Unmarshal(data, &b)
		return b, err
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownQuestionType, string(t))
}
