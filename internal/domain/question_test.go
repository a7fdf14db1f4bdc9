package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestQuestionJSONFlatWireForm(t *testing.T) {
	raw := []byte(`{
		"id": "q-order",
		"type": "ordering",
		"difficulty": 3,
		"concept": "sorting",
		"prompt": "Order the steps",
		"explanation": "Parse before eval",
		"items": ["lex", "parse", "eval"],
		"correctOrder": [0, 1, 2]
	}`)

	var q Question
	if err := json.Unmarshal(raw, &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.Type() != TypeOrdering || q.Difficulty != 3 || q.Prompt != "Order the steps" {
		t.Fatalf("unexpected header: %+v", q)
	}
	body, ok := q.Body.(Ordering)
	if !ok {
		t.Fatalf("expected Ordering body, got %T", q.Body)
	}
	if len(body.Items) != 3 || body.CorrectOrder[2] != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}

	out, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatalf("decode marshalled: %v", err)
	}
	if fields["type"] != "ordering" || fields["items"] == nil {
		t.Fatalf("expected flat object with type and items, got %s", out)
	}
}

func TestQuestionJSONUnknownType(t *testing.T) {
	var q Question
	err := json.Unmarshal([]byte(`{"id":"q1","type":"essay","difficulty":1}`), &q)
	if !errors.Is(err, ErrUnknownQuestionType) {
		t.Fatalf("expected ErrUnknownQuestionType, got %v", err)
	}
}

func TestDecodeAnswerUsesQuestionShape(t *testing.T) {
	cases := []struct {
		typ  QuestionType
		raw  string
		kind AnswerKind
	}{
		{TypeMultipleChoice, `2`, KindIndex},
		{TypeCodeAnalysis, `0`, KindIndex},
		{TypeTrueFalse, `true`, KindBool},
		{TypeMultipleSelect, `[0,2]`, KindIndices},
		{TypeMatching, `[{"left":0,"right":1}]`, KindPairs},
		{TypeOrdering, `[2,0,1]`, KindOrder},
	}
	for _, tc := range cases {
		a, err := DecodeAnswer(tc.typ, json.RawMessage(tc.raw))
		if err != nil {
			t.Fatalf("%s: decode: %v", tc.typ, err)
		}
		if a.Kind() != tc.kind {
			t.Fatalf("%s: expected %s, got %s", tc.typ, tc.kind, a.Kind())
		}
	}

	if _, err := DecodeAnswer(TypeTrueFalse, json.RawMessage(`[1]`)); !errors.Is(err, ErrInvalidAnswerShape) {
		t.Fatalf("expected ErrInvalidAnswerShape, got %v", err)
	}
}

func TestCheckAnswerShape(t *testing.T) {
	if err := CheckAnswerShape(TypeMultipleChoice, IndexAnswer(1)); err != nil {
		t.Fatalf("expected index answer accepted: %v", err)
	}
	if err := CheckAnswerShape(TypeMultipleChoice, BoolAnswer(true)); !errors.Is(err, ErrInvalidAnswerShape) {
		t.Fatalf("expected shape error, got %v", err)
	}
	if err := CheckAnswerShape(TypeOrdering, nil); !errors.Is(err, ErrInvalidAnswerShape) {
		t.Fatalf("expected shape error for nil, got %v", err)
	}
}

func TestQuestionResponseKeepsAnswerKind(t *testing.T) {
	conf := ConfidenceHigh
	in := QuestionResponse{
		QuestionID: "q1",
		Answer:     PairsAnswer{{Left: 0, Right: 1}},
		IsCorrect:  true,
		Confidence: &conf,
		TimeTaken:  4.5,
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out QuestionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	pairs, ok := out.Answer.(PairsAnswer)
	if !ok || len(pairs) != 1 || pairs[0].Right != 1 {
		t.Fatalf("expected pairs answer to survive, got %#v", out.Answer)
	}
	if out.Confidence == nil || *out.Confidence != ConfidenceHigh || out.TimeTaken != 4.5 {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestQuestionCheck(t *testing.T) {
	valid := Question{ID: "q1", Difficulty: 2, Body: MultipleChoice{Options: []string{"a", "b"}, CorrectIndex: 1}}
	if err := valid.Check(); err != nil {
		t.Fatalf("expected valid question: %v", err)
	}

	bad := []Question{
		{ID: "", Difficulty: 1, Body: TrueFalse{}},
		{ID: "d0", Difficulty: 0, Body: TrueFalse{}},
		{ID: "d6", Difficulty: 6, Body: TrueFalse{}},
		{ID: "mc", Difficulty: 1, Body: MultipleChoice{Options: []string{"a"}, CorrectIndex: 1}},
		{ID: "ms", Difficulty: 1, Body: MultipleSelect{Options: []string{"a", "b"}, CorrectIndices: []int{0, 0}}},
		{ID: "bounds", Difficulty: 1, Body: MultipleSelect{Options: []string{"a", "b", "c"}, CorrectIndices: []int{0, 1}, MaxSelections: 1}},
		{ID: "code", Difficulty: 1, Body: CodeAnalysis{Options: []string{"a"}}},
		{ID: "match", Difficulty: 1, Body: Matching{LeftColumn: []string{"a"}, RightColumn: []string{"b"}, CorrectPairs: []Pair{{Left: 0, Right: 3}}}},
		{ID: "order", Difficulty: 1, Body: Ordering{Items: []string{"a", "b"}, CorrectOrder: []int{1, 1}}},
		{ID: "nobody", Difficulty: 1},
	}
	for _, q := range bad {
		if err := q.Check(); !errors.Is(err, ErrInvalidQuestion) {
			t.Fatalf("%q: expected ErrInvalidQuestion, got %v", q.ID, err)
		}
	}
}

func TestQuizCheckRejectsDuplicateIDs(t *testing.T) {
	q := Question{ID: "q1", Difficulty: 1, Body: TrueFalse{CorrectAnswer: true}}
	quiz := Quiz{ID: "quiz", Questions: []Question{q, q}}
	if err := quiz.Check(); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	if err := (Quiz{ID: "empty"}).Check(); err != nil {
		t.Fatalf("expected empty quiz to be valid: %v", err)
	}
}

func TestQuizCheckLoaded(t *testing.T) {
	quiz := Quiz{ID: "go-basics", Questions: []Question{{ID: "q1", Difficulty: 1, Body: TrueFalse{}}}}
	if err := quiz.CheckLoaded("go-basics"); err != nil {
		t.Fatalf("expected quiz to load under its own id: %v", err)
	}
	if err := quiz.CheckLoaded("other-id"); !errors.Is(err, ErrInvalidQuestion) {
		t.Fatalf("expected id mismatch to be rejected, got %v", err)
	}
}

func TestCloneAnswerCopiesSlices(t *testing.T) {
	order := OrderAnswer{2, 0, 1}
	cloned := CloneAnswer(order).(OrderAnswer)
	cloned[0] = 9
	if order[0] != 2 {
		t.Fatalf("clone shares memory with the original: %v", order)
	}
	if CloneAnswer(nil) != nil {
		t.Fatalf("expected nil clone of nil answer")
	}
	if CloneAnswer(IndexAnswer(3)) != IndexAnswer(3) {
		t.Fatalf("expected scalar answers to clone by value")
	}
}

func TestParseConfidence(t *testing.T) {
	if c, err := ParseConfidence("medium"); err != nil || c != ConfidenceMedium {
		t.Fatalf("expected medium, got %q %v", c, err)
	}
	if _, err := ParseConfidence("certain"); !errors.Is(err, ErrInvalidConfidence) {
		t.Fatalf("expected ErrInvalidConfidence, got %v", err)
	}
}
