package domain

import "fmt"

// Check validates every question and rejects duplicate question IDs.
// An empty quiz is valid.
func (q Quiz) Check() error {
	if q.ID == "" {
		return fmt.Errorf("%w: quiz id is empty", ErrInvalidQuestion)
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		if err := question.Check(); err != nil {
			return fmt.Errorf("quiz %q question %d: %w", q.ID, i, err)
		}
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: quiz %q has duplicate question id %q", ErrInvalidQuestion, q.ID, question.ID)
		}
		seen[question.ID] = struct{}{}
	}
	return nil
}

// CheckLoaded validates a quiz a loader returned for quizID. Attempts are
// filed under the quiz ID, so it must be the one that was asked for.
func (q Quiz) CheckLoaded(quizID string) error {
	if q.ID != quizID {
		return fmt.Errorf("%w: quiz %s loaded with id %q", ErrInvalidQuestion, quizID, q.ID)
	}
	return q.Check()
}

// Check validates a single question against the rules of its variant.
func (q Question) Check() error {
	if q.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidQuestion)
	}
	if q.Difficulty < MinDifficulty || q.Difficulty > MaxDifficulty {
		return fmt.Errorf("%w: %q difficulty %d outside %d-%d", ErrInvalidQuestion, q.ID, q.Difficulty, MinDifficulty, MaxDifficulty)
	}
	if q.Body == nil {
		return fmt.Errorf("%w: %q has no body", ErrInvalidQuestion, q.ID)
	}
	if err := q.Body.Accept(bodyChecker{}); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidQuestion, q.ID, err)
	}
	return nil
}

type bodyChecker struct{}

func (bodyChecker) VisitMultipleChoice(b MultipleChoice) error {
	return checkOption(b.CorrectIndex, len(b.Options))
}

func (bodyChecker) VisitTrueFalse(TrueFalse) error { return nil }

func (bodyChecker) VisitMultipleSelect(b MultipleSelect) error {
	if len(b.CorrectIndices) == 0 {
		return fmt.Errorf("no correct indices")
	}
	if err := checkDistinct(b.CorrectIndices, len(b.Options)); err != nil {
		return err
	}
	if b.MinSelections < 0 || b.MaxSelections < 0 {
		return fmt.Errorf("negative selection bound")
	}
	if b.MaxSelections > 0 && b.MinSelections > b.MaxSelections {
		return fmt.Errorf("min selections %d above max %d", b.MinSelections, b.MaxSelections)
	}
	if !b.AllowsSelections(len(b.CorrectIndices)) {
		return fmt.Errorf("correct answer violates selection bounds")
	}
	return nil
}

func (bodyChecker) VisitCodeAnalysis(b CodeAnalysis) error {
	if b.CodeSnippet == "" {
		return fmt.Errorf("empty code snippet")
	}
	return checkOption(b.CorrectIndex, len(b.Options))
}

func (bodyChecker) VisitMatching(b Matching) error {
	if len(b.CorrectPairs) == 0 {
		return fmt.Errorf("no correct pairs")
	}
	seen := make(map[Pair]struct{}, len(b.CorrectPairs))
	for _, p := range b.CorrectPairs {
		if p.Left < 0 || p.Left >= len(b.LeftColumn) || p.Right < 0 || p.Right >= len(b.RightColumn) {
			return fmt.Errorf("pair (%d,%d) out of range", p.Left, p.Right)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("duplicate pair (%d,%d)", p.Left, p.Right)
		}
		seen[p] = struct{}{}
	}
	return nil
}

func (bodyChecker) VisitOrdering(b Ordering) error {
	if len(b.Items) == 0 {
		return fmt.Errorf("no items")
	}
	if len(b.CorrectOrder) != len(b.Items) {
		return fmt.Errorf("correct order has %d entries for %d items", len(b.CorrectOrder), len(b.Items))
	}
	return checkDistinct(b.CorrectOrder, len(b.Items))
}

func checkOption(index, count int) error {
	if count == 0 {
		return fmt.Errorf("no options")
	}
	if index < 0 || index >= count {
		return fmt.Errorf("correct index %d out of range", index)
	}
	return nil
}

func checkDistinct(indices []int, count int) error {
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		if i < 0 || i >= count {
			return fmt.Errorf("index %d out of range", i)
		}
		if _, dup := seen[i]; dup {
			return fmt.Errorf("duplicate index %d", i)
		}
		seen[i] = struct{}{}
	}
	return nil
}
