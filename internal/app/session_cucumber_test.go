//go:build cucumber

package app_test

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"quiz-assessment/internal/app"
	"quiz-assessment/internal/domain"
)

// TestSessionScenarios runs the session lifecycle feature scenarios.
func TestSessionScenarios(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "quiz-session",
		ScenarioInitializer: initializeSessionScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("features", "session.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

func initializeSessionScenario(ctx *godog.ScenarioContext) {
	state := &sessionScenarioState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.Step(`^a quiz with questions of difficulty 1, 3 and 2$`, state.givenWeightedQuiz)
	ctx.Step(`^I start the session$`, state.whenIStart)
	ctx.Step(`^I answer question (\d+) (correctly|incorrectly) and continue$`, state.whenIAnswerAndContinue)
	ctx.Step(`^I submit without answering$`, state.whenISubmitWithoutAnswering)
	ctx.Step(`^I abandon the session$`, state.whenIAbandon)
	ctx.Step(`^I retake the quiz$`, state.whenIRetake)
	ctx.Step(`^the session is "([^"]+)"$`, state.thenSessionIs)
	ctx.Step(`^the attempt scores (\d+) out of (\d+)$`, state.thenAttemptScores)
	ctx.Step(`^the attempt percentage is (\d+)$`, state.thenPercentageIs)
	ctx.Step(`^the mastery level is "([^"]+)"$`, state.thenMasteryIs)
	ctx.Step(`^the last error contains "([^"]+)"$`, state.thenLastErrorContains)
	ctx.Step(`^(\d+) responses are recorded$`, state.thenResponsesRecorded)
	ctx.Step(`^no attempt is produced$`, state.thenNoAttempt)
	ctx.Step(`^advancing fails with "([^"]+)"$`, state.thenAdvancingFails)
}

type sessionScenarioState struct {
	session *app.Session
	lastErr error
}

func (s *sessionScenarioState) reset() {
	s.session = nil
	s.lastErr = nil
}

func (s *sessionScenarioState) givenWeightedQuiz() error {
	s.session = app.NewSession("scenario", "learner", weightedQuiz())
	return nil
}

func (s *sessionScenarioState) whenIStart() error {
	return s.session.Start()
}

// whenIAnswerAndContinue records the right or a wrong answer for the given
// question of weightedQuiz, submits it and advances.
func (s *sessionScenarioState) whenIAnswerAndContinue(number int, outcome string) error {
	correct := outcome == "correctly"
	var answer domain.Answer
	switch number {
	case 1:
		answer = domain.IndexAnswer(1)
		if correct {
			answer = domain.IndexAnswer(0)
		}
	case 2:
		answer = domain.BoolAnswer(correct)
	case 3:
		answer = domain.OrderAnswer{0, 1}
		if correct {
			answer = domain.OrderAnswer{1, 0}
		}
	default:
		return fmt.Errorf("no question %d", number)
	}

	if err := s.session.RecordAnswer(answer); err != nil {
		return err
	}
	fb, err := s.session.Submit()
	if err != nil {
		return err
	}
	if fb.Correct != correct {
		return fmt.Errorf("question %d: expected correct=%t, got %t", number, correct, fb.Correct)
	}
	_, err = s.session.Next()
	return err
}

func (s *sessionScenarioState) whenISubmitWithoutAnswering() error {
	_, s.lastErr = s.session.Submit()
	return nil
}

func (s *sessionScenarioState) whenIAbandon() error {
	return s.session.Abandon()
}

func (s *sessionScenarioState) whenIRetake() error {
	return s.session.Retake()
}

func (s *sessionScenarioState) thenSessionIs(expected string) error {
	if got := string(s.session.State()); got != expected {
		return fmt.Errorf("expected state %q, got %q", expected, got)
	}
	return nil
}

func (s *sessionScenarioState) thenAttemptScores(score, maxScore int) error {
	attempt, ok := s.session.Attempt()
	if !ok {
		return fmt.Errorf("no attempt")
	}
	if attempt.Score != score || attempt.MaxScore != maxScore {
		return fmt.Errorf("expected %d/%d, got %d/%d", score, maxScore, attempt.Score, attempt.MaxScore)
	}
	return nil
}

func (s *sessionScenarioState) thenPercentageIs(expected int) error {
	attempt, ok := s.session.Attempt()
	if !ok {
		return fmt.Errorf("no attempt")
	}
	if attempt.Percentage != float64(expected) {
		return fmt.Errorf("expected %d%%, got %v", expected, attempt.Percentage)
	}
	return nil
}

func (s *sessionScenarioState) thenMasteryIs(expected string) error {
	attempt, ok := s.session.Attempt()
	if !ok {
		return fmt.Errorf("no attempt")
	}
	if string(attempt.MasteryLevel) != expected {
		return fmt.Errorf("expected mastery %q, got %q", expected, attempt.MasteryLevel)
	}
	return nil
}

func (s *sessionScenarioState) thenLastErrorContains(text string) error {
	if s.lastErr == nil || !strings.Contains(s.lastErr.Error(), text) {
		return fmt.Errorf("expected error containing %q, got %v", text, s.lastErr)
	}
	return nil
}

func (s *sessionScenarioState) thenResponsesRecorded(count int) error {
	if got := len(s.session.Responses()); got != count {
		return fmt.Errorf("expected %d responses, got %d", count, got)
	}
	return nil
}

func (s *sessionScenarioState) thenNoAttempt() error {
	if _, ok := s.session.Attempt(); ok {
		return fmt.Errorf("unexpected attempt")
	}
	return nil
}

func (s *sessionScenarioState) thenAdvancingFails(text string) error {
	_, err := s.session.Next()
	if err == nil || !strings.Contains(err.Error(), text) {
		return fmt.Errorf("expected error containing %q, got %v", text, err)
	}
	return nil
}
