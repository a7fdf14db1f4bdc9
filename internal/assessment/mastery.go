package assessment

import "quiz-assessment/internal/domain"

// Lower bounds (inclusive) of each mastery tier, in percent.
const (
	ExpertThreshold     = 86
	ProficientThreshold = 71
	DevelopingThreshold = 41
)

// Classify maps a percentage to its mastery tier. NaN falls to novice.
func Classify(percentage float64) domain.MasteryLevel {
	switch {
	case percentage >= ExpertThreshold:
		return domain.MasteryExpert
	case percentage >= ProficientThreshold:
		return domain.MasteryProficient
	case percentage >= DevelopingThreshold:
		return domain.MasteryDeveloping
	default:
		return domain.MasteryNovice
	}
}
