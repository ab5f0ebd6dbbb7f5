// internal/scoring/goal.go
package scoring

import (
	"math"

	"worth-it/internal/models"
)

// Calibration constants of the goal score. They have no independent meaning
// and must stay as they are for output parity with stored history.
const (
	hoursPerYear    = 365 * 24
	valueWeight     = 2
	impactExponent  = 2.2
	scoreMultiplier = 0.75
	MaxGoalScore    = 100.0
	MinGoalScore    = 0.0
)

// ComputeGoalResult scores a goal against an income profile.
//
// A zero savings rate makes every savings time +Inf. The score then evaluates
// to 0 and the verdict is worthless; callers render the infinite times with
// FormatTime, which understands the sentinel. NaN scores (0/0 style inputs)
// are also treated as 0.
func ComputeGoalResult(goal models.Goal, p models.IncomeProfile) models.GoalResult {
	savings := ComputeSavings(p)
	st := computeSavingsTime(goal.Cost, savings)
	score := clampScore(rawScore(goal, st.Hours))

	return models.GoalResult{
		Goal:        goal,
		SavingsTime: st,
		GoalScore:   score,
		Verdict:     VerdictFor(score),
	}
}

func computeSavingsTime(cost float64, s models.SavingsBreakdown) models.SavingsTime {
	return models.SavingsTime{
		Hours:  divide(cost, s.Hourly),
		Days:   divide(cost, s.Daily),
		Weeks:  divide(cost, s.Weekly),
		Months: divide(cost, s.Monthly),
		Years:  divide(cost, s.Annual),
	}
}

// divide returns +Inf for a zero rate instead of relying on float division,
// so a zero cost at a zero rate is still "never affordable" rather than NaN.
func divide(cost, rate float64) float64 {
	if rate == 0 {
		return math.Inf(1)
	}
	return cost / rate
}

func rawScore(goal models.Goal, hours float64) float64 {
	years := float64(goal.Years)
	value := (years * hoursPerYear * valueWeight) / hours
	return math.Sqrt(value*years*math.Pow(float64(goal.Impact), impactExponent)) * scoreMultiplier
}

func clampScore(score float64) float64 {
	if math.IsNaN(score) || score < MinGoalScore {
		return MinGoalScore
	}
	return math.Min(MaxGoalScore, score)
}
