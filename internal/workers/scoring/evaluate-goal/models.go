// internal/workers/scoring/evaluate-goal/models.go
package evaluategoal

import (
	"worth-it/internal/models"
	"worth-it/internal/scoring"
)

// Input carries the goal to score. Without an incomeProfile the stored one is
// used. With persist set the result is written to history.
type Input struct {
	Goal          models.Goal           `json:"goal"`
	IncomeProfile *models.IncomeProfile `json:"incomeProfile,omitempty"`
	Persist       bool                  `json:"persist"`
}

type Output struct {
	GoalResult     models.GoalResult `json:"goalResult"`
	VerdictDetails scoring.Details   `json:"verdictDetails"`
	ImpactLabel    string            `json:"impactLabel"`
	Formatted      FormattedResult   `json:"formatted"`
	Persisted      bool              `json:"persisted"`
	Updated        bool              `json:"updated"`
}

type FormattedResult struct {
	Cost   string `json:"cost"`
	Hours  string `json:"hours"`
	Days   string `json:"days"`
	Weeks  string `json:"weeks"`
	Months string `json:"months"`
	Years  string `json:"years"`
}
