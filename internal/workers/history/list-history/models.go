// internal/workers/history/list-history/models.go
package listhistory

import "worth-it/internal/models"

// Input filters the listing. Zero values list everything, oldest first.
type Input struct {
	Verdict       models.Verdict `json:"verdict,omitempty"`
	Limit         int            `json:"limit,omitempty"`
	IncludeIncome bool           `json:"includeIncome"`
}

type Output struct {
	GoalResults   []models.GoalResult      `json:"goalResults"`
	Count         int                      `json:"count"`
	Total         int                      `json:"total"`
	IncomeProfile *models.IncomeProfile    `json:"incomeProfile,omitempty"`
	Savings       *models.SavingsBreakdown `json:"savings,omitempty"`
}
