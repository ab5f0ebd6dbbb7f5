// internal/workers/history/clear-history/models.go
package clearhistory

// Input selects what to clear. The income profile is kept unless
// includeIncome is set.
type Input struct {
	IncludeIncome bool `json:"includeIncome"`
}

type Output struct {
	Cleared       bool `json:"cleared"`
	RemovedGoals  int  `json:"removedGoals"`
	IncomeCleared bool `json:"incomeCleared"`
}
