// internal/workers/scoring/compute-savings/models.go
package computesavings

import "worth-it/internal/models"

type Input struct {
	IncomeProfile models.IncomeProfile `json:"incomeProfile"`
}

type Output struct {
	Savings   models.SavingsBreakdown `json:"savings"`
	Formatted FormattedSavings        `json:"formattedSavings"`
}

// FormattedSavings holds the breakdown rendered in the profile currency.
type FormattedSavings struct {
	Annual  string `json:"annual"`
	Monthly string `json:"monthly"`
	Weekly  string `json:"weekly"`
	Daily   string `json:"daily"`
	Hourly  string `json:"hourly"`
}
