// internal/scoring/savings.go
package scoring

import "worth-it/internal/models"

const (
	monthsPerYear = 12
	weeksPerYear  = 52
)

// ComputeSavings derives the savings breakdown from an income profile.
// The profile is assumed valid; no range checks are performed here.
func ComputeSavings(p models.IncomeProfile) models.SavingsBreakdown {
	monthly := p.MonthlyIncome * (p.SavingsPercentage / 100)
	annual := monthly * monthsPerYear
	weekly := annual / weeksPerYear
	daily := weekly / p.DaysPerWeek
	hourly := daily / p.HoursPerDay

	return models.SavingsBreakdown{
		Annual:  annual,
		Monthly: monthly,
		Weekly:  weekly,
		Daily:   daily,
		Hourly:  hourly,
	}
}
