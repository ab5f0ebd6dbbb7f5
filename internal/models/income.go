// internal/models/income.go
package models

import "fmt"

// Currency is a display label only; amounts are never converted.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
)

// Currencies lists the supported currencies in display order.
var Currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyINR}

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	for _, known := range Currencies {
		if c == known {
			return true
		}
	}
	return false
}

// IncomeProfile is the single income record the goal evaluations are scored against.
type IncomeProfile struct {
	MonthlyIncome     float64  `json:"monthlyIncome"`
	Currency          Currency `json:"currency"`
	SavingsPercentage float64  `json:"savingsPercentage"`
	HoursPerDay       float64  `json:"hoursPerDay"`
	DaysPerWeek       float64  `json:"daysPerWeek"`
}

// Validate checks the range invariants required before any computation.
func (p IncomeProfile) Validate() error {
	switch {
	case p.MonthlyIncome <= 0:
		return fmt.Errorf("monthlyIncome must be greater than 0, got %v", p.MonthlyIncome)
	case !p.Currency.Valid():
		return fmt.Errorf("currency %q is not supported", p.Currency)
	case p.SavingsPercentage < 1 || p.SavingsPercentage > 100:
		return fmt.Errorf("savingsPercentage must be between 1 and 100, got %v", p.SavingsPercentage)
	case p.HoursPerDay < 1 || p.HoursPerDay > 24:
		return fmt.Errorf("hoursPerDay must be between 1 and 24, got %v", p.HoursPerDay)
	case p.DaysPerWeek < 1 || p.DaysPerWeek > 7:
		return fmt.Errorf("daysPerWeek must be between 1 and 7, got %v", p.DaysPerWeek)
	}
	return nil
}

// SavingsBreakdown is the savings rate at five granularities. It is derived, never stored.
type SavingsBreakdown struct {
	Annual  float64 `json:"annual"`
	Monthly float64 `json:"monthly"`
	Weekly  float64 `json:"weekly"`
	Daily   float64 `json:"daily"`
	Hourly  float64 `json:"hourly"`
}
