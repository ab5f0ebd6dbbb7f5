// internal/models/models_test.go
package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() IncomeProfile {
	return IncomeProfile{
		MonthlyIncome:     3000,
		Currency:          CurrencyUSD,
		SavingsPercentage: 20,
		HoursPerDay:       8,
		DaysPerWeek:       5,
	}
}

func TestIncomeProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *IncomeProfile)
		wantErr string
	}{
		{name: "valid", mutate: func(p *IncomeProfile) {}},
		{name: "zero income", mutate: func(p *IncomeProfile) { p.MonthlyIncome = 0 }, wantErr: "monthlyIncome"},
		{name: "unknown currency", mutate: func(p *IncomeProfile) { p.Currency = "JPY" }, wantErr: "currency"},
		{name: "zero savings", mutate: func(p *IncomeProfile) { p.SavingsPercentage = 0 }, wantErr: "savingsPercentage"},
		{name: "savings over 100", mutate: func(p *IncomeProfile) { p.SavingsPercentage = 101 }, wantErr: "savingsPercentage"},
		{name: "hours over 24", mutate: func(p *IncomeProfile) { p.HoursPerDay = 25 }, wantErr: "hoursPerDay"},
		{name: "zero days", mutate: func(p *IncomeProfile) { p.DaysPerWeek = 0 }, wantErr: "daysPerWeek"},
		{name: "eight days", mutate: func(p *IncomeProfile) { p.DaysPerWeek = 8 }, wantErr: "daysPerWeek"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewGoal(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGoal("Trip to Japan", 4000, GoalTypeExperience, 20, 5, now)

	assert.NotEmpty(t, g.ID)
	assert.Equal(t, now.UnixMilli(), g.Timestamp)
	assert.Equal(t, now, g.CreatedAt())
	assert.NoError(t, g.Validate())

	other := NewGoal("Trip to Japan", 4000, GoalTypeExperience, 20, 5, now)
	assert.NotEqual(t, g.ID, other.ID)
}

func TestGoal_Validate(t *testing.T) {
	base := Goal{ID: "g", Name: "Laptop", Cost: 1500, Type: GoalTypeProduct, Years: 4, Impact: 3}
	assert.NoError(t, base.Validate())

	bad := []func(g *Goal){
		func(g *Goal) { g.Name = "  " },
		func(g *Goal) { g.Cost = 0 },
		func(g *Goal) { g.Type = "service" },
		func(g *Goal) { g.Years = 0 },
		func(g *Goal) { g.Years = 51 },
		func(g *Goal) { g.Impact = 0 },
		func(g *Goal) { g.Impact = 6 },
	}
	for i, mutate := range bad {
		g := base
		mutate(&g)
		assert.Error(t, g.Validate(), "case %d", i)
	}
}

func TestGoalResult_JSONShape(t *testing.T) {
	r := GoalResult{
		Goal:        Goal{ID: "g-1", Name: "Laptop", Cost: 1500, Type: GoalTypeProduct, Years: 4, Impact: 3, Timestamp: 42},
		SavingsTime: SavingsTime{Hours: 10, Days: 2, Weeks: 1, Months: 0.5, Years: 0.1},
		GoalScore:   80,
		Verdict:     VerdictWorth,
	}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	for _, key := range []string{"id", "name", "cost", "type", "years", "impact", "timestamp", "savingsTime", "goalScore", "verdict"} {
		assert.Contains(t, generic, key)
	}

	var back GoalResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, r, back)
}

func TestSavingsTime_InfiniteAsNull(t *testing.T) {
	inf := math.Inf(1)
	st := SavingsTime{Hours: inf, Days: inf, Weeks: inf, Months: inf, Years: inf}

	data, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hours":null,"days":null,"weeks":null,"months":null,"years":null}`, string(data))

	var back SavingsTime
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, math.IsInf(back.Hours, 1))
	assert.True(t, math.IsInf(back.Years, 1))
}
