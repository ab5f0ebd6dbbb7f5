// internal/models/goal.go
package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type GoalType string

const (
	GoalTypeProduct    GoalType = "product"
	GoalTypeExperience GoalType = "experience"
)

func (t GoalType) Valid() bool {
	return t == GoalTypeProduct || t == GoalTypeExperience
}

const (
	MinGoalYears  = 1
	MaxGoalYears  = 50
	MinImpact     = 1
	MaxImpact     = 5
	DefaultImpact = 2
)

// Goal is a purchase intent. ID and Timestamp are fixed at creation and survive edits.
type Goal struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Cost      float64  `json:"cost"`
	Type      GoalType `json:"type"`
	Years     int      `json:"years"`
	Impact    int      `json:"impact"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
}

// NewGoal creates a goal with a fresh id and a creation timestamp taken from now.
func NewGoal(name string, cost float64, goalType GoalType, years, impact int, now time.Time) Goal {
	return Goal{
		ID:        uuid.NewString(),
		Name:      name,
		Cost:      cost,
		Type:      goalType,
		Years:     years,
		Impact:    impact,
		Timestamp: now.UnixMilli(),
	}
}

// CreatedAt returns the creation timestamp as a time in UTC.
func (g Goal) CreatedAt() time.Time {
	return time.UnixMilli(g.Timestamp).UTC()
}

// Validate checks the field invariants of a goal (id and timestamp excluded).
func (g Goal) Validate() error {
	switch {
	case strings.TrimSpace(g.Name) == "":
		return fmt.Errorf("name must not be empty")
	case g.Cost <= 0:
		return fmt.Errorf("cost must be greater than 0, got %v", g.Cost)
	case !g.Type.Valid():
		return fmt.Errorf("type %q must be product or experience", g.Type)
	case g.Years < MinGoalYears || g.Years > MaxGoalYears:
		return fmt.Errorf("years must be between %d and %d, got %d", MinGoalYears, MaxGoalYears, g.Years)
	case g.Impact < MinImpact || g.Impact > MaxImpact:
		return fmt.Errorf("impact must be between %d and %d, got %d", MinImpact, MaxImpact, g.Impact)
	}
	return nil
}

type Verdict string

const (
	VerdictWorthless Verdict = "worthless"
	VerdictWhatever  Verdict = "whatever"
	VerdictWorth     Verdict = "worth"
	VerdictJustDoIt  Verdict = "justdoit"
)

// Verdicts lists every verdict from lowest to highest score band.
var Verdicts = []Verdict{VerdictWorthless, VerdictWhatever, VerdictWorth, VerdictJustDoIt}

// SavingsTime is how long it takes to save the goal cost at each savings granularity.
type SavingsTime struct {
	Hours  float64 `json:"hours"`
	Days   float64 `json:"days"`
	Weeks  float64 `json:"weeks"`
	Months float64 `json:"months"`
	Years  float64 `json:"years"`
}

// GoalResult is a goal snapshot plus its computed time-to-afford, score and verdict.
type GoalResult struct {
	Goal
	SavingsTime SavingsTime `json:"savingsTime"`
	GoalScore   float64     `json:"goalScore"`
	Verdict     Verdict     `json:"verdict"`
}

// savingsTimeJSON mirrors SavingsTime with nullable fields, since JSON has no
// representation for the infinite times produced by a zero savings rate.
type savingsTimeJSON struct {
	Hours  *float64 `json:"hours"`
	Days   *float64 `json:"days"`
	Weeks  *float64 `json:"weeks"`
	Months *float64 `json:"months"`
	Years  *float64 `json:"years"`
}

// MarshalJSON writes infinite or NaN times as null.
func (t SavingsTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(savingsTimeJSON{
		Hours:  finiteOrNil(t.Hours),
		Days:   finiteOrNil(t.Days),
		Weeks:  finiteOrNil(t.Weeks),
		Months: finiteOrNil(t.Months),
		Years:  finiteOrNil(t.Years),
	})
}

// UnmarshalJSON reads null times back as +Inf.
func (t *SavingsTime) UnmarshalJSON(data []byte) error {
	var raw savingsTimeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Hours = orInf(raw.Hours)
	t.Days = orInf(raw.Days)
	t.Weeks = orInf(raw.Weeks)
	t.Months = orInf(raw.Months)
	t.Years = orInf(raw.Years)
	return nil
}

func finiteOrNil(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func orInf(v *float64) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return *v
}
