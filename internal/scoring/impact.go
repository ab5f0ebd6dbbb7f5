// internal/scoring/impact.go
package scoring

import "worth-it/internal/models"

// ImpactOption is one choice on the impact scale of a goal type.
type ImpactOption struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

var impactLabels = map[models.GoalType][models.MaxImpact]string{
	models.GoalTypeProduct: {
		"Don't need it",
		"Nice to have",
		"Really want it",
		"Dying for it",
		"Life changing",
	},
	models.GoalTypeExperience: {
		"Like any other day",
		"Think of it fondly",
		"Enjoy it a lot",
		"Cherished memory",
		"Once in a lifetime",
	},
}

// ImpactOptions returns the 1-5 impact scale for a goal type. The meaning of
// each step depends on the type; unknown types get the product scale.
func ImpactOptions(t models.GoalType) []ImpactOption {
	labels, ok := impactLabels[t]
	if !ok {
		labels = impactLabels[models.GoalTypeProduct]
	}
	opts := make([]ImpactOption, 0, len(labels))
	for i, label := range labels {
		opts = append(opts, ImpactOption{Value: i + models.MinImpact, Label: label})
	}
	return opts
}

// ImpactLabel returns the label of one impact step, or "" when out of range.
func ImpactLabel(t models.GoalType, impact int) string {
	if impact < models.MinImpact || impact > models.MaxImpact {
		return ""
	}
	return ImpactOptions(t)[impact-models.MinImpact].Label
}

// DefaultYears is the preset duration offered when a goal type is selected.
func DefaultYears(t models.GoalType) int {
	if t == models.GoalTypeExperience {
		return 20
	}
	return 5
}
