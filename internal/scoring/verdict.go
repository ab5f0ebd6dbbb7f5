// internal/scoring/verdict.go
package scoring

import "worth-it/internal/models"

// Lower bounds (inclusive) of each verdict band.
const (
	WhateverThreshold = 50.0
	WorthThreshold    = 75.0
	JustDoItThreshold = 95.0
)

// VerdictFor maps a goal score to its verdict band.
func VerdictFor(score float64) models.Verdict {
	switch {
	case score < WhateverThreshold:
		return models.VerdictWorthless
	case score < WorthThreshold:
		return models.VerdictWhatever
	case score < JustDoItThreshold:
		return models.VerdictWorth
	default:
		return models.VerdictJustDoIt
	}
}

// Details is what a collaborator needs to render a verdict.
type Details struct {
	Emoji       string `json:"emoji"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ColorToken  string `json:"colorToken"`
}

var verdictDetails = map[models.Verdict]Details{
	models.VerdictWorthless: {
		Emoji:       "😞",
		Title:       "Worthless",
		Description: "This doesn't seem like a good use of your money.",
		ColorToken:  string(models.VerdictWorthless),
	},
	models.VerdictWhatever: {
		Emoji:       "😶",
		Title:       "Whatever",
		Description: "It's not terrible, but you could find better ways to spend your money.",
		ColorToken:  string(models.VerdictWhatever),
	},
	models.VerdictWorth: {
		Emoji:       "😁",
		Title:       "Worth it",
		Description: "This is a good investment of your money!",
		ColorToken:  string(models.VerdictWorth),
	},
	models.VerdictJustDoIt: {
		Emoji:       "😱",
		Title:       "Just do it!",
		Description: "This is an amazing value. Don't hesitate!",
		ColorToken:  string(models.VerdictJustDoIt),
	},
}

// VerdictDetails returns the display details of a verdict. Values outside the
// enumeration get the worthless entry so the lookup never fails.
func VerdictDetails(v models.Verdict) Details {
	if d, ok := verdictDetails[v]; ok {
		return d
	}
	return verdictDetails[models.VerdictWorthless]
}
