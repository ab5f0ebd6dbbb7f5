// internal/scoring/format.go
package scoring

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"worth-it/internal/models"
)

var currencySymbols = map[models.Currency]string{
	models.CurrencyUSD: "$",
	models.CurrencyEUR: "€",
	models.CurrencyGBP: "£",
	models.CurrencyINR: "₹",
}

// CurrencySymbol returns the display symbol, falling back to the ISO code.
func CurrencySymbol(c models.Currency) string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return string(c)
}

// Formatter renders amounts and durations for one display locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter builds a formatter for a locale. English is used by DefaultFormatter.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// DefaultFormatter formats with English digit grouping.
var DefaultFormatter = NewFormatter(language.English)

// FormatCurrency rounds to whole units and prefixes the currency symbol.
func (f *Formatter) FormatCurrency(value float64, c models.Currency) string {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return CurrencySymbol(c) + "∞"
	}
	rounded := int64(math.Round(value))
	if rounded < 0 {
		return "-" + CurrencySymbol(c) + f.printer.Sprintf("%d", -rounded)
	}
	return CurrencySymbol(c) + f.printer.Sprintf("%d", rounded)
}

// FormatTime rounds to one decimal and pluralises the unit unless the rounded
// value is exactly 1. Infinite durations render with the ∞ sentinel.
// Durations are not locale grouped.
func (f *Formatter) FormatTime(value float64, unit string) string {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return fmt.Sprintf("∞ %ss", unit)
	}
	rounded := math.Round(value*10) / 10
	suffix := "s"
	if rounded == 1 {
		suffix = ""
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + unit + suffix
}

// FormatCurrency formats with DefaultFormatter.
func FormatCurrency(value float64, c models.Currency) string {
	return DefaultFormatter.FormatCurrency(value, c)
}

// FormatTime formats with DefaultFormatter.
func FormatTime(value float64, unit string) string {
	return DefaultFormatter.FormatTime(value, unit)
}
