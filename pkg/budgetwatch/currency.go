package budgetwatch

import (
	"regexp"
	"strings"
)

// currencySymbols maps supported currency codes to display symbols.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"AUD": "A$",
	"CAD": "C$",
	"JPY": "¥",
	"CHF": "CHF",
	"SEK": "kr",
	"NZD": "NZ$",
}

// CurrencySymbol converts a currency code to its display symbol, defaulting
// to USD for unknown codes.
func CurrencySymbol(code string) string {
	if symbol, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return symbol
	}
	return "$"
}

var budgetNamePattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// SanitizeBudgetName turns a budget's display name into an identifier-safe
// name for logging and storage keys.
func SanitizeBudgetName(name string) string {
	return budgetNamePattern.ReplaceAllString(strings.ReplaceAll(name, " ", "_"), "")
}
