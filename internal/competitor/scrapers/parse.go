package scrapers

import (
	"regexp"
	"strconv"
	"strings"
)

var priceRe = regexp.MustCompile(`(\d+(?:[.,]\d{1,2})?)`)

// parsePrice extracts a numeric price from a display string like "12,99 €"
// or "€ 4.50". Returns nil when no number is present.
func parsePrice(raw string) *float64 {
	match := priceRe.FindString(raw)
	if match == "" {
		return nil
	}

	match = strings.ReplaceAll(match, ",", ".")
	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &price
}

// cleanText collapses whitespace runs in scraped text nodes.
func cleanText(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
