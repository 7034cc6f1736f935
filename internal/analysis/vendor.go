package analysis

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// VendorRules capture a leading proper-noun phrase from a description.
var VendorRules = []Rule{
	{
		Kind:    PatternRule,
		Name:    "leading name before separator",
		Pattern: regexp.MustCompile(`^([A-Z][A-Za-z\s&]+?)(?:\s*-|\s+\d|\s+Monthly|\s+Bill|$)`),
	},
	{
		Kind:    PatternRule,
		Name:    "payee after payment marker",
		Pattern: regexp.MustCompile(`(?:Payment to|From)\s+([A-Z][A-Za-z\s&]+)`),
	},
	{
		Kind:    PatternRule,
		Name:    "name before plan keyword",
		Pattern: regexp.MustCompile(`^([A-Z][A-Za-z\s&]+?)\s+(?:Subscription|Plan|Service)`),
	},
}

const (
	minVendorLen      = 4
	fallbackVendorLen = 30
)

// ExtractVendor derives a vendor name from a description. The first rule
// producing more than three characters wins; otherwise the first two words
// are used, or the first 30 characters of a single-word description.
func ExtractVendor(description string) string {
	for _, rule := range VendorRules {
		if v, ok := rule.Match(description); ok && utf8.RuneCountInString(v) >= minVendorLen {
			return v
		}
	}

	words := strings.Fields(description)
	if len(words) >= 2 {
		return words[0] + " " + words[1]
	}

	runes := []rune(description)
	if len(runes) > fallbackVendorLen {
		runes = runes[:fallbackVendorLen]
	}
	return string(runes)
}
