// Package analysis holds the heuristic and statistical stages applied to a
// batch of canonical transactions.
package analysis

import (
	"regexp"
	"strings"
)

// RuleKind distinguishes regular-expression rules from substring rules.
type RuleKind string

const (
	PatternRule RuleKind = "pattern rule"
	KeywordRule RuleKind = "keyword rule"
)

// Rule is one entry of an ordered, first-match-wins rule list.
// A pattern rule yields its first capture group; a keyword rule yields Name
// when the lowercased text contains any of its keywords.
type Rule struct {
	Kind     RuleKind
	Name     string
	Pattern  *regexp.Regexp
	Keywords []string
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Match applies the rule to text.
func (r Rule) Match(text string) (string, bool) {
	switch r.Kind {
	case PatternRule:
		m := r.Pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			return "", false
		}
		return whitespaceRun.ReplaceAllString(strings.TrimSpace(m[1]), " "), true
	case KeywordRule:
		lower := strings.ToLower(text)
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Name, true
			}
		}
	}
	return "", false
}
