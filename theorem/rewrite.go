package theorem

import (
	"fmt"
	"regexp"
	"strings"
)

// predicateRewrite maps one recognized natural-language condition pattern to
// a Lean proposition.
type predicateRewrite struct {
	pattern *regexp.Regexp
	replace func(m []string) string
}

// rewriteTable holds the fixed set of recognized condition shapes.
// Conditions matching none of them are wrapped in the trivial Holds
// predicate so the emitted source still elaborates.
var rewriteTable = []predicateRewrite{
	{
		// "x is not null" / "x must not be null/nil/none"
		pattern: regexp.MustCompile(`(?i)^(\w+)\s+(?:is|must)\s+not\s+(?:be\s+)?(?:null|nil|none|undefined)$`),
		replace: func(m []string) string { return m[1] + " ≠ none" },
	},
	{
		// "x is null"
		pattern: regexp.MustCompile(`(?i)^(\w+)\s+(?:is|must be)\s+(?:null|nil|none|undefined)$`),
		replace: func(m []string) string { return m[1] + " = none" },
	},
	{
		// "x >= 0", "x > y", "x <= n", "x != 0", "x == 1"
		pattern: regexp.MustCompile(`^(\w+)\s*(>=|<=|!=|==|=|>|<)\s*(\w+)$`),
		replace: func(m []string) string {
			return m[1] + " " + normalizeOp(m[2]) + " " + m[3]
		},
	},
	{
		// "x is positive" / "x must be positive"
		pattern: regexp.MustCompile(`(?i)^(\w+)\s+(?:is|must be)\s+positive$`),
		replace: func(m []string) string { return m[1] + " > 0" },
	},
	{
		// "x is non-negative"
		pattern: regexp.MustCompile(`(?i)^(\w+)\s+(?:is|must be)\s+non-?negative$`),
		replace: func(m []string) string { return m[1] + " ≥ 0" },
	},
	{
		// "x is not empty" (string length)
		pattern: regexp.MustCompile(`(?i)^(\w+)\s+(?:is|must)\s+not\s+(?:be\s+)?empty$`),
		replace: func(m []string) string { return m[1] + ".length > 0" },
	},
	{
		// "x is empty"
		pattern: regexp.MustCompile(`(?i)^(\w+)\s+(?:is|must be)\s+empty$`),
		replace: func(m []string) string { return m[1] + ".length = 0" },
	},
	{
		// "x is true" / "x is false"
		pattern: regexp.MustCompile(`(?i)^(\w+)\s+(?:is|must be)\s+(true|false)$`),
		replace: func(m []string) string { return m[1] + " = " + strings.ToLower(m[2]) },
	},
	{
		// "x must be a valid T" (fallback precondition shape)
		pattern: regexp.MustCompile(`(?i)^(\w+)\s+must\s+be\s+a\s+valid\s+(.+)$`),
		replace: func(m []string) string {
			return fmt.Sprintf("TypedAs %q %q", m[1], m[2])
		},
	},
}

// normalizeOp converts ASCII comparison operators to their Lean forms.
func normalizeOp(op string) string {
	switch op {
	case ">=":
		return "≥"
	case "<=":
		return "≤"
	case "!=":
		return "≠"
	case "==", "=":
		return "="
	default:
		return op
	}
}

// RewritePredicate converts one natural-language condition into a Lean
// proposition. Unrecognized conditions pass through wrapped in Holds, which
// keeps them visible in the obligation without breaking elaboration.
func RewritePredicate(condition string) string {
	c := strings.TrimSpace(condition)
	c = strings.TrimSuffix(c, ".")
	for _, rw := range rewriteTable {
		if m := rw.pattern.FindStringSubmatch(c); m != nil {
			return rw.replace(m)
		}
	}
	return fmt.Sprintf("Holds %q", c)
}
