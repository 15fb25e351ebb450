package plan

import (
	"regexp"
	"strings"
)

var (
	estimateRangeRegex = regexp.MustCompile(`(\d+)-\d+`)
	estimateUnitRegex  = regexp.MustCompile(`(?i)(\d+)\s*(hour|week|day|minute)`)
)

var estimateUnits = map[string]string{
	"hour":   "h",
	"day":    "d",
	"week":   "w",
	"minute": "m",
}

// ParseTimeEstimate converts a free-text estimate such as "~2-3 days" or
// "8 hours" into tracker duration notation ("2d", "8h"). It returns "" when
// no amount with a known unit is found. Ranges use their lower bound.
func ParseTimeEstimate(text string) string {
	s := strings.TrimPrefix(strings.TrimSpace(text), "~")
	if loc := estimateRangeRegex.FindStringSubmatchIndex(s); loc != nil {
		s = s[:loc[0]] + s[loc[2]:loc[3]] + s[loc[1]:]
	}
	m := estimateUnitRegex.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1] + estimateUnits[strings.ToLower(m[2])]
}
