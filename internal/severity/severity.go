// Package severity normalizes the free-form severity labels produced by
// upstream scanners into a closed, ordered set of tiers.
package severity

import "strings"

// Tier is an ordinal severity tier. Higher values are more severe, so tiers
// compare directly with <.
type Tier int

const (
	Low Tier = iota
	Medium
	High
	Critical
)

func (t Tier) String() string {
	switch t {
	case Critical:
		return "Critical"
	case High:
		return "High"
	case Medium:
		return "Medium"
	default:
		return "Low"
	}
}

// precedence is the classification table, tested in order. The first matching
// row wins, so a label containing both "ALT" and "MED" resolves to High.
// Scanners emit labels in mixed languages and casing ("Critica", "ALTA",
// "HIGH", "Media", "INFO"), hence substring matching on the uppercased label.
var precedence = []struct {
	substrings []string
	tier       Tier
}{
	{[]string{"CRITIC"}, Critical},
	{[]string{"ALT", "HIGH"}, High},
	{[]string{"MED"}, Medium},
}

// Classify maps a raw severity label to a tier. It is total over all strings:
// unrecognized, informational, and empty labels all fall through to Low.
func Classify(label string) Tier {
	upper := strings.ToUpper(label)
	for _, row := range precedence {
		for _, sub := range row.substrings {
			if strings.Contains(upper, sub) {
				return row.tier
			}
		}
	}
	return Low
}
