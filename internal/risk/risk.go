// Package risk reduces a scan's findings to a single bounded score.
package risk

import (
	"math"

	"github.com/scanwatch/scanwatch/internal/scan"
	"github.com/scanwatch/scanwatch/internal/severity"
)

// Tier weights. A single Critical finding already contributes 4.0 of the
// 10-point scale; the cap keeps scores comparable across hosts with very
// different finding counts.
const (
	weightCritical = 4.0
	weightHigh     = 2.0
	weightMedium   = 0.5
	weightLow      = 0.1

	// MaxScore is the upper bound of the scale.
	MaxScore = 10.0
)

// Summary holds per-tier finding counts and the derived score.
type Summary struct {
	Critical int     `json:"critical"`
	High     int     `json:"high"`
	Medium   int     `json:"medium"`
	Low      int     `json:"low"`
	Score    float64 `json:"score"`
}

// Summarize classifies every finding, accumulates per-tier counts, and
// computes the capped score. It is a pure function of the findings list:
// permuting the input never changes the result.
func Summarize(findings []scan.Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch severity.Classify(f.Severity) {
		case severity.Critical:
			s.Critical++
		case severity.High:
			s.High++
		case severity.Medium:
			s.Medium++
		default:
			s.Low++
		}
	}
	raw := float64(s.Critical)*weightCritical +
		float64(s.High)*weightHigh +
		float64(s.Medium)*weightMedium +
		float64(s.Low)*weightLow
	s.Score = round1(math.Min(raw, MaxScore))
	return s
}

// Score returns the risk score for a findings list, in [0, 10] with one
// decimal place.
func Score(findings []scan.Finding) float64 {
	return Summarize(findings).Score
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
