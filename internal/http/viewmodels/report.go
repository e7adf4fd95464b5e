// Package viewmodels shapes synchronized scan state for the read-only API.
package viewmodels

import (
	"time"

	"github.com/scanwatch/scanwatch/internal/risk"
	"github.com/scanwatch/scanwatch/internal/scan"
	"github.com/scanwatch/scanwatch/internal/severity"
)

// FindingGroup is one severity tier's slice of a report.
type FindingGroup struct {
	Tier     string         `json:"tier"`
	Findings []scan.Finding `json:"findings"`
}

// Report is the per-scan detail view: the record plus classified findings and
// the derived risk summary. It is recomputed on every request, never stored.
type Report struct {
	ID        scan.ID        `json:"id"`
	Host      string         `json:"host,omitempty"`
	Status    scan.Status    `json:"status"`
	ScanTime  time.Time      `json:"scan_time,omitzero"`
	Risk      risk.Summary   `json:"risk"`
	AISummary string         `json:"ai_summary,omitempty"`
	Groups    []FindingGroup `json:"groups"`
}

// NewReport classifies the record's findings into tiers, highest first, and
// computes the risk summary.
func NewReport(record scan.Record) Report {
	report := Report{
		ID:       record.ID,
		Host:     record.Host,
		Status:   record.Status,
		ScanTime: record.ScanTime,
	}

	var findings []scan.Finding
	if record.Results != nil {
		findings = record.Results.Vulnerabilities
		report.AISummary = record.Results.AISummary
	}
	report.Risk = risk.Summarize(findings)

	byTier := make(map[severity.Tier][]scan.Finding)
	for _, f := range findings {
		tier := severity.Classify(f.Severity)
		byTier[tier] = append(byTier[tier], f)
	}
	for _, tier := range []severity.Tier{severity.Critical, severity.High, severity.Medium, severity.Low} {
		if len(byTier[tier]) == 0 {
			continue
		}
		report.Groups = append(report.Groups, FindingGroup{Tier: tier.String(), Findings: byTier[tier]})
	}
	return report
}
