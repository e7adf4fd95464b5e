// Package scan defines the shared data model for scan records, findings, and
// status events as consumed from the evaluation backend.
package scan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Status is the lifecycle state of a scan as reported by the backend.
type Status string

const (
	StatusIdle      Status = "Idle"
	StatusPending   Status = "Pending"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
	StatusError     Status = "Error"
)

// Terminal reports whether the status ends a scan's lifecycle. Terminal
// events are the reconciliation checkpoints for the synchronizer.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// ID identifies a scan. The backend assigns numeric ids but the client treats
// them as opaque strings; both JSON numbers and strings are accepted on the
// wire.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("scan id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(id))), nil
}

// Finding is a single vulnerability or observation reported for a completed
// scan. Severity is the producing scanner's free-form label; classification
// into tiers happens in the severity package.
type Finding struct {
	Name           string `json:"name"`
	Severity       string `json:"severity"`
	Description    string `json:"description,omitempty"`
	Host           string `json:"host,omitempty"`
	Remediation    string `json:"remediation,omitempty"`
	BusinessImpact string `json:"business_impact,omitempty"`
}

// Results carries the detailed outcome of a completed scan.
type Results struct {
	Vulnerabilities []Finding      `json:"vulnerabilities,omitempty"`
	AISummary       string         `json:"ai_summary,omitempty"`
	ScanMeta        map[string]any `json:"scan_meta,omitempty"`
}

// Record is the client-side view of one scan. Records are created when first
// observed (via fetch or push event) and updated in place afterwards; they are
// never deleted within a session.
type Record struct {
	ID       ID        `json:"id"`
	Host     string    `json:"host,omitempty"`
	Status   Status    `json:"status,omitempty"`
	ScanTime time.Time `json:"scan_time,omitzero"`
	Results  *Results  `json:"results,omitempty"`
}

// StatusEvent is one message from the status channel. ScanID may be empty for
// connection-lifecycle notices, which apply to the current-status projection
// only. ReceivedAt is client-assigned because the channel carries no
// timestamps.
type StatusEvent struct {
	ScanID     ID        `json:"scanId,omitempty"`
	Status     Status    `json:"status"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"-"`
}

// Record converts the event into the partial record it implies. Only the
// fields the event actually carries are set, so an upsert never reverts known
// fields.
func (e StatusEvent) Record() Record {
	return Record{ID: e.ScanID, Status: e.Status}
}
