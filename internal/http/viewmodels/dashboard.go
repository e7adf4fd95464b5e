package viewmodels

import (
	"github.com/scanwatch/scanwatch/internal/scan"
	"github.com/scanwatch/scanwatch/internal/syncer"
)

// Dashboard is the current-status panel state plus channel health.
type Dashboard struct {
	Connection string      `json:"connection"`
	Status     scan.Status `json:"status"`
	Message    string      `json:"message"`
	Scans      int         `json:"scans"`
}

// NewDashboard builds the panel view from the synchronizer's snapshots.
func NewDashboard(current syncer.Projection, connection string, scans int) Dashboard {
	return Dashboard{
		Connection: connection,
		Status:     current.Status,
		Message:    current.Message,
		Scans:      scans,
	}
}
