// Package handlers contains the read-only HTTP surface over the synchronized
// scan state. Handlers observe snapshots and proxy one-shot backend calls;
// they never mutate the history store or the projection.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v5"

	"github.com/scanwatch/scanwatch/internal/api"
	"github.com/scanwatch/scanwatch/internal/http/viewmodels"
	"github.com/scanwatch/scanwatch/internal/scan"
	"github.com/scanwatch/scanwatch/internal/statuschan"
	"github.com/scanwatch/scanwatch/internal/syncer"
)

// View is the snapshot reader over the synchronizer. *syncer.Synchronizer
// implements it.
type View interface {
	Current() syncer.Projection
	ChannelState() statuschan.State
	History() []scan.Record
	Lookup(scan.ID) (scan.Record, bool)
}

// Backend is the subset of the REST client the handlers proxy to.
type Backend interface {
	Scan(ctx context.Context, id scan.ID) (scan.Record, error)
	StartEvaluation(ctx context.Context, p api.StartParams) (scan.ID, error)
}

// Handlers groups the HTTP handlers and their shared dependencies.
type Handlers struct {
	View    View
	Backend Backend
}

func (h *Handlers) HandleHealthz(c *echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// HandleStatus serves the current-status projection.
func (h *Handlers) HandleStatus(c *echo.Context) error {
	vm := viewmodels.NewDashboard(h.View.Current(), h.View.ChannelState().String(), len(h.View.History()))
	return c.JSON(http.StatusOK, vm)
}

// HandleHistory serves the history snapshot in insertion order.
func (h *Handlers) HandleHistory(c *echo.Context) error {
	records := h.View.History()
	if records == nil {
		records = []scan.Record{}
	}
	return c.JSON(http.StatusOK, records)
}

// HandleHistoryShow serves one record from the local store.
func (h *Handlers) HandleHistoryShow(c *echo.Context) error {
	id := scan.ID(c.Param("id"))
	record, ok := h.View.Lookup(id)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown scan id"})
	}
	return c.JSON(http.StatusOK, record)
}

// HandleReport fetches the scan detail from the backend and returns it with
// classified findings and the risk summary.
func (h *Handlers) HandleReport(c *echo.Context) error {
	id := scan.ID(c.Param("id"))
	record, err := h.Backend.Scan(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown scan id"})
		}
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "backend unavailable"})
	}
	return c.JSON(http.StatusOK, viewmodels.NewReport(record))
}

// HandleStartEvaluation forwards a new scan request to the backend.
func (h *Handlers) HandleStartEvaluation(c *echo.Context) error {
	var params api.StartParams
	if err := json.NewDecoder(c.Request().Body).Decode(&params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if params.IPRange == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "ip_range is required"})
	}

	id, err := h.Backend.StartEvaluation(c.Request().Context(), params)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "backend unavailable"})
	}
	return c.JSON(http.StatusAccepted, map[string]any{"scanId": id})
}
