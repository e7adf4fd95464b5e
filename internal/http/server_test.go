package httpapp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"

	"github.com/scanwatch/scanwatch/internal/api"
	"github.com/scanwatch/scanwatch/internal/scan"
	"github.com/scanwatch/scanwatch/internal/statuschan"
	"github.com/scanwatch/scanwatch/internal/syncer"
)

type stubView struct{}

func (stubView) Current() syncer.Projection         { return syncer.Projection{} }
func (stubView) ChannelState() statuschan.State     { return statuschan.Disconnected }
func (stubView) History() []scan.Record             { return nil }
func (stubView) Lookup(scan.ID) (scan.Record, bool) { return scan.Record{}, false }

type stubBackend struct{}

func (stubBackend) Scan(context.Context, scan.ID) (scan.Record, error) {
	return scan.Record{}, api.ErrNotFound
}

func (stubBackend) StartEvaluation(context.Context, api.StartParams) (scan.ID, error) {
	return "", errors.New("unavailable")
}

func TestNewEchoServerRequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewEchoServer(nil, stubBackend{}); err == nil {
		t.Fatal("NewEchoServer(nil view) error = nil")
	}
	if _, err := NewEchoServer(stubView{}, nil); err == nil {
		t.Fatal("NewEchoServer(nil backend) error = nil")
	}
	if _, err := NewEchoServer(stubView{}, stubBackend{}); err != nil {
		t.Fatalf("NewEchoServer() error = %v", err)
	}
}

func TestHTTPErrorHandlerInternalErrorIsGeneric(t *testing.T) {
	t.Parallel()

	es, err := NewEchoServer(stubView{}, stubBackend{})
	if err != nil {
		t.Fatalf("NewEchoServer() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/test", nil)
	rec := httptest.NewRecorder()
	c := es.e.NewContext(req, rec)

	es.httpErrorHandler(c, errors.New("very sensitive error"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	body := rec.Body.String()
	if strings.Contains(body, "very sensitive") {
		t.Fatalf("response leaked error details: %q", body)
	}
	if !strings.Contains(body, http.StatusText(http.StatusInternalServerError)) {
		t.Fatalf("response missing generic message: %q", body)
	}
}

func TestHTTPErrorHandlerKeepsHTTPErrorStatus(t *testing.T) {
	t.Parallel()

	es, err := NewEchoServer(stubView{}, stubBackend{})
	if err != nil {
		t.Fatalf("NewEchoServer() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "http://example.com/missing", nil)
	rec := httptest.NewRecorder()
	c := es.e.NewContext(req, rec)

	es.httpErrorHandler(c, echo.NewHTTPError(http.StatusNotFound, "leaky not found"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if strings.Contains(rec.Body.String(), "leaky") {
		t.Fatalf("response leaked error details: %q", rec.Body.String())
	}
}

func TestHTTPStatusFromError(t *testing.T) {
	t.Parallel()

	if got := httpStatusFromError(echo.ErrNotFound); got != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", got, http.StatusNotFound)
	}
	if got := httpStatusFromError(echo.ErrForbidden); got != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", got, http.StatusForbidden)
	}
	if got := httpStatusFromError(errors.New("boom")); got != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", got, http.StatusInternalServerError)
	}
}
