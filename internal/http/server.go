// Package httpapp wires the HTTP surface over the synchronized scan state.
package httpapp

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/labstack/echo/v5"

	"github.com/scanwatch/scanwatch/internal/http/handlers"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h *handlers.Handlers
	e *echo.Echo

	mu     sync.Mutex
	server *http.Server
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(view handlers.View, backend handlers.Backend) (*EchoServer, error) {
	if view == nil {
		return nil, errors.New("httpapp: view is required")
	}
	if backend == nil {
		return nil, errors.New("httpapp: backend is required")
	}
	h := &handlers.Handlers{View: view, Backend: backend}
	es := &EchoServer{h: h, e: echo.New()}
	es.e.HTTPErrorHandler = es.httpErrorHandler
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.GET("/healthz", es.h.HandleHealthz)
	es.e.GET("/api/status", es.h.HandleStatus)
	es.e.GET("/api/history", es.h.HandleHistory)
	es.e.GET("/api/history/:id", es.h.HandleHistoryShow)
	es.e.GET("/api/report/:id", es.h.HandleReport)
	es.e.POST("/api/evaluations", es.h.HandleStartEvaluation)
}

// httpErrorHandler renders every unhandled error as a generic JSON body so
// internal details never reach clients.
func (es *EchoServer) httpErrorHandler(c *echo.Context, err error) {
	if r, _ := echo.UnwrapResponse(c.Response()); r != nil && r.Committed {
		return
	}
	status := httpStatusFromError(err)
	message := http.StatusText(status)
	_ = c.JSON(status, map[string]string{"error": message})
}

func httpStatusFromError(err error) int {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) {
		if code := sc.StatusCode(); code >= 400 {
			return code
		}
	}
	return http.StatusInternalServerError
}

// Start starts the HTTP server.
func (es *EchoServer) Start(addr string) error {
	return es.e.Start(addr)
}

// StartServer starts the HTTP server with a custom http.Server.
func (es *EchoServer) StartServer(server *http.Server) error {
	server.Handler = es.e
	es.mu.Lock()
	es.server = server
	es.mu.Unlock()
	return server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (es *EchoServer) Shutdown(ctx context.Context) error {
	es.mu.Lock()
	server := es.server
	es.mu.Unlock()
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
