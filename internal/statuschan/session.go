// Package statuschan owns the lifecycle of one push-notification connection
// to the scan backend's status channel.
package statuschan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/scanwatch/scanwatch/internal/metrics"
	"github.com/scanwatch/scanwatch/internal/scan"
)

// State is the connection state of a session. A session instance moves
// Disconnected → Connecting → Connected → Disconnected and never reconnects
// itself; a fresh Dial produces a fresh session.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	default:
		return "Disconnected"
	}
}

const eventBuffer = 16

// Session is one live status channel connection, scoped to an authenticated
// identity. Inbound messages are parsed into StatusEvents and delivered on
// Events; malformed payloads are logged and dropped. Events is closed when
// the connection ends, whether by Close or by the transport.
type Session struct {
	id     string
	logger *slog.Logger
	conn   *websocket.Conn
	events chan scan.StatusEvent

	mu    sync.Mutex
	state State

	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// Dial opens the status channel for the given identity. The identity is
// mandatory: the connect itself is the room association, so an unauthenticated
// dial is a caller bug, not a transport failure.
func Dial(ctx context.Context, baseURL, userID string, logger *slog.Logger) (*Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, errors.New("status channel requires an authenticated identity")
	}
	if logger == nil {
		logger = slog.Default()
	}

	target, err := channelURL(baseURL, userID)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	s := &Session{
		id:     id,
		logger: logger.With("session_id", id),
		events: make(chan scan.StatusEvent, eventBuffer),
		state:  Connecting,
		done:   make(chan struct{}),
	}

	conn, _, err := websocket.Dial(ctx, target, nil)
	if err != nil {
		s.setState(Disconnected)
		return nil, fmt.Errorf("dial status channel: %w", err)
	}
	s.conn = conn
	s.setState(Connected)

	readCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.readLoop(readCtx)

	s.logger.Info("status channel connected", "url", target)
	return s, nil
}

// ID is the session instance id, used for log correlation.
func (s *Session) ID() string { return s.id }

// Events returns the inbound event stream. The channel is closed once the
// session disconnects.
func (s *Session) Events() <-chan scan.StatusEvent { return s.events }

// State returns the current connection state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the session down. It is idempotent and effective immediately:
// no event is delivered after Close returns.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
		// Best-effort close frame; the read loop is already going down.
		if err := s.conn.Close(websocket.StatusNormalClosure, "client teardown"); err != nil {
			s.logger.Debug("status channel close", "err", err)
		}
		s.setState(Disconnected)
	})
	return nil
}

func (s *Session) readLoop(ctx context.Context) {
	defer close(s.events)
	defer s.setState(Disconnected)

	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				s.logger.Warn("status channel read failed", "err", err)
			}
			return
		}

		var ev scan.StatusEvent
		if err := json.Unmarshal(data, &ev); err != nil || ev.Status == "" {
			metrics.EventParseFailuresTotal.Inc()
			s.logger.Warn("dropping malformed status payload", "payload", truncate(string(data), 256), "err", err)
			continue
		}
		ev.ReceivedAt = time.Now()
		metrics.StatusEventsTotal.WithLabelValues(string(ev.Status)).Inc()

		// Re-check teardown before handing the event over; a buffered send
		// must not win a race against Close.
		select {
		case <-s.done:
			return
		default:
		}
		select {
		case <-s.done:
			return
		case s.events <- ev:
		}
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// channelURL derives the identity-scoped websocket URL from the REST base URL.
func channelURL(baseURL, userID string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", fmt.Errorf("parse backend URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported backend URL scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/status/" + url.PathEscape(userID)
	return u.String(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
