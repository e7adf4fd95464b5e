// Package syncer keeps the history store and the current-status projection
// consistent across two unordered async sources: one-shot history fetches and
// the status channel event stream.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/scanwatch/scanwatch/internal/history"
	"github.com/scanwatch/scanwatch/internal/metrics"
	"github.com/scanwatch/scanwatch/internal/scan"
	"github.com/scanwatch/scanwatch/internal/statuschan"
)

// Fetch triggers, used for logging and metrics.
const (
	triggerInitial  = "initial"
	triggerTerminal = "terminal"
)

// HistoryFetcher is the one-shot authoritative history source (REST).
type HistoryFetcher interface {
	History(ctx context.Context) ([]scan.Record, error)
}

// EventSource is one live status channel session. *statuschan.Session
// implements it; tests substitute fakes.
type EventSource interface {
	Events() <-chan scan.StatusEvent
	State() statuschan.State
	Close() error
}

// DialFunc opens a fresh status channel session for the authenticated
// identity.
type DialFunc func(ctx context.Context) (EventSource, error)

// Projection is the "current status" panel state: always the most recently
// received event, regardless of which scan it names.
type Projection struct {
	Status  scan.Status `json:"status"`
	Message string      `json:"message"`
}

// Options configure a Synchronizer.
type Options struct {
	Fetcher  HistoryFetcher
	Dial     DialFunc
	Store    *history.Store
	Notifier Notifier
	Logger   *slog.Logger

	FetchTimeout time.Duration

	// Reconnection policy for unexpected channel drops while still
	// authenticated. MaxAttempts <= 0 disables reconnection.
	ReconnectBackoffBase time.Duration
	ReconnectBackoffMax  time.Duration
	ReconnectMaxAttempts int
}

// Synchronizer is the only writer of the history store and the projection.
// All mutation is serialized through its run loop and guarded by a generation
// counter, so results of in-flight fetches never land on a superseded state.
type Synchronizer struct {
	fetcher  HistoryFetcher
	dial     DialFunc
	store    *history.Store
	notifier Notifier
	logger   *slog.Logger

	fetchTimeout time.Duration
	backoffBase  time.Duration
	backoffMax   time.Duration
	maxAttempts  int

	mu         sync.RWMutex
	generation uint64
	closed     bool
	current    Projection
	source     EventSource
}

// New creates a Synchronizer. Fetcher, Dial, and Store are mandatory.
func New(opts Options) (*Synchronizer, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("syncer: history fetcher is required")
	}
	if opts.Dial == nil {
		return nil, errors.New("syncer: dial func is required")
	}
	if opts.Store == nil {
		return nil, errors.New("syncer: history store is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = &LogNotifier{Logger: logger}
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}

	return &Synchronizer{
		fetcher:      opts.Fetcher,
		dial:         opts.Dial,
		store:        opts.Store,
		notifier:     notifier,
		logger:       logger,
		fetchTimeout: fetchTimeout,
		backoffBase:  opts.ReconnectBackoffBase,
		backoffMax:   opts.ReconnectBackoffMax,
		maxAttempts:  opts.ReconnectMaxAttempts,
		current:      Projection{Status: scan.StatusIdle, Message: "Waiting for connection..."},
	}, nil
}

// Run seeds the history store, opens the status channel, and processes events
// until ctx is canceled or Close is called. A failed seed fetch degrades to an
// empty history but never blocks the channel.
func (s *Synchronizer) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("syncer: already closed")
	}
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	// Seed fetch and channel connect race by design; upserts are idempotent
	// and the terminal-event refetch reconciles anything missed.
	go s.refetch(ctx, gen, triggerInitial)

	failures := 0
	for {
		if err := ctx.Err(); err != nil || s.isStale(gen) {
			return nil
		}

		src, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil || s.isStale(gen) {
				return nil
			}
			failures++
			if !s.waitRetry(ctx, failures, err) {
				s.degrade(gen, "status channel unavailable")
				return nil
			}
			continue
		}

		failures = 0
		s.setSource(gen, src)
		s.consume(ctx, gen, src)
		s.setSource(gen, nil)

		if ctx.Err() != nil || s.isStale(gen) {
			return nil
		}
		// Unexpected disconnect while still authenticated.
		failures++
		if !s.waitRetry(ctx, failures, errors.New("status channel closed")) {
			s.degrade(gen, "status channel lost")
			return nil
		}
	}
}

// Close tears the synchronizer down immediately: the active session is
// closed, and no event or in-flight fetch result mutates state afterwards.
func (s *Synchronizer) Close() error {
	s.mu.Lock()
	s.generation++
	s.closed = true
	src := s.source
	s.source = nil
	s.mu.Unlock()

	if src != nil {
		return src.Close()
	}
	return nil
}

// Current returns the current-status projection.
func (s *Synchronizer) Current() Projection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// ChannelState reports the status channel connection state.
func (s *Synchronizer) ChannelState() statuschan.State {
	s.mu.RLock()
	src := s.source
	s.mu.RUnlock()
	if src == nil {
		return statuschan.Disconnected
	}
	return src.State()
}

// History returns a snapshot of the store in insertion order.
func (s *Synchronizer) History() []scan.Record {
	return s.store.All()
}

// Lookup returns a single record snapshot by id.
func (s *Synchronizer) Lookup(id scan.ID) (scan.Record, bool) {
	return s.store.Get(id)
}

func (s *Synchronizer) consume(ctx context.Context, gen uint64, src EventSource) {
	defer src.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src.Events():
			if !ok {
				return
			}
			s.applyEvent(ctx, gen, ev)
		}
	}
}

// applyEvent is the single write path for channel events.
func (s *Synchronizer) applyEvent(ctx context.Context, gen uint64, ev scan.StatusEvent) {
	s.mu.Lock()
	if s.closed || s.generation != gen {
		s.mu.Unlock()
		return
	}
	s.current = Projection{Status: ev.Status, Message: ev.Message}
	if ev.ScanID != "" {
		s.store.Upsert(ev.Record())
		metrics.HistorySize.Set(float64(s.store.Len()))
	}
	s.mu.Unlock()

	if !ev.Status.Terminal() {
		return
	}

	switch ev.Status {
	case scan.StatusCompleted:
		s.notifier.Notify(Notice{Kind: NoticeSuccess, Message: "Scan completed successfully"})
	case scan.StatusError:
		msg := ev.Message
		if msg == "" {
			msg = "scan failed"
		}
		s.notifier.Notify(Notice{Kind: NoticeError, Message: msg})
	}

	// Terminal events carry only status and message; the refetch reconciles
	// everything else (report artifacts, findings) and self-heals missed
	// intermediate events. Exactly one refetch per terminal event.
	go s.refetch(ctx, gen, triggerTerminal)
}

func (s *Synchronizer) refetch(ctx context.Context, gen uint64, trigger string) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	records, err := s.fetcher.History(fetchCtx)
	if err != nil {
		metrics.HistoryFetchesTotal.WithLabelValues(trigger, "error").Inc()
		if trigger == triggerInitial {
			// The dashboard stays usable with an empty history.
			s.notifier.Notify(Notice{Kind: NoticeWarning, Message: "Could not load scan history"})
		}
		s.logger.Error("history fetch failed", "trigger", trigger, "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.generation != gen {
		// The fetch outlived the state it was meant for; drop the result.
		metrics.HistoryFetchesTotal.WithLabelValues(trigger, "stale").Inc()
		s.logger.Debug("dropping stale history fetch", "trigger", trigger)
		return
	}
	s.store.ReplaceAll(records)
	metrics.HistorySize.Set(float64(s.store.Len()))
	metrics.HistoryFetchesTotal.WithLabelValues(trigger, "ok").Inc()
	s.logger.Info("history synchronized", "trigger", trigger, "records", len(records))
}

// waitRetry sleeps for the backoff delay of the given failure count. It
// returns false when the retry budget is exhausted or the context ended.
func (s *Synchronizer) waitRetry(ctx context.Context, failures int, cause error) bool {
	if s.maxAttempts <= 0 || failures > s.maxAttempts {
		return false
	}
	delay := backoffDelay(s.backoffBase, failures, s.backoffMax)
	s.logger.Warn("status channel retry",
		"attempt", failures, "max_attempts", s.maxAttempts, "delay", delay, "err", cause)
	metrics.ChannelReconnectsTotal.Inc()

	select {
	case <-ctx.Done():
		return false
	case <-time.After(delay):
		return true
	}
}

func (s *Synchronizer) degrade(gen uint64, message string) {
	s.mu.Lock()
	if !s.closed && s.generation == gen {
		s.current = Projection{Status: scan.StatusError, Message: message}
	}
	s.mu.Unlock()
	s.notifier.Notify(Notice{Kind: NoticeWarning, Message: message})
}

func (s *Synchronizer) setSource(gen uint64, src EventSource) {
	s.mu.Lock()
	if !s.closed && s.generation == gen {
		s.source = src
	}
	s.mu.Unlock()
}

func (s *Synchronizer) isStale(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed || s.generation != gen
}

// backoffDelay doubles the base delay per failure, clamped to max.
func backoffDelay(base time.Duration, failures int, max time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	delay := base
	for i := 1; i < failures; i++ {
		if max > 0 && delay > max/2 {
			delay = max
			break
		}
		delay *= 2
	}
	if max > 0 && delay > max {
		return max
	}
	return delay
}
