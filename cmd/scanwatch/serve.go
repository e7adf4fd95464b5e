package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scanwatch/scanwatch/internal/api"
	"github.com/scanwatch/scanwatch/internal/config"
	"github.com/scanwatch/scanwatch/internal/history"
	httpapp "github.com/scanwatch/scanwatch/internal/http"
	"github.com/scanwatch/scanwatch/internal/logging"
	"github.com/scanwatch/scanwatch/internal/metrics"
	"github.com/scanwatch/scanwatch/internal/statuschan"
	"github.com/scanwatch/scanwatch/internal/syncer"
)

var serveCmd = &cobra.Command{
	Use:         "serve",
	Short:       "Run the live scan view: status channel, history sync, and HTTP API.",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationStructuredLog: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.BootstrapFromEnv("scanwatch serve")
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := api.New(cfg.APIBaseURL, cfg.APIToken)
	if err != nil {
		return err
	}

	store := history.NewStore()
	sync, err := syncer.New(syncer.Options{
		Fetcher: client,
		Dial: func(ctx context.Context) (syncer.EventSource, error) {
			return statuschan.Dial(ctx, cfg.APIBaseURL, cfg.UserID, logger)
		},
		Store:                store,
		Logger:               logger,
		FetchTimeout:         cfg.FetchTimeout,
		ReconnectBackoffBase: cfg.ReconnectBackoffBase,
		ReconnectBackoffMax:  cfg.ReconnectBackoffMax,
		ReconnectMaxAttempts: cfg.ReconnectMaxAttempts,
	})
	if err != nil {
		return err
	}
	defer sync.Close()

	metrics.StartServer(ctx, cfg.MetricsAddr)

	srv, err := httpapp.NewEchoServer(sync, client)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := sync.Run(gctx); err != nil {
			return err
		}
		if gctx.Err() == nil {
			// Degraded: the channel is gone for good, but the HTTP surface
			// keeps serving the last known state.
			logger.Warn("synchronizer stopped, serving last known state")
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := srv.StartServer(httpServer); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
