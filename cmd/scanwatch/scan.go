package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scanwatch/scanwatch/internal/api"
	"github.com/scanwatch/scanwatch/internal/config"
)

var (
	scanTarget string
	scanType   string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Ask the backend to start a new evaluation.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan()
	},
}

func runScan() error {
	if scanTarget == "" {
		return errors.New("--target is required")
	}

	cfg, err := config.LoadREST()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client, err := api.New(cfg.APIBaseURL, cfg.APIToken)
	if err != nil {
		return err
	}

	reqCtx, reqCancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer reqCancel()

	id, err := client.StartEvaluation(reqCtx, api.StartParams{IPRange: scanTarget, ScanType: scanType})
	if err != nil {
		return err
	}

	fmt.Printf("evaluation started scan_id=%s target=%s\n", id, scanTarget)
	return nil
}

func init() {
	scanCmd.Flags().StringVar(&scanTarget, "target", "", "IP range or host to evaluate")
	scanCmd.Flags().StringVar(&scanType, "type", "", "Scan type hint forwarded to the backend")
}
