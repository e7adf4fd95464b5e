package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scanwatch/scanwatch/internal/api"
	"github.com/scanwatch/scanwatch/internal/config"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the backend's evaluation history.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory()
	},
}

func runHistory() error {
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

	records, err := client.History(reqCtx)
	if err != nil {
		return err
	}

	if historyJSON {
		b, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}

	if len(records) == 0 {
		fmt.Println("no evaluations yet")
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s\t%s", r.ID, r.Status)
		if r.Host != "" {
			line += "\t" + r.Host
		}
		if !r.ScanTime.IsZero() {
			line += "\t" + r.ScanTime.Format("2006-01-02 15:04")
		}
		fmt.Println(line)
	}
	return nil
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print history as JSON")
}
