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
	"github.com/scanwatch/scanwatch/internal/http/viewmodels"
	"github.com/scanwatch/scanwatch/internal/scan"
)

var (
	reportJSON     bool
	reportDownload string
)

var reportCmd = &cobra.Command{
	Use:   "report <scan-id>",
	Short: "Print one scan's findings grouped by severity, or download its PDF.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(scan.ID(args[0]))
	},
}

func runReport(id scan.ID) error {
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

	if reportDownload != "" {
		return downloadReport(reqCtx, client, id, reportDownload)
	}

	record, err := client.Scan(reqCtx, id)
	if err != nil {
		return err
	}
	report := viewmodels.NewReport(record)

	if reportJSON {
		b, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}

	fmt.Printf("scan %s host=%s status=%s score=%.1f\n", report.ID, report.Host, report.Status, report.Risk.Score)
	if !report.ScanTime.IsZero() {
		fmt.Printf("scanned at %s\n", report.ScanTime.Format("2006-01-02T15:04:05Z07:00"))
	}
	if report.AISummary != "" {
		fmt.Printf("\n%s\n", report.AISummary)
	}
	for _, group := range report.Groups {
		fmt.Printf("\n%s (%d)\n", group.Tier, len(group.Findings))
		for _, f := range group.Findings {
			fmt.Printf("  - %s", f.Name)
			if f.Host != "" {
				fmt.Printf(" [%s]", f.Host)
			}
			fmt.Println()
		}
	}
	return nil
}

func downloadReport(ctx context.Context, client *api.Client, id scan.ID, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := client.DownloadReport(ctx, id, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("report saved to %s\n", path)
	return nil
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Print the report as JSON")
	reportCmd.Flags().StringVar(&reportDownload, "download", "", "Write the PDF report to this path instead of printing")
}
