// Package api is the REST client for the scan evaluation backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/scanwatch/scanwatch/internal/scan"
)

const (
	defaultTimeout   = 30 * time.Second
	maxErrorBodySize = 1 << 20 // 1 MiB
)

// ErrNotFound is returned when the backend has no scan for the requested id.
var ErrNotFound = errors.New("scan not found")

// Client talks to the evaluation backend. All endpoints live under /api/v1
// and require a bearer token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// StartParams are the scan parameters accepted by the backend.
type StartParams struct {
	IPRange  string `json:"ip_range"`
	ScanType string `json:"scan_type,omitempty"`
}

// New creates a backend client. It validates that baseURL and token are
// provided.
func New(baseURL, token string) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	token = strings.TrimSpace(token)

	if base == "" {
		return nil, errors.New("backend base URL is required")
	}
	if token == "" {
		return nil, errors.New("backend api token is required")
	}

	return &Client{
		BaseURL: base,
		Token:   token,
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}, nil
}

func (c *Client) ensureClient() error {
	if c.BaseURL == "" {
		return errors.New("backend base URL is required")
	}
	if c.Token == "" {
		return errors.New("backend api token is required")
	}
	if c.HTTP == nil {
		return errors.New("backend http client is not configured")
	}
	return nil
}

// History fetches the full scan history for the authenticated identity,
// most recent first (backend order is preserved).
func (c *Client) History(ctx context.Context) ([]scan.Record, error) {
	if err := c.ensureClient(); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, "/api/v1/evaluation/history")
	if err != nil {
		return nil, err
	}
	var records []scan.Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return records, nil
}

// Scan fetches a single scan including its findings and AI summary.
func (c *Client) Scan(ctx context.Context, id scan.ID) (scan.Record, error) {
	if err := c.ensureClient(); err != nil {
		return scan.Record{}, err
	}
	if id == "" {
		return scan.Record{}, errors.New("scan id is required")
	}
	body, err := c.get(ctx, "/api/v1/scan/"+url.PathEscape(string(id)))
	if err != nil {
		return scan.Record{}, err
	}
	var record scan.Record
	if err := json.Unmarshal(body, &record); err != nil {
		return scan.Record{}, fmt.Errorf("decode scan %s: %w", id, err)
	}
	return record, nil
}

// StartEvaluation submits a new scan and returns the accepted scan id.
func (c *Client) StartEvaluation(ctx context.Context, p StartParams) (scan.ID, error) {
	if err := c.ensureClient(); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.IPRange) == "" {
		return "", errors.New("scan target is required")
	}

	payload, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	body, err := c.do(ctx, http.MethodPost, "/api/v1/evaluation/start", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	var accepted struct {
		Message string  `json:"message"`
		ScanID  scan.ID `json:"scanId"`
	}
	if err := json.Unmarshal(body, &accepted); err != nil {
		return "", fmt.Errorf("decode start response: %w", err)
	}
	if accepted.ScanID == "" {
		return "", errors.New("backend accepted the scan but returned no id")
	}
	return accepted.ScanID, nil
}

// DownloadReport streams the generated PDF report for a scan into w.
func (c *Client) DownloadReport(ctx context.Context, id scan.ID, w io.Writer) error {
	if err := c.ensureClient(); err != nil {
		return err
	}
	if id == "" {
		return errors.New("scan id is required")
	}

	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/reports/"+url.PathEscape(string(id))+"/download", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return err
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("download report %s: %w", id, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return fmt.Errorf("backend returned %d for %s: %s", resp.StatusCode, resp.Request.URL.Path, strings.TrimSpace(string(snippet)))
}
