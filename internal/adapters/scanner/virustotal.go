// Package scanner adapts the VirusTotal v3 API to the scan-service port.
package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Arjun9756/Mini-S3-Bucket/internal/domain"
	"github.com/Arjun9756/Mini-S3-Bucket/internal/ports"
)

const defaultBaseURL = "https://www.virustotal.com/api/v3"

// Client talks to the VirusTotal file-analysis API. Network and 5xx
// failures are wrapped in domain.ErrScanTransient so the queue retries
// them; 4xx responses are returned as-is and end the job.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("virustotal api key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}, nil
}

type submitResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (c *Client) Submit(ctx context.Context, filename string, content io.Reader) (ports.ScanSubmission, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return ports.ScanSubmission{}, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return ports.ScanSubmission{}, fmt.Errorf("read file content: %w", err)
	}
	if err := form.Close(); err != nil {
		return ports.ScanSubmission{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/files", &body)
	if err != nil {
		return ports.ScanSubmission{}, err
	}
	req.Header.Set("x-apikey", c.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.ScanSubmission{}, fmt.Errorf("%w: submit file: %v", domain.ErrScanTransient, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "submit file"); err != nil {
		return ports.ScanSubmission{}, err
	}

	var decoded submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.ScanSubmission{}, fmt.Errorf("decode submit response: %w", err)
	}
	if decoded.Data.ID == "" {
		return ports.ScanSubmission{}, fmt.Errorf("submit response carried no analysis id")
	}
	return ports.ScanSubmission{AnalysisID: decoded.Data.ID}, nil
}

type analysisResponse struct {
	Data struct {
		Attributes struct {
			Status string `json:"status"`
			Stats  struct {
				Malicious  int `json:"malicious"`
				Suspicious int `json:"suspicious"`
				Harmless   int `json:"harmless"`
				Undetected int `json:"undetected"`
			} `json:"stats"`
		} `json:"attributes"`
	} `json:"data"`
}

func (c *Client) FetchAnalysis(ctx context.Context, analysisID string) (ports.AnalysisReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analyses/"+analysisID, nil)
	if err != nil {
		return ports.AnalysisReport{}, err
	}
	req.Header.Set("x-apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.AnalysisReport{}, fmt.Errorf("%w: fetch analysis: %v", domain.ErrScanTransient, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "fetch analysis"); err != nil {
		return ports.AnalysisReport{}, err
	}

	var decoded analysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.AnalysisReport{}, fmt.Errorf("decode analysis response: %w", err)
	}

	report := ports.AnalysisReport{
		Completed: decoded.Data.Attributes.Status == "completed",
	}
	if report.Completed {
		stats := decoded.Data.Attributes.Stats
		report.Stats = domain.ScanStats{
			Malicious:  stats.Malicious,
			Suspicious: stats.Suspicious,
			Harmless:   stats.Harmless,
			Undetected: stats.Undetected,
		}
	}
	return report, nil
}

func checkStatus(resp *http.Response, operation string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: status %d", domain.ErrScanTransient, operation, resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d: %s", operation, resp.StatusCode, snippet)
	}
}
