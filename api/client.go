package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/TFMV/coordgeom/pkg/eval"
)

// Client represents a client for the coordgeom API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: time.Second * 30,
		},
	}
}

// Evaluate runs a single request on the server.
func (c *Client) Evaluate(ctx context.Context, req eval.Request) (eval.Result, error) {
	results, err := c.Batch(ctx, []eval.Request{req})
	if err != nil {
		return eval.Result{}, err
	}
	if len(results) != 1 {
		return eval.Result{}, fmt.Errorf("expected 1 result, got %d", len(results))
	}
	return results[0], nil
}

// Batch runs reqs on the server in one round trip.
func (c *Client) Batch(ctx context.Context, reqs []eval.Request) ([]eval.Result, error) {
	var out BatchResponse
	if err := c.sendRequest(ctx, http.MethodPost, "/api/v1/batch", BatchRequest{Operations: reqs}, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]interface{}
	return c.sendRequest(ctx, http.MethodGet, "/health", nil, &out)
}

// sendRequest sends an HTTP request to the API and decodes the JSON reply into out
func (c *Client) sendRequest(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		jsonData, err := sonic.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	if err := sonic.Unmarshal(bodyBytes, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
