// Package client is a thin HTTP client for the optional debug status
// endpoint (internal/debugserver): used by the example CLI's "status"
// subcommand to query a running session from a separate process.
package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusClient calls GET /status on a debugserver.Server.
type StatusClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewStatusClient builds a StatusClient against a debug server listening
// at addr (host:port, as passed to ClientConfig.DebugHTTPAddr).
func NewStatusClient(addr string) *StatusClient {
	return &StatusClient{
		BaseURL:    "http://" + addr,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// StatusResponse mirrors debugserver's JSON status body.
type StatusResponse struct {
	State              string `json:"state"`
	SensorState        string `json:"sensorState"`
	QueueDepth         int    `json:"queueDepth"`
	DroppedFromQueue   uint64 `json:"droppedFromQueue"`
	LastClockDelayNs   int64  `json:"lastClockDelayNs"`
	LastClockOffsetNs  int64  `json:"lastClockOffsetNs"`
}

// GetStatus fetches and decodes the current session status.
func (c *StatusClient) GetStatus() (*StatusResponse, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/status")
	if err != nil {
		return nil, fmt.Errorf("client: get status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read status body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("client: status endpoint returned %d: %s", resp.StatusCode, body)
	}

	var result StatusResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("client: decode status response: %w", err)
	}
	return &result, nil
}
