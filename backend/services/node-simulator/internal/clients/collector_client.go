package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError is returned when the collector answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("collector returned %d: %s", e.StatusCode, e.Message)
}

// OccupancyReport is the body a node posts after every scan.
type OccupancyReport struct {
	NodeID     string `json:"node_id"`
	FreeSeats  int    `json:"free_seats"`
	TotalSeats int    `json:"total_seats"`
}

// Reading is one entry of the collector status listing. Seat values are kept
// raw since the collector stores whatever the node sent.
type Reading struct {
	NodeID     string          `json:"node_id"`
	FreeSeats  json.RawMessage `json:"free_seats"`
	TotalSeats json.RawMessage `json:"total_seats"`
	Timestamp  string          `json:"timestamp"`
}

type ackResponse struct {
	Status      string `json:"status"`
	NodeID      string `json:"node_id"`
	Calibration *bool  `json:"calibration,omitempty"`
}

type configResponse struct {
	Calibration bool `json:"calibration"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CollectorClient talks to the collector HTTP API.
type CollectorClient struct {
	http *resty.Client
}

// NewCollectorClient builds a client for baseURL.
func NewCollectorClient(baseURL string, timeout time.Duration) *CollectorClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &CollectorClient{http: client}
}

// ReportOccupancy posts a reading and returns the node id the collector recorded.
func (c *CollectorClient) ReportOccupancy(ctx context.Context, report OccupancyReport) (string, error) {
	var ack ackResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(report).
		SetResult(&ack).
		SetError(&errorResponse{}).
		Post("/api/occupancy")
	if err := checkResponse(resp, err); err != nil {
		return "", err
	}
	return ack.NodeID, nil
}

// RequestCalibration sets the pending calibration flag for nodeID.
func (c *CollectorClient) RequestCalibration(ctx context.Context, nodeID string, enable bool) (bool, error) {
	var ack ackResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"node_id": nodeID, "enable": enable}).
		SetResult(&ack).
		SetError(&errorResponse{}).
		Post("/api/calibration")
	if err := checkResponse(resp, err); err != nil {
		return false, err
	}
	if ack.Calibration == nil {
		return enable, nil
	}
	return *ack.Calibration, nil
}

// FetchConfig consumes the pending calibration flag for nodeID.
func (c *CollectorClient) FetchConfig(ctx context.Context, nodeID string) (bool, error) {
	var out configResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("node_id", nodeID).
		SetResult(&out).
		SetError(&errorResponse{}).
		Get("/api/config")
	if err := checkResponse(resp, err); err != nil {
		return false, err
	}
	return out.Calibration, nil
}

// Status lists the latest reading of every node.
func (c *CollectorClient) Status(ctx context.Context) ([]Reading, error) {
	var out []Reading
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&errorResponse{}).
		Get("/api/status")
	if err := checkResponse(resp, err); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Reading{}
	}
	return out, nil
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("collector request: %w", err)
	}
	if !resp.IsError() {
		return nil
	}
	msg := resp.Status()
	if body, ok := resp.Error().(*errorResponse); ok && body.Error != "" {
		msg = body.Error
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}
