package recordkeeper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/leetrental/fleetboard/pkg/options"
)

// httpClient talks JSON over HTTP to the back office.
type httpClient struct {
	base   string
	token  string
	client *http.Client
}

var _ Client = (*httpClient)(nil)

// NewHTTPClient creates a record keeper client from the given options.
func NewHTTPClient(opts *options.RecordkeeperOptions) (Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("record keeper options are required")
	}
	if _, err := url.Parse(opts.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid record keeper endpoint: %w", err)
	}

	return &httpClient{
		base:   strings.TrimRight(opts.Endpoint, "/"),
		token:  opts.Token,
		client: &http.Client{Timeout: opts.Timeout},
	}, nil
}

type attemptRequest struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (c *httpClient) AttemptTransition(ctx context.Context, vehicleID, from, to string, payload map[string]any) (*AttemptReply, error) {
	body, err := json.Marshal(attemptRequest{From: from, To: to, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode attempt: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/v1/vehicles/%s/transitions", c.base, url.PathEscape(vehicleID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build attempt request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	// A definitive answer is a reply body we can parse on an expected status.
	// Anything else (5xx, gateway noise, truncated body) leaves the true
	// vehicle state unknown.
	switch resp.StatusCode {
	case http.StatusOK, http.StatusConflict, http.StatusUnprocessableEntity:
		reply := &AttemptReply{}
		if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(reply); err != nil {
			return nil, fmt.Errorf("%w: undecodable reply on status %d: %v", ErrUnreachable, resp.StatusCode, err)
		}
		return reply, nil
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnreachable, resp.StatusCode)
	}
}

func (c *httpClient) ListVehicles(ctx context.Context) ([]VehicleRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v1/vehicles", nil)
	if err != nil {
		return nil, fmt.Errorf("build list request: %w", err)
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrUnreachable, resp.StatusCode)
	}

	var records []VehicleRecord
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: undecodable vehicle list: %v", ErrUnreachable, err)
	}
	return records, nil
}

func (c *httpClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
