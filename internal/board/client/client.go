// Package client is a typed client of the gateway HTTP API, used by the
// command line tool.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leetrental/fleetboard/internal/board/core/model"
	"github.com/leetrental/fleetboard/internal/board/core/service"
	"github.com/leetrental/fleetboard/internal/lifecycle"
)

type Client struct {
	base string
	http *http.Client
}

func New(endpoint string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(endpoint, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

type boardResponse struct {
	Columns []service.Column `json:"columns"`
}

type resolveResponse struct {
	Action string                       `json:"action"`
	Fields []lifecycle.FieldRequirement `json:"fields"`
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) Board(ctx context.Context) ([]service.Column, error) {
	var out boardResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/board", nil, &out); err != nil {
		return nil, err
	}
	return out.Columns, nil
}

func (c *Client) Refresh(ctx context.Context) ([]service.Column, error) {
	var out boardResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/board/refresh", nil, &out); err != nil {
		return nil, err
	}
	return out.Columns, nil
}

// Resolve opens the transition window for a vehicle and returns the action
// name and the fields to collect.
func (c *Client) Resolve(ctx context.Context, vehicleID string, from, to lifecycle.VehicleState) (string, []lifecycle.FieldRequirement, error) {
	body := map[string]string{"from": string(from), "to": string(to)}
	var out resolveResponse
	path := fmt.Sprintf("/api/v1/vehicles/%s/transition/resolve", vehicleID)
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", nil, err
	}
	return out.Action, out.Fields, nil
}

// Complete submits a begun transition with the collected payload. Rejected
// and Failed come back as outcomes, not errors; only refused requests
// (validation, conflicts) error.
func (c *Client) Complete(ctx context.Context, vehicleID string, to lifecycle.VehicleState, payload lifecycle.Payload) (*model.TransitionOutcome, error) {
	body := map[string]any{"to": string(to), "payload": payload}
	path := fmt.Sprintf("/api/v1/vehicles/%s/transition", vehicleID)

	status, data, err := c.doRaw(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	// A failed attempt travels on 502 with the outcome in the body.
	if status == http.StatusOK || status == http.StatusBadGateway {
		var out model.TransitionOutcome
		if err := json.Unmarshal(data, &out); err == nil && out.Result != "" {
			return &out, nil
		}
	}
	return nil, statusError(status, data)
}

func (c *Client) Cancel(ctx context.Context, vehicleID string) error {
	path := fmt.Sprintf("/api/v1/vehicles/%s/transition/cancel", vehicleID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	status, data, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if status >= http.StatusBadRequest {
		return statusError(status, data)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *Client) doRaw(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

func statusError(status int, data []byte) error {
	var apiErr apiError
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("%s", apiErr.Error)
	}
	return fmt.Errorf("gateway returned status %d", status)
}
