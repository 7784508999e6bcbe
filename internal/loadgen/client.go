package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/lineup/internal/domain/types"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 4 << 10

// StatusError is returned for an unexpected response status.
type StatusError struct {
	Status int
	Body   types.ErrorResponse
}

func (e *StatusError) Error() string {
	if e.Body.Code != "" {
		return fmt.Sprintf("status %d: %s: %s", e.Status, e.Body.Code, e.Body.Message)
	}
	return fmt.Sprintf("status %d", e.Status)
}

// client is a small JSON client for the lineup API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{base: base, http: &http.Client{Timeout: timeout}}
}

// do sends body as JSON, decodes a 2xx response into out and returns the status.
func (c *client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&se.Body)
		return resp.StatusCode, se
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func (c *client) health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	return err
}

func (c *client) stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	_, err := c.do(ctx, http.MethodGet, "/stats", nil, &out)
	return out, err
}

func (c *client) vote(ctx context.Context, v types.VoteRequest) (types.Ack, error) { //nolint:gocritic // hugeParam
	var ack types.Ack
	_, err := c.do(ctx, http.MethodPost, "/api/v1/votes", v, &ack)
	return ack, err
}

func (c *client) balance(ctx context.Context, req types.BalanceRequest) (types.BalanceResponse, error) { //nolint:gocritic // hugeParam
	var out types.BalanceResponse
	_, err := c.do(ctx, http.MethodPost, "/api/v1/balance", req, &out)
	return out, err
}

func (c *client) scores(ctx context.Context, player string) (types.PlayerScores, error) {
	var out types.PlayerScores
	_, err := c.do(ctx, http.MethodGet, "/api/v1/players/"+url.PathEscape(player)+"/scores", nil, &out)
	return out, err
}
