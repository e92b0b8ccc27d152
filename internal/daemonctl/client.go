package daemonctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"fieldsync/internal/api"
	"fieldsync/internal/config"
)

// ErrDaemonNotRunning indicates the daemon API is unreachable.
var ErrDaemonNotRunning = errors.New("daemon not running")

const dialTimeout = 2 * time.Second

// Client talks to a running fieldsync daemon over its HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client for the configured API bind address. It does not
// verify that a daemon is listening; use Dial for that.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address not configured")
	}
	return &Client{
		baseURL:    "http://" + bind,
		token:      cfg.Paths.APIToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Dial builds a client and confirms the daemon responds to a status request.
// An unreachable daemon yields ErrDaemonNotRunning.
func Dial(ctx context.Context, cfg *config.Config) (*Client, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	probeCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if _, err := client.Status(probeCtx); err != nil {
		return nil, err
	}
	return client, nil
}

// Status fetches the daemon status snapshot.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var status api.DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// QueueList returns actions filtered by the provided status names.
func (c *Client) QueueList(ctx context.Context, statuses []string) ([]api.QueueAction, error) {
	path := "/api/queue"
	if len(statuses) > 0 {
		values := url.Values{}
		for _, status := range statuses {
			values.Add("status", status)
		}
		path += "?" + values.Encode()
	}
	var resp api.QueueListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Actions, nil
}

// QueueDescribe fetches a single action. A missing id yields (nil, nil).
func (c *Client) QueueDescribe(ctx context.Context, id string) (*api.QueueAction, error) {
	var resp api.QueueActionResponse
	err := c.do(ctx, http.MethodGet, "/api/queue/"+url.PathEscape(id), nil, &resp)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &resp.Action, nil
}

// Enqueue persists a new action through the daemon.
func (c *Client) Enqueue(ctx context.Context, kind string, payload json.RawMessage) (*api.QueueAction, error) {
	req := api.EnqueueRequest{Kind: kind, Payload: payload}
	var resp api.QueueActionResponse
	if err := c.do(ctx, http.MethodPost, "/api/queue", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Action, nil
}

// QueueRemove deletes an action. It reports whether the action existed.
func (c *Client) QueueRemove(ctx context.Context, id string) (bool, error) {
	err := c.do(ctx, http.MethodDelete, "/api/queue/"+url.PathEscape(id), nil, nil)
	if isNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// QueueRetry resets failed actions back to pending. With no ids it retries
// all failed actions.
func (c *Client) QueueRetry(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		var resp api.ClearResponse
		if err := c.do(ctx, http.MethodPost, "/api/queue/retry", nil, &resp); err != nil {
			return 0, err
		}
		return resp.Affected, nil
	}
	var total int64
	for _, id := range ids {
		var resp api.ClearResponse
		err := c.do(ctx, http.MethodPost, "/api/queue/"+url.PathEscape(id)+"/retry", nil, &resp)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return total, err
		}
		total += resp.Affected
	}
	return total, nil
}

// QueueClear removes all actions, or only failed ones.
func (c *Client) QueueClear(ctx context.Context, failedOnly bool) (int64, error) {
	path := "/api/queue/clear"
	if failedOnly {
		path += "?failed=1"
	}
	var resp api.ClearResponse
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Affected, nil
}

// Sync asks the daemon to run a sync pass now.
func (c *Client) Sync(ctx context.Context) (api.SyncResponse, error) {
	var resp api.SyncResponse
	if err := c.do(ctx, http.MethodPost, "/api/sync", nil, &resp); err != nil {
		return api.SyncResponse{}, err
	}
	return resp, nil
}

// Close releases client resources. It exists so sessions can treat API and
// store backends uniformly.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// statusError carries an HTTP status alongside the daemon's error message.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf("daemon returned status %d", e.code)
}

func isNotFound(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return fmt.Errorf("%w: %s", ErrDaemonNotRunning, c.baseURL)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := decodeErrorMessage(resp.Body)
		return &statusError{code: resp.StatusCode, message: message}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeErrorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Error)
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENOENT) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
