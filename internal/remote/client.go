package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

const (
	headerIdempotencyKey = "Idempotency-Key"

	defaultTimeout = 30 * time.Second

	// Responses larger than this are truncated in error messages.
	maxErrorBody = 512
)

// StatusError reports a non-success HTTP response from the backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote returned %d", e.Code)
	}
	return fmt.Sprintf("remote returned %d: %s", e.Code, e.Body)
}

// Client delivers actions to the backend over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	logger     *slog.Logger
	httpClient *http.Client
}

var _ queue.Executor = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger attaches a logger to the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.With(logging.String(logging.FieldComponent, "remote"))
		}
	}
}

// New creates a backend client.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("remote base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(apiKey),
		logger:     logging.NewNop(),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// PhotoPayload is the capture-time document queued for photo uploads. Path
// references the photo on local disk; the bytes are read at sync time.
type PhotoPayload struct {
	Path      string   `json:"path"`
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	SiteID    string   `json:"site_id,omitempty"`
	Notes     string   `json:"notes,omitempty"`
}

// UploadPhoto streams the photo file and its capture metadata as a multipart
// POST to /photos.
func (c *Client) UploadPhoto(ctx context.Context, actionID string, payload json.RawMessage) error {
	var photo PhotoPayload
	if err := json.Unmarshal(payload, &photo); err != nil {
		return fmt.Errorf("decode photo payload: %w", err)
	}
	if photo.Path == "" {
		return errors.New("photo payload missing path")
	}

	file, err := os.Open(photo.Path)
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	part, err := form.CreateFormFile("photo", filepath.Base(photo.Path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read photo: %w", err)
	}

	fields := map[string]string{
		"timestamp": photo.Timestamp,
		"site_id":   photo.SiteID,
		"notes":     photo.Notes,
	}
	if photo.Latitude != nil {
		fields["latitude"] = strconv.FormatFloat(*photo.Latitude, 'f', -1, 64)
	}
	if photo.Longitude != nil {
		fields["longitude"] = strconv.FormatFloat(*photo.Longitude, 'f', -1, 64)
	}
	for key, value := range fields {
		if value == "" {
			continue
		}
		if err := form.WriteField(key, value); err != nil {
			return fmt.Errorf("write field %s: %w", key, err)
		}
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("finalize form: %w", err)
	}

	return c.post(ctx, "/photos", actionID, form.FormDataContentType(), body)
}

// SubmitDailyReport posts a daily report document to /reports.
func (c *Client) SubmitDailyReport(ctx context.Context, actionID string, payload json.RawMessage) error {
	return c.postJSON(ctx, "/reports", actionID, payload)
}

// RecordAttendance posts an attendance punch to /attendance.
func (c *Client) RecordAttendance(ctx context.Context, actionID string, payload json.RawMessage) error {
	return c.postJSON(ctx, "/attendance", actionID, payload)
}

// CreateSiteVisit posts a site visit record to /site-visits.
func (c *Client) CreateSiteVisit(ctx context.Context, actionID string, payload json.RawMessage) error {
	return c.postJSON(ctx, "/site-visits", actionID, payload)
}

func (c *Client) postJSON(ctx context.Context, path, actionID string, payload json.RawMessage) error {
	return c.post(ctx, path, actionID, "application/json", bytes.NewReader(payload))
}

func (c *Client) post(ctx context.Context, path, actionID, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(headerIdempotencyKey, actionID)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	c.logger.Debug("action delivered",
		logging.String(logging.FieldActionID, actionID),
		logging.String("path", path),
		logging.Duration("latency", latency),
	)
	return nil
}
