package remote_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"fieldsync/internal/remote"
)

func TestPostJSONEndpoints(t *testing.T) {
	type seen struct {
		path        string
		auth        string
		idempotency string
		contentType string
		body        map[string]any
	}
	var got seen
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.path = r.URL.Path
		got.auth = r.Header.Get("Authorization")
		got.idempotency = r.Header.Get("Idempotency-Key")
		got.contentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&got.body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := remote.New(server.URL, "secret-key")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	cases := []struct {
		name     string
		call     func() error
		wantPath string
	}{
		{"report", func() error {
			return client.SubmitDailyReport(ctx, "act-1", json.RawMessage(`{"notes":"n"}`))
		}, "/reports"},
		{"attendance", func() error {
			return client.RecordAttendance(ctx, "act-2", json.RawMessage(`{"worker":"w"}`))
		}, "/attendance"},
		{"site visit", func() error {
			return client.CreateSiteVisit(ctx, "act-3", json.RawMessage(`{"site":"s"}`))
		}, "/site-visits"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if got.path != tc.wantPath {
				t.Fatalf("expected path %s, got %s", tc.wantPath, got.path)
			}
			if got.auth != "Bearer secret-key" {
				t.Fatalf("unexpected auth header: %q", got.auth)
			}
			if got.idempotency == "" {
				t.Fatal("expected idempotency key header")
			}
			if got.contentType != "application/json" {
				t.Fatalf("unexpected content type: %q", got.contentType)
			}
		})
	}
}

func TestUploadPhotoMultipart(t *testing.T) {
	photoPath := filepath.Join(t.TempDir(), "capture.jpg")
	if err := os.WriteFile(photoPath, []byte{0xFF, 0xD8, 0xFF, 0xD9}, 0o644); err != nil {
		t.Fatalf("write photo: %v", err)
	}

	var (
		gotFilename string
		gotFields   map[string]string
		gotKey      string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photos" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotKey = r.Header.Get("Idempotency-Key")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		gotFields = make(map[string]string)
		for key, values := range r.MultipartForm.Value {
			gotFields[key] = values[0]
		}
		if files := r.MultipartForm.File["photo"]; len(files) == 1 {
			gotFilename = files[0].Filename
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := remote.New(server.URL, "secret-key")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	lat := 37.55
	lon := -122.4
	payload, err := json.Marshal(remote.PhotoPayload{
		Path:      photoPath,
		Timestamp: "2026-01-15T09:30:00Z",
		Latitude:  &lat,
		Longitude: &lon,
		SiteID:    "site-7",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	if err := client.UploadPhoto(context.Background(), "act-photo", payload); err != nil {
		t.Fatalf("UploadPhoto failed: %v", err)
	}
	if gotKey != "act-photo" {
		t.Fatalf("unexpected idempotency key: %q", gotKey)
	}
	if gotFilename != "capture.jpg" {
		t.Fatalf("unexpected filename: %q", gotFilename)
	}
	if gotFields["timestamp"] != "2026-01-15T09:30:00Z" {
		t.Fatalf("unexpected timestamp field: %q", gotFields["timestamp"])
	}
	if gotFields["latitude"] != "37.55" || gotFields["longitude"] != "-122.4" {
		t.Fatalf("unexpected coordinates: %q %q", gotFields["latitude"], gotFields["longitude"])
	}
	if gotFields["site_id"] != "site-7" {
		t.Fatalf("unexpected site field: %q", gotFields["site_id"])
	}
}

func TestUploadPhotoMissingFile(t *testing.T) {
	client, err := remote.New("http://127.0.0.1:0", "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	payload, _ := json.Marshal(remote.PhotoPayload{Path: "/nonexistent/photo.jpg"})
	if err := client.UploadPhoto(context.Background(), "act-1", payload); err == nil {
		t.Fatal("expected error for missing photo file")
	}
}

func TestServerErrorSurfacesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"missing worker id"}`))
	}))
	defer server.Close()

	client, err := remote.New(server.URL, "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	err = client.RecordAttendance(context.Background(), "act-1", json.RawMessage(`{}`))
	var statusErr *remote.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected code: %d", statusErr.Code)
	}
	if statusErr.Body == "" {
		t.Fatal("expected response body in error")
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := remote.New("", "key"); err == nil {
		t.Fatal("expected error for empty base url")
	}
}
