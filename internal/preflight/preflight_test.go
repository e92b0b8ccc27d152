package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"fieldsync/internal/preflight"
	"fieldsync/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := preflight.CheckDirectoryAccess("Data directory", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir: %s", result.Detail)
	}

	result = preflight.CheckDirectoryAccess("Data directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = preflight.CheckDirectoryAccess("Data directory", file)
	if result.Passed {
		t.Fatal("expected failure for non-directory")
	}
}

func TestCheckDiskSpace(t *testing.T) {
	result := preflight.CheckDiskSpace("Data disk space", t.TempDir(), 1)
	if !result.Passed {
		t.Fatalf("expected pass for tiny floor: %s", result.Detail)
	}

	result = preflight.CheckDiskSpace("Data disk space", "/nonexistent/path", 1)
	if result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := preflight.CheckRemote(context.Background(), server.URL+"/health")
	if !result.Passed {
		t.Fatalf("expected pass against test server: %s", result.Detail)
	}

	server.Close()
	result = preflight.CheckRemote(context.Background(), server.URL+"/health")
	if result.Passed {
		t.Fatal("expected failure against closed server")
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	cfg.Remote.BaseURL = server.URL
	cfg.Connectivity.ProbeURL = server.URL + "/health"

	results := preflight.RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 checks, got %d", len(results))
	}
	if !preflight.AllPassed(results) {
		for _, result := range results {
			t.Logf("%s: passed=%v detail=%s", result.Name, result.Passed, result.Detail)
		}
		t.Fatal("expected all checks to pass")
	}
}
