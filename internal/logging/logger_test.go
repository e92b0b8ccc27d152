package logging_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fieldsync/internal/config"
	"fieldsync/internal/logging"
)

func TestNewWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("hello", logging.String("k", "v"))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello") || !strings.Contains(string(content), "k=v") {
		t.Fatalf("unexpected log content: %q", content)
	}
}

func TestNewJSONFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")

	logger, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("structured", logging.Int("count", 3))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"count":3`) {
		t.Fatalf("expected json output, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestInfoLevelSuppressesDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("hidden")
	logger.Info("visible")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), "hidden") {
		t.Fatalf("debug line should be suppressed: %q", content)
	}
	if !strings.Contains(string(content), "visible") {
		t.Fatalf("info line missing: %q", content)
	}
}

func TestNewFromConfigCreatesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("startup")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "fieldsync.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "startup") {
		t.Fatalf("expected teed log line, got %q", content)
	}
}

func TestComponentLoggerAndNop(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "out.log")
	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(base, "worker").Info("tick")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "component=worker") {
		t.Fatalf("expected component attr, got %q", content)
	}

	// Nil base falls back to a no-op logger without panicking.
	logging.NewComponentLogger(nil, "worker").Error("dropped", logging.Error(errors.New("boom")))
}
