package testsupport

import (
	"path/filepath"
	"testing"

	"fieldsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Remote.BaseURL = "http://127.0.0.1:0"
	cfgVal.Remote.APIKey = "test"
	cfgVal.Connectivity.ProbeURL = "http://127.0.0.1:0/health"
	cfgVal.Connectivity.NetlinkEvents = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRemote points the test config at a live test server.
func WithRemote(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remote.BaseURL = baseURL
		b.cfg.Remote.APIKey = apiKey
		b.cfg.Connectivity.ProbeURL = baseURL + "/health"
	}
}

// WithProbeURL overrides the connectivity probe target on the test config.
func WithProbeURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Connectivity.ProbeURL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
