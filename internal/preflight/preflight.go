package preflight

import (
	"context"

	"fieldsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// MinFreeBytes is the free-space floor for the data directory. The queue
// database and captured photos both live there; running it to zero corrupts
// neither but blocks new captures.
const MinFreeBytes = 50 << 20

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	results = append(results, CheckDiskSpace("Data disk space", cfg.Paths.DataDir, MinFreeBytes))

	if cfg.Remote.BaseURL != "" {
		results = append(results, CheckRemote(ctx, cfg.Connectivity.ProbeURL))
	}

	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}
