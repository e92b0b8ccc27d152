package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for values that would prevent the daemon
// from operating. The remote section may be left empty; syncing then fails
// per action with a descriptive error rather than at startup.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}

	if c.Remote.BaseURL != "" {
		if err := validateURL("remote.base_url", c.Remote.BaseURL); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if c.Remote.TimeoutSeconds <= 0 {
		problems = append(problems, "remote.timeout_seconds must be positive")
	}

	if c.Connectivity.ProbeURL != "" {
		if err := validateURL("connectivity.probe_url", c.Connectivity.ProbeURL); err != nil {
			problems = append(problems, err.Error())
		}
	}
	if c.Connectivity.ProbeIntervalSeconds <= 0 {
		problems = append(problems, "connectivity.probe_interval must be positive")
	}
	if c.Connectivity.ProbeTimeoutSeconds <= 0 {
		problems = append(problems, "connectivity.probe_timeout must be positive")
	}
	if c.Connectivity.PendingRefreshSeconds <= 0 {
		problems = append(problems, "connectivity.pending_refresh_interval must be positive")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", c.Logging.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func validateURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s %q is not a valid absolute URL", field, value)
	}
	switch parsed.Scheme {
	case "http", "https":
		return nil
	default:
		return fmt.Errorf("%s %q must use http or https", field, value)
	}
}
