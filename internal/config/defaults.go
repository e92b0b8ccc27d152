package config

const (
	defaultDataDir               = "~/.local/share/fieldsync"
	defaultLogDir                = "~/.local/share/fieldsync/logs"
	defaultAPIBind               = "127.0.0.1:7519"
	defaultRemoteTimeoutSeconds  = 30
	defaultProbeIntervalSeconds  = 15
	defaultProbeTimeoutSeconds   = 5
	defaultPendingRefreshSeconds = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Remote: Remote{
			TimeoutSeconds: defaultRemoteTimeoutSeconds,
		},
		Connectivity: Connectivity{
			ProbeIntervalSeconds:  defaultProbeIntervalSeconds,
			ProbeTimeoutSeconds:   defaultProbeTimeoutSeconds,
			PendingRefreshSeconds: defaultPendingRefreshSeconds,
			NetlinkEvents:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
