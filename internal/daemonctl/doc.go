// Package daemonctl lets the CLI reach the daemon over its HTTP API and
// fall back to direct queue store access when no daemon is running.
package daemonctl
