// Package api defines the transport DTOs shared by the daemon's HTTP
// surface and the CLI client, plus the read-side queue service backing them.
package api
