// Package connectivity tracks whether the field-data backend is reachable
// and drives the queue sync lifecycle off connectivity transitions.
//
// A poll loop probes the backend health endpoint on an interval; when the
// kernel reports network interface changes over netlink, a probe runs
// immediately instead of waiting for the next tick. Coming back online after
// an offline stretch triggers a sync pass automatically.
package connectivity
