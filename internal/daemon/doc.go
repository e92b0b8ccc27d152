// Package daemon wires the queue, connectivity monitor, and HTTP API into a
// single supervised process and enforces single-instance execution with a
// file lock.
package daemon
