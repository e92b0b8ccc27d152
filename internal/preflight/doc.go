// Package preflight provides readiness checks for the filesystem paths and
// backend endpoint fieldsync depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs any failures.
//   - The CLI "fieldsync status" command uses the results to display
//     environment health.
//
// Failures are reported, not fatal: the whole point of the queue is to keep
// working while the backend is unreachable, so preflight only surfaces what
// will not work yet.
package preflight
