// Package exif extracts capture metadata (timestamp and GPS position)
// directly from JPEG bytes.
//
// Extract is a total function: malformed, truncated, or non-JPEG input never
// produces an error, only a best-effort Metadata falling back to the current
// time with no coordinates. Field apps call it on every captured photo, so a
// broken camera file must never abort the capture flow.
//
// All offset arithmetic goes through a bounds-checked reader; any
// out-of-range access is treated as malformed input and resolved to the
// fallback at the Extract boundary.
package exif
