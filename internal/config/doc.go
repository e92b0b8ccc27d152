// Package config loads, validates, and normalizes the fieldsync TOML
// configuration.
//
// Defaults live in defaults.go; Load layers the config file on top of them,
// expands ~ in every path field, and validates the result. Other packages
// should treat the returned Config as read-only.
package config
