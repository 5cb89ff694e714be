// Package config loads, validates, and normalizes the TOML configuration that
// drives the acquisition pipeline. Defaults live in defaults.go; validation
// rules in validate.go.
package config
