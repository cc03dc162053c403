// Package config loads runtime configuration for the photowall service.
//
// Configuration is layered: built-in defaults, then an optional TOML
// file, then environment variable overrides. The environment always
// wins so container deployments can tweak a single value without
// shipping a file.
package config
