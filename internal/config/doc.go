// Package config loads, normalizes, and validates radex configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the CLI and experiment runner need: dataset location, artifact directory,
// experiment rounds and seeds, extractor settings, and log output.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
