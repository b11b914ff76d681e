// Package config loads, normalizes, and validates lectern configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the CLI needs: scratch/output directories, source selection, disk guard
// thresholds, transcription engine options, and output formats.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths and clear validation errors.
package config
