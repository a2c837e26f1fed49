// Package config loads, normalizes, and validates liner's TOML
// configuration.
//
// Load resolves the config path (explicit flag, ~/.config/liner/config.toml,
// or ./liner.toml), overlays the file on top of Default(), expands ~ in all
// path fields, and validates the result. Classifier weights live here so the
// suspicion heuristics can be recalibrated without a rebuild.
package config
