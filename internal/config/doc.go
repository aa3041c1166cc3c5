// Package config loads, validates, and normalizes chartcap's TOML
// configuration. Loading applies defaults first, then file values, then
// normalization (path expansion, trimming) and validation, so the rest of
// the repository can assume a fully-populated, well-formed Config.
package config
