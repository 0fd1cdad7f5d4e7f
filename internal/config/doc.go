// Package config loads, normalizes, and validates mixdown's TOML
// configuration.
//
// Configuration resolves from an explicit path, then
// ~/.config/mixdown/config.toml, then ./mixdown.toml, falling back to
// built-in defaults when no file exists. All path fields are expanded
// (~ and relative forms) before use.
package config
