// Package config loads mantle's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/mantle/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or blank, use defaults
//  5. MANTLE_API_ADDRESS, when set, overrides api_address
//
// # TOML Format
//
//	api_address = "127.0.0.1:8080"
//	poll_seconds = 5
//	request_timeout_seconds = 10
//	token_timeout_seconds = 2
//	cache_ttl_seconds = 600
//	cache_max_entries = 5
//	requests_per_second = 5
//	log_file = "~/.local/state/mantle/mantle.log"
//
// All fields are optional. Numeric fields that are present must be
// positive; Load returns an "invalid config" error listing every bad
// field otherwise. Tilde expansion is applied to log_file.
//
// Missing config files are NOT an error, so mantle works against a local
// backend without any setup.
package config
