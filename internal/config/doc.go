// Package config loads statdeck's TOML configuration.
//
// # Configuration Discovery
//
// Load reads ~/.config/statdeck/config.toml unless a path is given. A
// missing file yields Default(); blank fields keep their defaults.
//
// # Fields
//
//	api_url      = "http://127.0.0.1:8080/api"   backend base URL
//	cache_dir    = "~/.cache/statdeck"           durable cache; "" disables it
//	poll_seconds = 60                             resync interval of the open tab
//	log_file     = "~/.local/state/statdeck/statdeck.log"
//	log_level    = "info"                         trace, debug, info, warn, error
//	metrics_addr = ""                             e.g. "127.0.0.1:9464" serves /metrics
//	user_agent   = ""                             overrides the client User-Agent
//
// Tilde expansion is performed on path fields.
//
// # Validation
//
// Validate checks the loaded values with go-playground/validator struct
// tags and reports field names as they appear in the file. Load does not
// validate so callers can apply flag overrides first.
package config
