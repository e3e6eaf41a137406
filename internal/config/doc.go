// Package config loads swarmtail's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/swarmtail/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing, blank or not positive, use defaults
//
// # TOML Format
//
//	base_url = "http://127.0.0.1:8080/"
//	log_file = "~/.local/state/swarmtail/swarmtail.log"
//	log_level = "info"
//	poll_seconds = 10
//
//	[stream]
//	default_tail = 20
//	default_since = "1h"
//	flush_delay_ms = 50
//	max_message_len = 10000
//
//	[relay]
//	listen = "127.0.0.1:8080"
//
//	[[relay.sources]]
//	id = "api"
//	name = "api"
//	path = "/var/log/api.log"
//	stream = "stdout"
//
// Every field is optional. base_url is the dashboard API root the client
// talks to; the [relay] table is only read by `swarmtail serve`.
//
// # Path Expansion
//
// Tilde paths are expanded to the home directory and relative paths are
// made absolute. This applies to the config file location, log_file and
// every relay source path.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors
//   - A default_since that is neither a duration nor a timestamp
//   - Relay sources without id or path, with a duplicate id, or with an
//     unknown stream
//
// Missing config files are NOT an error, so swarmtail works against a
// local dashboard without any setup.
package config
