// Package config loads folio configuration.
//
// A configuration file is either TOML or YAML; the format is chosen from the
// file extension. Both formats decode into the same Config structure:
//
//	namespace = "notes"
//
//	[log]
//	level = "debug"
//	format = "console"
//
//	[editor]
//	read_only = false
//	auto_direction = true
//
//	[history]
//	max_entries = 500
//	merge_window_ms = 1000
//
//	[theme.colors]
//	heading = "212"
//	code = "#a6e22e"
//
// Fields missing from a file keep their Default values. Unknown keys are
// rejected so that typos surface as parse errors.
//
// # Live Reload
//
// Watcher observes a configuration file through fsnotify and reloads it on
// write or create events. Editors commonly save by renaming a temporary file
// over the original, so the watcher subscribes to the parent directory and
// filters events by file name.
package config
