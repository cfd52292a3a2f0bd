// Package config loads bridge settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults (Default)
//  2. A TOML file
//  3. KEYBRIDGE_* environment variables
//
// A Watcher reloads the file when it changes and hands every valid result
// to a callback. Invalid reloads are reported and the previous settings
// stay in effect.
//
// Example file:
//
//	[logging]
//	level = "debug"
//
//	[focus]
//	poll_interval = "500ms"
//	initial_delay = "1s"
//	command_timeout = "2s"
//
//	[geometry]
//	top_buffer = 10
//	legacy = false
//	recheck_interval = "1s"
//
//	[foreign]
//	module_path = "./lua"
//	call_timeout = "5s"
package config
