// Package config loads runtime configuration for the estimatekeeper
// client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c/--config.
//  3. Command-line flags the user set explicitly.
//
// # JSON schema
//
// Intervals use timex.Duration, so they can be strings like "3s" or integer
// nanoseconds. Absent keys keep their defaults:
//
//	{
//	  "db_path": "estimates.db",
//	  "server_addr": "127.0.0.1:50051",
//	  "user_id": "2f1c...",
//	  "media_dir": "media",
//	  "online_check_interval": "3s",
//	  "sync_interval": "1m",
//	  "bootstrap_attempts": 3,
//	  "log_file": "",
//	  "log_level": "info"
//	}
package config
