package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Flags binds the client settings to a pflag set. Values start at the
// defaults, so --help shows them, but only flags the user actually set
// override the JSON file.
type Flags struct {
	fs         *pflag.FlagSet
	configPath string
	v          Config
}

// BindFlags registers the client flags on fs, typically a cobra command's
// persistent flag set.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs, v: Defaults()}

	fs.StringVarP(&f.configPath, "config", "c", "", "path to JSON config file")
	fs.StringVarP(&f.v.DBPath, "db", "d", f.v.DBPath, "local database file")
	fs.StringVarP(&f.v.ServerAddr, "server", "a", f.v.ServerAddr, "address and port of the remote store")
	fs.StringVarP(&f.v.UserID, "user", "u", f.v.UserID, "user id the local mirror belongs to")
	fs.StringVar(&f.v.MediaDir, "media-dir", f.v.MediaDir, "directory for photo binaries")
	fs.DurationVarP(&f.v.OnlineCheckInterval, "online-check", "i", f.v.OnlineCheckInterval, "online status check interval")
	fs.DurationVar(&f.v.SyncInterval, "sync-interval", f.v.SyncInterval, "periodic sync interval, 0 disables")
	fs.IntVar(&f.v.BootstrapAttempts, "bootstrap-attempts", f.v.BootstrapAttempts, "bootstrap attempts before giving up")
	fs.StringVar(&f.v.LogFile, "log-file", f.v.LogFile, "log file, rotated; empty logs to stderr")
	fs.StringVar(&f.v.LogLevel, "log-level", f.v.LogLevel, "debug, info, warn or error")

	return f
}

// Load builds the Config: defaults, then the JSON file named by --config,
// then flags that were set explicitly.
func (f *Flags) Load() (*Config, error) {
	cfg := Defaults()

	if f.configPath != "" {
		if err := loadJSON(&cfg, f.configPath); err != nil {
			return nil, err
		}
	}

	overrides := map[string]func(){
		"db":                 func() { cfg.DBPath = f.v.DBPath },
		"server":             func() { cfg.ServerAddr = f.v.ServerAddr },
		"user":               func() { cfg.UserID = f.v.UserID },
		"media-dir":          func() { cfg.MediaDir = f.v.MediaDir },
		"online-check":       func() { cfg.OnlineCheckInterval = f.v.OnlineCheckInterval },
		"sync-interval":      func() { cfg.SyncInterval = f.v.SyncInterval },
		"bootstrap-attempts": func() { cfg.BootstrapAttempts = f.v.BootstrapAttempts },
		"log-file":           func() { cfg.LogFile = f.v.LogFile },
		"log-level":          func() { cfg.LogLevel = f.v.LogLevel },
	}
	for name, apply := range overrides {
		if f.fs.Changed(name) {
			apply()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.DBPath == "":
		return fmt.Errorf("db path must not be empty")
	case c.ServerAddr == "":
		return fmt.Errorf("server address must not be empty")
	case c.OnlineCheckInterval < 0 || c.SyncInterval < 0:
		return fmt.Errorf("intervals must not be negative")
	case c.BootstrapAttempts < 1:
		return fmt.Errorf("bootstrap attempts must be at least 1")
	}
	return nil
}
