package config

import "time"

// Config holds runtime settings for the estimatekeeper client.
type Config struct {
	DBPath              string
	ServerAddr          string
	UserID              string
	MediaDir            string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	BootstrapAttempts   int
	LogFile             string
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DBPath = "estimates.db"
	c.ServerAddr = "127.0.0.1:50051"
	c.UserID = ""
	c.MediaDir = "media"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = time.Minute
	c.BootstrapAttempts = 3
	c.LogFile = ""
	c.LogLevel = "info"
}

// Defaults returns a Config holding only defaults.
func Defaults() Config {
	var c Config
	c.LoadDefaults()
	return c
}
