package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/estimatekeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from "zero", so a file only overrides the
// keys it names.
type JsonConfig struct {
	DBPath              *string         `json:"db_path"`
	ServerAddr          *string         `json:"server_addr"`
	UserID              *string         `json:"user_id"`
	MediaDir            *string         `json:"media_dir"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	SyncInterval        *timex.Duration `json:"sync_interval"`
	BootstrapAttempts   *int            `json:"bootstrap_attempts"`
	LogFile             *string         `json:"log_file"`
	LogLevel            *string         `json:"log_level"`
}

// loadJSON overlays cfg with the keys present in the file at path.
func loadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.ServerAddr, jc.ServerAddr)
	setString(&cfg.UserID, jc.UserID)
	setString(&cfg.MediaDir, jc.MediaDir)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SyncInterval != nil {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.BootstrapAttempts != nil {
		cfg.BootstrapAttempts = *jc.BootstrapAttempts
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
