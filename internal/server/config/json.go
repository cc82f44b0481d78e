package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/estimatekeeper/internal/flagx"
	"github.com/dmitrijs2005/estimatekeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Pointer fields tell an absent
// key from a zero value, so a file only overrides what it names. Durations
// accept "15m" as well as integer nanoseconds.
type JsonConfig struct {
	ListenAddr     *string         `json:"listen_addr"`
	DatabaseDSN    *string         `json:"database_dsn"`
	RateLimit      *float64        `json:"rate_limit"`
	RateBurst      *int            `json:"rate_burst"`
	S3AccessKey    *string         `json:"s3_access_key"`
	S3SecretKey    *string         `json:"s3_secret_key"`
	S3Bucket       *string         `json:"s3_bucket"`
	S3Region       *string         `json:"s3_region"`
	S3BaseEndpoint *string         `json:"s3_base_endpoint"`
	PresignTTL     *timex.Duration `json:"presign_ttl"`
	LogLevel       *string         `json:"log_level"`
}

// parseJson overlays config with the file named by -c/-config in args.
// Without either flag nothing is loaded.
func parseJson(config *Config, args []string) error {
	path := flagx.JsonConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	if c.RateLimit != nil {
		config.RateLimit = *c.RateLimit
	}
	if c.RateBurst != nil {
		config.RateBurst = *c.RateBurst
	}
	if c.PresignTTL != nil {
		config.PresignTTL = c.PresignTTL.Duration
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
