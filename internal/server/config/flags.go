package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/estimatekeeper/internal/flagx"
)

// flagNames lists the short flags parseFlags owns. Everything else on the
// command line (notably -c) is left to other parsers.
var flagNames = []string{"-a", "-d", "-r", "-B", "-u", "-p", "-b", "-g", "-e", "-t", "-l"}

// parseFlags overlays config with command-line flags.
//
// Supported flags:
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN
//	-r float    per-device rate limit, requests per second (0 disables)
//	-B int      per-device burst
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-t duration presigned URL validity (e.g. "15m")
//	-l string   log level
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.Float64Var(&config.RateLimit, "r", config.RateLimit, "per-device requests per second")
	fs.IntVar(&config.RateBurst, "B", config.RateBurst, "per-device burst")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.DurationVar(&config.PresignTTL, "t", config.PresignTTL, "presigned URL validity")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, flagNames)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
