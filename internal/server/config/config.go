// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the LocalSync server.
//
// Fields:
//   - EndpointAddr: bind address for the public HTTP endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty means no backend is
//     configured and the server degrades to process-local in-memory state.
//   - RequireDurable: refuse to start in degraded mode.
//   - SecretKey: HMAC secret for signing admin tokens (HS256). Do not use
//     test defaults in prod.
//   - RetentionWindow: how long uploaded file entries live before a sweep
//     removes them.
//   - PasswordExpiry / PasswordExpiryEnabled: optional lazy password
//     auto-expiry policy.
//   - MaxUploadSize: advisory upload ceiling reported to clients.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings. An
//     empty endpoint disables the blob-store surface.
type Config struct {
	EndpointAddr          string
	DatabaseDSN           string
	RequireDurable        bool
	SecretKey             string
	RetentionWindow       time.Duration
	PasswordExpiry        time.Duration
	PasswordExpiryEnabled bool
	MaxUploadSize         int64
	S3RootUser            string
	S3RootPassword        string
	S3Bucket              string
	S3Region              string
	S3BaseEndpoint        string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = ""
	c.RequireDurable = false
	c.SecretKey = "secretKey"
	c.RetentionWindow = 72 * time.Hour
	c.PasswordExpiry = 12 * time.Hour
	c.PasswordExpiryEnabled = false
	c.MaxUploadSize = 100 << 20
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "uploads"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
