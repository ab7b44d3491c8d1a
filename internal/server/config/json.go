package config

import (
	"encoding/json"
	"os"

	"github.com/dpetrovs/localsync/internal/flagx"
	"github.com/dpetrovs/localsync/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "72h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr          string         `json:"endpoint_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	RequireDurable        bool           `json:"require_durable"`
	SecretKey             string         `json:"secret_key"`
	RetentionWindow       timex.Duration `json:"retention_window"`
	PasswordExpiry        timex.Duration `json:"password_expiry"`
	PasswordExpiryEnabled bool           `json:"password_expiry_enabled"`
	MaxUploadSize         int64          `json:"max_upload_size"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path is taken from the -c or -config command-line flags.
// If neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
//
// Only fields present in the file override existing values, so the JSON
// overlay composes with defaults and flags.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RequireDurable {
		config.RequireDurable = true
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.RetentionWindow.Duration != 0 {
		config.RetentionWindow = c.RetentionWindow.Duration
	}
	if c.PasswordExpiry.Duration != 0 {
		config.PasswordExpiry = c.PasswordExpiry.Duration
	}
	if c.PasswordExpiryEnabled {
		config.PasswordExpiryEnabled = true
	}
	if c.MaxUploadSize != 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
