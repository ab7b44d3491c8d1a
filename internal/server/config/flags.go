package config

import (
	"flag"
	"os"
	"time"

	"github.com/dpetrovs/localsync/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN (empty = in-memory fallback)
//	-q          require durable storage (refuse in-memory fallback)
//	-s string   admin token HMAC secret key
//	-w string   file retention window as a duration (e.g., "72h")
//	-x string   password expiry as a duration (e.g., "12h")
//	-k          enable password auto-expiry
//	-m int      maximum upload size, megabytes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes
//     using flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags accept anything time.ParseDuration does, which lets
//     tests run with compressed windows ("100ms").
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-q", "-s", "-w", "-x", "-k", "-m", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.BoolVar(&config.RequireDurable, "q", config.RequireDurable, "require durable storage")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	retention := fs.String("w", config.RetentionWindow.String(), "file retention window (duration)")
	pwdExpiry := fs.String("x", config.PasswordExpiry.String(), "password expiry (duration)")

	fs.BoolVar(&config.PasswordExpiryEnabled, "k", config.PasswordExpiryEnabled, "enable password auto-expiry")

	maxUploadMB := fs.Int64("m", config.MaxUploadSize>>20, "maximum upload size (MB)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if d, err := time.ParseDuration(*retention); err == nil {
		config.RetentionWindow = d
	}
	if d, err := time.ParseDuration(*pwdExpiry); err == nil {
		config.PasswordExpiry = d
	}
	config.MaxUploadSize = *maxUploadMB << 20
}
