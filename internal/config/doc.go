// Package config provides configuration management for compare-sdkdb.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Every key has a default declared in the struct tags
// of the section it belongs to:
//   - Compare: natural key path, name field, strict mode, exit code & color
//   - Storage: S3/MinIO credentials for s3:// snapshot locations
//   - Log: logging level and format
//
// Command-line flags override anything loaded here.
package config
