// Package config loads application configuration from an optional YAML file
// and ORGDEX_* environment variables. Environment variables always win over
// file values so deployments can override a checked-in base config.
package config
