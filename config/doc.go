// Package config handles application configuration loading and validation.
//
// Configuration is loaded from a YAML file and validated using struct tags.
// A small set of environment variables (PORT, MTA_API_KEY, GTFS_STATIC_PATH)
// override file values so deployments can avoid editing the file.
package config
