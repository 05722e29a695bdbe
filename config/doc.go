// Package config loads the YAML application configuration: data directory,
// model hosts and names, ingestion tunables and search fusion weights.
// Missing files and missing fields fall back to defaults.
package config
