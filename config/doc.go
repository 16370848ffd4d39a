// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration
// structure including the cluster node URLs, selection policy, retry budget,
// retryable status codes, revival backoff and logging settings.
package config
