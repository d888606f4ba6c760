// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"os"
	"strconv"
	"time"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/constants"
)

// Config holds the NATS connection settings
type Config struct {
	// URL is the NATS server URL
	URL string
	// Timeout bounds connection and KV operations
	Timeout time.Duration
	// MaxReconnect is the number of reconnect attempts
	MaxReconnect int
	// ReconnectWait is the delay between reconnect attempts
	ReconnectWait time.Duration
}

// DefaultConfig returns the connection settings used when no environment
// override is present
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		Timeout:       10 * time.Second,
		MaxReconnect:  3,
		ReconnectWait: 2 * time.Second,
	}
}

// NewConfigFromEnv reads the connection settings from the environment.
// Unparseable values keep their defaults.
func NewConfigFromEnv() Config {
	cfg := DefaultConfig()

	if url := os.Getenv(constants.EnvNATSURL); url != "" {
		cfg.URL = url
	}
	if d, err := time.ParseDuration(os.Getenv(constants.EnvNATSTimeout)); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(os.Getenv(constants.EnvNATSMaxReconnect)); err == nil {
		cfg.MaxReconnect = n
	}
	if d, err := time.ParseDuration(os.Getenv(constants.EnvNATSReconnectWait)); err == nil && d > 0 {
		cfg.ReconnectWait = d
	}

	return cfg
}
