// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package constants defines global constants used throughout the subscriber sync service.
package constants

// Service constants
const (
	// ServiceName is the name of this service
	ServiceName = "lfx-v2-subscriber-sync"
)

// HTTP header constants
const (
	// RequestIDHeader is the HTTP header name for request ID
	RequestIDHeader = "X-Request-Id"

	// ContentTypeHeader is the header used to pick the sync job decoder
	ContentTypeHeader = "Content-Type"

	// ContentTypeJSON is the default sync job encoding
	ContentTypeJSON = "application/json"

	// ContentTypeMsgpack selects msgpack decoding for sync jobs
	ContentTypeMsgpack = "application/msgpack"
)

// Environment variables
const (
	// EnvNATSURL is the environment variable for NATS server URL
	EnvNATSURL = "NATS_URL"
	// EnvNATSTimeout is the environment variable for the NATS connection timeout
	EnvNATSTimeout = "NATS_TIMEOUT"
	// EnvNATSMaxReconnect is the environment variable for NATS reconnect attempts
	EnvNATSMaxReconnect = "NATS_MAX_RECONNECT"
	// EnvNATSReconnectWait is the environment variable for the delay between reconnects
	EnvNATSReconnectWait = "NATS_RECONNECT_WAIT"

	// EnvCredentialSource selects the credential store implementation (nats or mock)
	EnvCredentialSource = "CREDENTIAL_SOURCE"
	// EnvVendorAdaptersFile overrides the embedded vendor adapter table
	EnvVendorAdaptersFile = "VENDOR_ADAPTERS_FILE"
	// EnvVendorHTTPTimeout bounds each vendor request
	EnvVendorHTTPTimeout = "VENDOR_HTTP_TIMEOUT"
	// EnvVendorUserAgent is sent on every vendor request
	EnvVendorUserAgent = "VENDOR_USER_AGENT"
	// EnvJobTimeout bounds the processing of one sync job message
	EnvJobTimeout = "SYNC_JOB_TIMEOUT"
	// EnvBatchWorkers limits how many jobs of a batch run at once
	EnvBatchWorkers = "SYNC_BATCH_WORKERS"
)
