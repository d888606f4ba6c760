// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package constants defines shared context key types used throughout the subscriber sync service.
package constants

// ContextKey is the unified type for all context keys to prevent type mismatches
type ContextKey string

// Context keys carried through sync job processing
const (
	// RequestIDContextKey is the context key for the request ID sent to vendors
	RequestIDContextKey ContextKey = "request-id"

	// JobIDContextKey is the context key for the sync job being processed
	JobIDContextKey ContextKey = "job-id"
)
