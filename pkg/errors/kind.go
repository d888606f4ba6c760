// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package errors

import "errors"

// Kind groups the typed errors by how a caller should react to them.
type Kind string

const (
	// KindNone is returned for a nil error.
	KindNone Kind = ""
	// KindAuth means the credentials must be fixed before retrying.
	KindAuth Kind = "auth"
	// KindTransient means the whole operation may be retried later.
	KindTransient Kind = "transient"
	// KindRequest means a mapping bug or a vendor contract change.
	KindRequest Kind = "request"
	// KindParam means the caller supplied invalid parameters.
	KindParam Kind = "param"
	// KindData means the vendor rejected this subscriber's values.
	KindData Kind = "data"
)

// KindOf classifies err. Errors that are not one of the typed errors
// of this package are reported as KindRequest.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		unauthorized Unauthorized
		unavailable  ServiceUnavailable
		validation   Validation
		notFound     NotFound
		conflict     Conflict
		invalidData  InvalidData
	)

	switch {
	case errors.As(err, &unauthorized):
		return KindAuth
	case errors.As(err, &unavailable):
		return KindTransient
	case errors.As(err, &validation), errors.As(err, &notFound):
		return KindParam
	case errors.As(err, &conflict), errors.As(err, &invalidData):
		return KindData
	default:
		return KindRequest
	}
}

// IsRetryable reports whether the caller may retry the whole operation later.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}
