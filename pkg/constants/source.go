// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"fmt"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"
)

// Credential source constants select where integration credentials are read from
const (
	// CredentialSourceNATS reads credentials from the JetStream KV bucket
	CredentialSourceNATS = "nats"

	// CredentialSourceMock uses the in-memory store (testing mode)
	CredentialSourceMock = "mock"
)

// ValidateCredentialSource validates that the source is one of the allowed values
func ValidateCredentialSource(source string) error {
	switch source {
	case CredentialSourceNATS, CredentialSourceMock:
		return nil
	case "":
		return errors.NewValidation("credential source is required")
	default:
		return errors.NewValidation(
			fmt.Sprintf("unsupported credential source: %s (must be nats or mock)", source))
	}
}
