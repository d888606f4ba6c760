// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
)

// CredentialReader reads the credentials of a configured integration
type CredentialReader interface {
	GetCredentials(ctx context.Context, integrationID string) (*model.Credentials, error)
}

// CredentialWriter persists refreshed OAuth2 tokens
type CredentialWriter interface {
	SaveCredentials(ctx context.Context, creds *model.Credentials) error
}

// CredentialStore combines credential read and write operations
type CredentialStore interface {
	CredentialReader
	CredentialWriter
	IsReady(ctx context.Context) error
}
