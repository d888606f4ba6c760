// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/constants"
	errs "github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"

	"github.com/nats-io/nats.go/jetstream"
)

// credentialStorage keeps integration credentials in a JetStream KV bucket
// keyed by integration id
type credentialStorage struct {
	client *NATSClient
}

// GetCredentials retrieves the credentials of an integration
func (s *credentialStorage) GetCredentials(ctx context.Context, integrationID string) (*model.Credentials, error) {
	slog.DebugContext(ctx, "nats storage: getting credentials",
		"integration_id", integrationID)

	creds := &model.Credentials{}
	rev, err := s.get(ctx, constants.KVBucketNameIntegrationCredentials, integrationID, creds)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			slog.WarnContext(ctx, "credentials not found", "integration_id", integrationID)
			return nil, errs.NewUnauthorized("integration has no stored credentials")
		}
		var validation errs.Validation
		if errors.As(err, &validation) {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to get credentials", "error", err, "integration_id", integrationID)
		return nil, errs.NewServiceUnavailable("failed to get credentials", err)
	}

	if creds.IntegrationID == "" {
		creds.IntegrationID = integrationID
	}

	slog.DebugContext(ctx, "nats storage: credentials retrieved",
		"integration_id", integrationID,
		"vendor", creds.Vendor,
		"revision", rev)

	return creds, nil
}

// SaveCredentials writes refreshed credentials back. The write is
// conditional on the revision read just before it, so a concurrent refresh
// by another worker is not silently overwritten.
func (s *credentialStorage) SaveCredentials(ctx context.Context, creds *model.Credentials) error {
	if creds == nil {
		return errs.NewValidation("credentials cannot be nil")
	}

	slog.DebugContext(ctx, "nats storage: saving credentials",
		"integration_id", creds.IntegrationID)

	rev, err := s.get(ctx, constants.KVBucketNameIntegrationCredentials, creds.IntegrationID, nil)
	switch {
	case errors.Is(err, jetstream.ErrKeyNotFound):
		rev, err = s.create(ctx, constants.KVBucketNameIntegrationCredentials, creds.IntegrationID, creds)
	case err == nil:
		rev, err = s.putWithRevision(ctx, constants.KVBucketNameIntegrationCredentials, creds.IntegrationID, creds, rev)
	}
	if err != nil {
		var validation errs.Validation
		if errors.As(err, &validation) {
			return err
		}
		if errors.Is(err, jetstream.ErrKeyExists) {
			slog.WarnContext(ctx, "credentials changed concurrently", "integration_id", creds.IntegrationID)
			return errs.NewConflict("credentials were updated concurrently", err)
		}
		slog.ErrorContext(ctx, "failed to save credentials", "error", err, "integration_id", creds.IntegrationID)
		return errs.NewServiceUnavailable("failed to save credentials", err)
	}

	slog.DebugContext(ctx, "nats storage: credentials saved",
		"integration_id", creds.IntegrationID,
		"revision", rev)

	return nil
}

// IsReady checks if the storage is ready by verifying the client connection
func (s *credentialStorage) IsReady(ctx context.Context) error {
	return s.client.IsReady(ctx)
}

func (s *credentialStorage) bucket(name string) (jetstream.KeyValue, error) {
	kv, exists := s.client.kvStore[name]
	if !exists || kv == nil {
		return nil, errs.NewServiceUnavailable("KV bucket not available")
	}
	return kv, nil
}

// get retrieves a record by key and unmarshals it into out unless out is
// nil. It returns the entry revision.
func (s *credentialStorage) get(ctx context.Context, bucket, key string, out any) (uint64, error) {
	if key == "" {
		return 0, errs.NewValidation("integration id cannot be empty")
	}

	kv, err := s.bucket(bucket)
	if err != nil {
		return 0, err
	}

	entry, err := kv.Get(ctx, key)
	if err != nil {
		return 0, err
	}

	if out != nil {
		if err := json.Unmarshal(entry.Value(), out); err != nil {
			return 0, err
		}
	}

	return entry.Revision(), nil
}

// create stores a record that must not exist yet
func (s *credentialStorage) create(ctx context.Context, bucket, key string, record any) (uint64, error) {
	kv, err := s.bucket(bucket)
	if err != nil {
		return 0, err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return 0, err
	}

	return kv.Create(ctx, key, data)
}

// putWithRevision stores a record if its revision is still expectedRevision
func (s *credentialStorage) putWithRevision(ctx context.Context, bucket, key string, record any, expectedRevision uint64) (uint64, error) {
	kv, err := s.bucket(bucket)
	if err != nil {
		return 0, err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return 0, err
	}

	return kv.Update(ctx, key, data, expectedRevision)
}

// NewCredentialStore creates a credential store over the client's KV buckets
func NewCredentialStore(client *NATSClient) port.CredentialStore {
	return &credentialStorage{
		client: client,
	}
}
