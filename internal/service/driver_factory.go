// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"
)

// DriverFactory builds a SubscriberSync for an integration from its stored
// credentials
type DriverFactory struct {
	credentials port.CredentialReader
	vendors     port.VendorClientFactory
}

// NewDriverFactory creates a driver factory
func NewDriverFactory(credentials port.CredentialReader, vendors port.VendorClientFactory) *DriverFactory {
	return &DriverFactory{
		credentials: credentials,
		vendors:     vendors,
	}
}

// New returns a fresh driver for integrationID. Callers close it when the
// job is done.
func (f *DriverFactory) New(ctx context.Context, integrationID string) (*SubscriberSync, error) {
	if integrationID == "" {
		return nil, errors.NewValidation("integration id is required")
	}

	creds, err := f.credentials.GetCredentials(ctx, integrationID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load integration credentials",
			"integration_id", integrationID,
			"error", err,
		)
		return nil, err
	}

	client, err := f.vendors.NewVendorClient(ctx, creds)
	if err != nil {
		slog.ErrorContext(ctx, "failed to build vendor client",
			"integration_id", integrationID,
			"vendor", creds.Vendor,
			"error", err,
		)
		return nil, err
	}

	return NewSubscriberSync(client, integrationID)
}
