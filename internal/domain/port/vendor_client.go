// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
)

// VendorClient performs the vendor calls a driver needs. Implementations
// classify failures into the typed errors of pkg/errors and never retry.
type VendorClient interface {
	// Adapter returns the adapter record the client was built from
	Adapter() *model.VendorAdapter

	// ListFields returns every custom field defined in scope
	ListFields(ctx context.Context, scope string) ([]model.FieldDefinition, error)

	// CreateField creates a custom field. A taken tag is reported as a
	// Conflict wrapping model.ErrFieldExists, a full account as a Conflict
	// wrapping model.ErrFieldQuotaExceeded.
	CreateField(ctx context.Context, scope, tag, label string) (*model.FieldDefinition, error)

	// FindContact looks a contact up by email. It returns nil, nil when the
	// vendor has no such contact. properties names the custom field tags to
	// request from vendors that only return requested properties.
	FindContact(ctx context.Context, scope, email string, properties []string) (*model.VendorContact, error)

	// CreateContact creates a contact from payload
	CreateContact(ctx context.Context, scope string, payload *model.VendorPayload) (*model.VendorContact, error)

	// UpdateContact updates the contact with the vendor-assigned id
	UpdateContact(ctx context.Context, scope, id string, payload *model.VendorPayload) (*model.VendorContact, error)

	// Membership issues a list or tag membership call for action
	Membership(ctx context.Context, action model.Action, req model.MembershipRequest) error
}

// VendorClientFactory builds a vendor client for one integration
type VendorClientFactory interface {
	// Adapters lists the adapters the factory can build clients for
	Adapters() []*model.VendorAdapter

	// NewVendorClient builds a client for the vendor named in creds
	NewVendorClient(ctx context.Context, creds *model.Credentials) (VendorClient, error)
}
