// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/log"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/redaction"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// SubscriberSync is the driver for one integration. It owns its field
// registry and contact id cache and is used by one job at a time.
type SubscriberSync struct {
	client        port.VendorClient
	adapter       *model.VendorAdapter
	integrationID string

	registry   *FieldRegistry
	resolver   *FieldResolver
	translator *SubscriberTranslator
	contacts   *ContactCache

	tracer     trace.Tracer
	operations metric.Int64Counter
}

// NewSubscriberSync creates a driver over client
func NewSubscriberSync(client port.VendorClient, integrationID string) (*SubscriberSync, error) {
	adapter := client.Adapter()
	if adapter == nil {
		return nil, errors.NewValidation("vendor client has no adapter")
	}

	registry := NewFieldRegistry(client)
	resolver, err := NewFieldResolver(client, registry)
	if err != nil {
		return nil, errors.NewUnexpected(fmt.Sprintf("invalid naming rules for %s", adapter.Name), err)
	}

	contacts, err := NewContactCache(defaultContactCacheSize)
	if err != nil {
		return nil, errors.NewUnexpected("failed to create contact cache", err)
	}

	operations, err := otel.Meter(constants.ServiceName).Int64Counter("subscriber_sync.operations",
		metric.WithDescription("Subscriber sync operations by vendor, action and final state"),
	)
	if err != nil {
		contacts.Close()
		return nil, errors.NewUnexpected("failed to create operations counter", err)
	}

	return &SubscriberSync{
		client:        client,
		adapter:       adapter,
		integrationID: integrationID,
		registry:      registry,
		resolver:      resolver,
		translator:    NewSubscriberTranslator(adapter, registry, resolver),
		contacts:      contacts,
		tracer:        otel.Tracer(constants.ServiceName),
		operations:    operations,
	}, nil
}

// Adapter returns the vendor adapter the driver runs against
func (s *SubscriberSync) Adapter() *model.VendorAdapter {
	return s.adapter
}

// Close releases the contact cache
func (s *SubscriberSync) Close() {
	s.contacts.Close()
}

// scope picks the field and contact scope: the list for list-scoped
// vendors, the account otherwise
func (s *SubscriberSync) scope(params model.SyncParams, fallbackList string) (string, error) {
	if s.adapter.FieldScope != model.FieldScopeList {
		return model.AccountScope, nil
	}
	if params.List != "" {
		return params.List, nil
	}
	if fallbackList != "" {
		return fallbackList, nil
	}
	return "", errors.NewValidation(fmt.Sprintf("%s requires a list", s.adapter.Name))
}

// GetSubscriber returns the canonical subscriber for email, or nil when
// the vendor has no such contact
func (s *SubscriberSync) GetSubscriber(ctx context.Context, email string, params model.SyncParams) (*model.Subscriber, error) {
	ctx, span := s.start(ctx, "get_subscriber")
	defer span.End()

	sub, err := s.getSubscriber(ctx, email, params)
	if err != nil {
		s.fail(span, err)
		return nil, err
	}
	return sub, nil
}

func (s *SubscriberSync) getSubscriber(ctx context.Context, email string, params model.SyncParams) (*model.Subscriber, error) {
	scope, err := s.scope(params, "")
	if err != nil {
		return nil, err
	}

	// vendors returning only requested properties need the custom tags
	if _, err := s.registry.GetFields(ctx, scope, false); err != nil {
		return nil, err
	}

	contact, err := s.client.FindContact(ctx, scope, email, s.registry.Tags(scope))
	if err != nil {
		return nil, err
	}
	if contact == nil {
		slog.DebugContext(ctx, "subscriber not found", "email", redaction.RedactEmail(email))
		return nil, nil
	}
	s.contacts.Set(scope, email, contact.ID)

	return s.translator.FromVendor(ctx, contact, scope)
}

// CreateOrUpdate looks the subscriber up and then creates or updates it.
// The create branch never calls the update endpoint.
func (s *SubscriberSync) CreateOrUpdate(ctx context.Context, email string, sub *model.Subscriber, params model.SyncParams) (*model.SyncResult, error) {
	ctx, span := s.start(ctx, string(model.ActionCreateOrUpdate))
	defer span.End()

	result := &model.SyncResult{Action: model.ActionCreateOrUpdate, Email: email}
	err := s.createOrUpdate(ctx, email, sub, params, result)
	return s.finish(ctx, span, result, err)
}

func (s *SubscriberSync) createOrUpdate(ctx context.Context, email string, sub *model.Subscriber, params model.SyncParams, result *model.SyncResult) error {
	s.transition(ctx, result, model.SyncStateLookup)

	scope, err := s.scope(params, "")
	if err != nil {
		return err
	}

	existing, err := s.client.FindContact(ctx, scope, email, nil)
	if err != nil {
		return err
	}

	payload, err := s.translator.ToVendor(ctx, sub, scope, !params.DisableFieldCreation)
	if err != nil {
		return err
	}
	payload.Email = email

	var contact *model.VendorContact
	if existing == nil {
		s.transition(ctx, result, model.SyncStateCreate)
		contact, err = s.client.CreateContact(ctx, scope, payload)
		result.Created = err == nil
	} else {
		s.transition(ctx, result, model.SyncStateUpdate)
		contact, err = s.client.UpdateContact(ctx, scope, existing.ID, payload)
	}
	if err != nil {
		return err
	}

	result.ContactID = contact.ID
	s.contacts.Set(scope, email, contact.ID)
	return nil
}

// AddToList subscribes the contact to list
func (s *SubscriberSync) AddToList(ctx context.Context, email, list string, params model.SyncParams) (*model.SyncResult, error) {
	return s.membership(ctx, model.ActionAddToList, email, model.MembershipRequest{List: list}, params)
}

// RemoveFromList unsubscribes the contact from list
func (s *SubscriberSync) RemoveFromList(ctx context.Context, email, list string, params model.SyncParams) (*model.SyncResult, error) {
	return s.membership(ctx, model.ActionRemoveFromList, email, model.MembershipRequest{List: list}, params)
}

// AddTag tags the contact
func (s *SubscriberSync) AddTag(ctx context.Context, email, tag string, params model.SyncParams) (*model.SyncResult, error) {
	return s.membership(ctx, model.ActionAddTag, email, model.MembershipRequest{Tag: tag}, params)
}

// RemoveTag removes a tag from the contact
func (s *SubscriberSync) RemoveTag(ctx context.Context, email, tag string, params model.SyncParams) (*model.SyncResult, error) {
	return s.membership(ctx, model.ActionRemoveTag, email, model.MembershipRequest{Tag: tag}, params)
}

func (s *SubscriberSync) membership(ctx context.Context, action model.Action, email string, req model.MembershipRequest, params model.SyncParams) (*model.SyncResult, error) {
	ctx, span := s.start(ctx, string(action))
	defer span.End()

	result := &model.SyncResult{Action: action, Email: email}
	err := s.changeMembership(ctx, action, email, req, params, result)
	return s.finish(ctx, span, result, err)
}

func (s *SubscriberSync) changeMembership(ctx context.Context, action model.Action, email string, req model.MembershipRequest, params model.SyncParams, result *model.SyncResult) error {
	if !s.adapter.Supports(action) {
		return errors.NewValidation(fmt.Sprintf("%s does not support %s", s.adapter.Name, action))
	}

	s.transition(ctx, result, model.SyncStateLookup)

	scope, err := s.scope(params, req.List)
	if err != nil {
		return err
	}

	id, err := s.contactID(ctx, scope, email, result)
	if err != nil {
		return err
	}

	req.Scope = scope
	req.ContactID = id
	req.Email = email
	if err := s.client.Membership(ctx, action, req); err != nil {
		return err
	}

	result.ContactID = id
	return nil
}

// contactID resolves the vendor id of email: cache, then lookup, then a
// bare create when the vendor needs an existing contact
func (s *SubscriberSync) contactID(ctx context.Context, scope, email string, result *model.SyncResult) (string, error) {
	if id, ok := s.contacts.Get(scope, email); ok {
		return id, nil
	}

	contact, err := s.client.FindContact(ctx, scope, email, nil)
	if err != nil {
		return "", err
	}

	if contact == nil {
		if !s.adapter.RequiresContact {
			return "", nil
		}
		s.transition(ctx, result, model.SyncStateCreate)
		contact, err = s.client.CreateContact(ctx, scope, &model.VendorPayload{Email: email, Standard: map[string]string{}})
		if err != nil {
			return "", err
		}
		result.Created = true
	}

	s.contacts.Set(scope, email, contact.ID)
	return contact.ID, nil
}

func (s *SubscriberSync) start(ctx context.Context, operation string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "subscriber_sync."+operation, trace.WithAttributes(
		attribute.String("vendor", s.adapter.Name),
		attribute.String("integration_id", s.integrationID),
	))
}

func (s *SubscriberSync) transition(ctx context.Context, result *model.SyncResult, state model.SyncState) {
	slog.DebugContext(ctx, "sync state transition",
		"action", result.Action,
		"from", result.State,
		"to", state,
	)
	result.State = state
}

func (s *SubscriberSync) fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("error_kind", string(errors.KindOf(err))))
}

// finish records the final state of an operation
func (s *SubscriberSync) finish(ctx context.Context, span trace.Span, result *model.SyncResult, err error) (*model.SyncResult, error) {
	if err != nil {
		result.ErrorKind = string(errors.KindOf(err))
		result.Error = err.Error()
		s.transition(ctx, result, model.SyncStateFailed)
		s.fail(span, err)

		attrs := []any{
			"action", result.Action,
			"email", redaction.RedactEmail(result.Email),
			"error_kind", result.ErrorKind,
			"error", err,
		}
		if errors.KindOf(err) == errors.KindAuth {
			attrs = append(attrs, log.PriorityCritical())
		}
		slog.ErrorContext(ctx, "subscriber sync failed", attrs...)
	} else {
		s.transition(ctx, result, model.SyncStateDone)
		slog.InfoContext(ctx, "subscriber sync completed",
			"action", result.Action,
			"email", redaction.RedactEmail(result.Email),
			"contact_id", result.ContactID,
			"created", result.Created,
		)
	}

	s.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("vendor", s.adapter.Name),
		attribute.String("action", string(result.Action)),
		attribute.String("state", string(result.State)),
	))
	return result, err
}
