// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
)

// SubscriberTranslator converts between canonical subscribers and vendor
// payloads using the adapter table, the field registry and the resolver
type SubscriberTranslator struct {
	adapter  *model.VendorAdapter
	registry *FieldRegistry
	resolver *FieldResolver
}

// NewSubscriberTranslator creates a translator for one driver instance
func NewSubscriberTranslator(adapter *model.VendorAdapter, registry *FieldRegistry, resolver *FieldResolver) *SubscriberTranslator {
	return &SubscriberTranslator{
		adapter:  adapter,
		registry: registry,
		resolver: resolver,
	}
}

// ToVendor builds the vendor payload for sub. Standard fields use the
// adapter's vendor keys; other standard fields and every meta entry go
// through the resolver. Empty values are never sent and $integration is not
// user data. The caller sets the payload email.
func (t *SubscriberTranslator) ToVendor(ctx context.Context, sub *model.Subscriber, scope string, createMissing bool) (*model.VendorPayload, error) {
	payload := &model.VendorPayload{Standard: make(map[string]string)}
	if sub == nil {
		return payload, nil
	}

	s := *sub
	s.DeriveName()

	session := NewResolveSession()
	custom := make(map[string]int) // field id -> index in payload.Custom

	addCustom := func(name, value string) error {
		if key, ok := t.adapter.VendorKey(strings.ToLower(name)); ok && model.IsStandardField(name) {
			if _, set := payload.Standard[key]; !set {
				payload.Standard[key] = value
			}
			return nil
		}

		def, err := t.resolver.Resolve(ctx, session, scope, name, createMissing)
		if err != nil {
			return err
		}
		if def == nil {
			slog.DebugContext(ctx, "custom value skipped", "field_name", name)
			return nil
		}
		cv := model.CustomValue{Field: *def, Value: value}
		if i, ok := custom[def.ID]; ok {
			payload.Custom[i] = cv
			return nil
		}
		custom[def.ID] = len(payload.Custom)
		payload.Custom = append(payload.Custom, cv)
		return nil
	}

	standard := s.Standard()
	for _, canonical := range model.StandardFields {
		value, ok := standard[canonical]
		if !ok {
			continue
		}
		if key, mapped := t.adapter.VendorKey(canonical); mapped {
			payload.Standard[key] = value
			continue
		}
		if canonical == model.FieldName {
			continue
		}
		if err := addCustom(canonical, value); err != nil {
			return nil, err
		}
	}

	for _, name := range slices.Sorted(maps.Keys(s.Meta)) {
		value := strings.TrimSpace(s.Meta[name])
		if value == "" {
			continue
		}
		if err := addCustom(name, value); err != nil {
			return nil, err
		}
	}

	// a standard value wins over a custom value sent under the same key
	byID := t.adapter.Custom.ByID()
	payload.Custom = slices.DeleteFunc(payload.Custom, func(cv model.CustomValue) bool {
		_, taken := payload.Standard[cv.Field.Key(byID)]
		if taken {
			slog.DebugContext(ctx, "custom value shadowed by standard field",
				"field_name", cv.Field.Label,
				"field_key", cv.Field.Key(byID),
			)
		}
		return taken
	})

	return payload, nil
}

// FromVendor builds the canonical subscriber from a vendor contact. Custom
// values are labelled through the registry; an unknown key forces one
// refresh per call and is then dropped.
func (t *SubscriberTranslator) FromVendor(ctx context.Context, contact *model.VendorContact, scope string) (*model.Subscriber, error) {
	if contact == nil {
		return nil, nil
	}

	sub := &model.Subscriber{}
	for vendorKey, value := range contact.Standard {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if canonical, ok := t.adapter.CanonicalKey(vendorKey); ok {
			sub.SetStandard(canonical, value)
		}
	}

	if len(contact.Custom) > 0 {
		refreshed := !t.registry.Loaded(scope)
		if _, err := t.registry.GetFields(ctx, scope, false); err != nil {
			return nil, err
		}

		standard := sub.Standard()
		for _, key := range slices.Sorted(maps.Keys(contact.Custom)) {
			value := strings.TrimSpace(contact.Custom[key])
			if value == "" {
				continue
			}

			def, ok := t.registry.FindByKey(scope, key)
			if !ok && !refreshed {
				refreshed = true
				if _, err := t.registry.GetFields(ctx, scope, true); err != nil {
					return nil, err
				}
				def, ok = t.registry.FindByKey(scope, key)
			}
			if !ok {
				slog.DebugContext(ctx, "dropping value of unknown custom field", "field_key", key)
				continue
			}

			if model.IsStandardField(def.Label) {
				if _, set := standard[strings.ToLower(def.Label)]; !set {
					sub.SetStandard(def.Label, value)
				}
				continue
			}
			sub.SetMeta(def.Label, value)
		}
	}

	sub.Integration = &model.Integration{
		ID:    contact.ID,
		Lists: slices.Clone(contact.Lists),
		Tags:  slices.Clone(contact.Tags),
	}
	sub.DeriveName()
	return sub, nil
}
