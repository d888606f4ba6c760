// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"
)

// FieldRegistry caches the custom field definitions of one vendor account,
// per scope. It belongs to a single driver instance and is used serially.
type FieldRegistry struct {
	client port.VendorClient
	fields map[string]map[string]model.FieldDefinition // scope -> id -> field
	loaded map[string]bool
}

// NewFieldRegistry creates an empty registry over client
func NewFieldRegistry(client port.VendorClient) *FieldRegistry {
	return &FieldRegistry{
		client: client,
		fields: make(map[string]map[string]model.FieldDefinition),
		loaded: make(map[string]bool),
	}
}

// GetFields returns the field definitions of scope keyed by id. The vendor
// is asked only when the scope was never fetched or force is set; the
// fetched set replaces the cached one. A failed fetch leaves the cache as is.
func (r *FieldRegistry) GetFields(ctx context.Context, scope string, force bool) (map[string]model.FieldDefinition, error) {
	if r.loaded[scope] && !force {
		return maps.Clone(r.fields[scope]), nil
	}

	list, err := r.client.ListFields(ctx, scope)
	if err != nil {
		switch errors.KindOf(err) {
		case errors.KindAuth, errors.KindTransient, errors.KindParam:
			return nil, err
		default:
			return nil, errors.NewUnexpected(fmt.Sprintf("failed to list custom fields of scope %s", scope), err)
		}
	}

	fields := make(map[string]model.FieldDefinition, len(list))
	for _, f := range list {
		fields[f.ID] = f
	}
	r.fields[scope] = fields
	r.loaded[scope] = true

	slog.DebugContext(ctx, "field registry refreshed",
		"scope", scope,
		"forced", force,
		"field_count", len(fields),
	)
	return maps.Clone(fields), nil
}

// RegisterField records a field created during this run without asking the vendor
func (r *FieldRegistry) RegisterField(scope string, def model.FieldDefinition) {
	if r.fields[scope] == nil {
		r.fields[scope] = make(map[string]model.FieldDefinition)
	}
	if def.ID == "" {
		def.ID = def.Tag
	}
	r.fields[scope][def.ID] = def
}

// Loaded reports whether scope was fetched at least once
func (r *FieldRegistry) Loaded(scope string) bool {
	return r.loaded[scope]
}

// FindByLabel looks a cached field up by its label, ignoring case
func (r *FieldRegistry) FindByLabel(scope, label string) (model.FieldDefinition, bool) {
	for _, f := range r.fields[scope] {
		if strings.EqualFold(f.Label, label) {
			return f, true
		}
	}
	return model.FieldDefinition{}, false
}

// FindByKey looks a cached field up by id, then by tag
func (r *FieldRegistry) FindByKey(scope, key string) (model.FieldDefinition, bool) {
	if f, ok := r.fields[scope][key]; ok {
		return f, true
	}
	for _, f := range r.fields[scope] {
		if f.Tag == key {
			return f, true
		}
	}
	return model.FieldDefinition{}, false
}

// Tags returns the cached tags of scope
func (r *FieldRegistry) Tags(scope string) []string {
	tags := make([]string, 0, len(r.fields[scope]))
	for _, f := range r.fields[scope] {
		tags = append(tags, f.Tag)
	}
	return tags
}
