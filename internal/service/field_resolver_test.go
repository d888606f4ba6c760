// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, vendor *mock.MockVendorClient) (*FieldResolver, *FieldRegistry) {
	t.Helper()
	registry := NewFieldRegistry(vendor)
	resolver, err := NewFieldResolver(vendor, registry)
	require.NoError(t, err)
	return resolver, registry
}

func TestFieldResolver_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("existing field by label", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		vendor.AddField(testList, model.FieldDefinition{Tag: "MMERGE5", Label: "Source"})
		resolver, _ := newResolver(t, vendor)

		def, err := resolver.Resolve(ctx, NewResolveSession(), testList, "source", true)
		require.NoError(t, err)
		require.NotNil(t, def)
		assert.Equal(t, "MMERGE5", def.Tag)
		assert.Equal(t, 0, vendor.Calls(mock.OpCreateField))
		assert.Equal(t, 1, vendor.Calls(mock.OpListFields))
	})

	t.Run("standard field maps to the fixed vendor key", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		resolver, _ := newResolver(t, vendor)

		def, err := resolver.Resolve(ctx, NewResolveSession(), testList, "first_name", true)
		require.NoError(t, err)
		require.NotNil(t, def)
		assert.Equal(t, "FNAME", def.ID)
		assert.Equal(t, "FNAME", def.Tag)
		assert.Equal(t, 0, vendor.Calls(mock.OpCreateField))
		assert.Equal(t, 0, vendor.Calls(mock.OpListFields))
	})

	t.Run("unmapped standard field is resolved as custom", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		resolver, _ := newResolver(t, vendor)

		def, err := resolver.Resolve(ctx, NewResolveSession(), testList, "Company", true)
		require.NoError(t, err)
		require.NotNil(t, def)
		assert.Equal(t, "COMPANY", def.Tag)
		assert.Equal(t, 1, vendor.Calls(mock.OpCreateField))
	})

	t.Run("collision picks the next free suffix", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		vendor.AddField(testList, model.FieldDefinition{Tag: "FIELD", Label: "Other A"})
		vendor.AddField(testList, model.FieldDefinition{Tag: "FIELD1", Label: "Other B"})
		resolver, registry := newResolver(t, vendor)

		def, err := resolver.Resolve(ctx, NewResolveSession(), testList, "Field", true)
		require.NoError(t, err)
		require.NotNil(t, def)
		assert.Equal(t, "FIELD2", def.Tag)
		assert.Equal(t, "Field", def.Label)
		assert.Equal(t, 1, vendor.Calls(mock.OpCreateField))

		_, ok := registry.FindByKey(testList, "FIELD2")
		assert.True(t, ok)
	})

	t.Run("exhausted suffixes skip the field", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		vendor.AddField(testList, model.FieldDefinition{Tag: "FIELD", Label: "Other"})
		for i := 1; i < model.DefaultMaxAttempts; i++ {
			vendor.AddField(testList, model.FieldDefinition{Tag: fmt.Sprintf("FIELD%d", i), Label: fmt.Sprintf("Other %d", i)})
		}
		resolver, _ := newResolver(t, vendor)

		def, err := resolver.Resolve(ctx, NewResolveSession(), testList, "Field", true)
		require.NoError(t, err)
		assert.Nil(t, def)
		assert.Equal(t, 0, vendor.Calls(mock.OpCreateField))
	})

	t.Run("reserved tags are never allocated", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		resolver, _ := newResolver(t, vendor)

		def, err := resolver.Resolve(ctx, NewResolveSession(), testList, "Email", true)
		require.NoError(t, err)
		require.NotNil(t, def)
		assert.Equal(t, "EMAIL1", def.Tag)
	})

	t.Run("memoized within a session", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		resolver, _ := newResolver(t, vendor)
		session := NewResolveSession()

		first, err := resolver.Resolve(ctx, session, testList, "Source", true)
		require.NoError(t, err)
		second, err := resolver.Resolve(ctx, session, testList, "source", true)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, vendor.Calls(mock.OpCreateField))
	})

	t.Run("names sharing a base get distinct tags", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		resolver, _ := newResolver(t, vendor)
		session := NewResolveSession()

		first, err := resolver.Resolve(ctx, session, testList, "Source!", true)
		require.NoError(t, err)
		second, err := resolver.Resolve(ctx, session, testList, "Source?", true)
		require.NoError(t, err)

		require.NotNil(t, first)
		require.NotNil(t, second)
		assert.Equal(t, "SOURCE", first.Tag)
		assert.Equal(t, "SOURCE1", second.Tag)
	})

	t.Run("already exists counts as success", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		vendor.AddField(testList, model.FieldDefinition{Tag: "SOURCE", Label: "Source"})
		vendor.HideField(testList, "SOURCE")
		resolver, _ := newResolver(t, vendor)

		def, err := resolver.Resolve(ctx, NewResolveSession(), testList, "Source", true)
		require.NoError(t, err)
		require.NotNil(t, def)
		assert.Equal(t, "SOURCE", def.Tag)
		assert.Equal(t, 1, vendor.Calls(mock.OpCreateField))
		assert.Equal(t, 2, vendor.Calls(mock.OpListFields))
	})

	t.Run("quota reached skips the field", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		vendor.AddField(testList, model.FieldDefinition{Tag: "PLAN", Label: "Plan"})
		vendor.SetFieldQuota(1)
		resolver, _ := newResolver(t, vendor)

		def, err := resolver.Resolve(ctx, NewResolveSession(), testList, "Source", true)
		require.NoError(t, err)
		assert.Nil(t, def)
		assert.Len(t, vendor.Fields(testList), 1)
	})

	t.Run("creation disabled", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		resolver, _ := newResolver(t, vendor)

		def, err := resolver.Resolve(ctx, NewResolveSession(), testList, "Source", false)
		require.NoError(t, err)
		assert.Nil(t, def)
		assert.Equal(t, 0, vendor.Calls(mock.OpCreateField))
	})

	t.Run("miss forces one refresh", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		resolver, registry := newResolver(t, vendor)

		_, err := registry.GetFields(ctx, testList, false)
		require.NoError(t, err)
		vendor.AddField(testList, model.FieldDefinition{Tag: "SOURCE", Label: "Source"})

		session := NewResolveSession()
		def, err := resolver.Resolve(ctx, session, testList, "Source", false)
		require.NoError(t, err)
		require.NotNil(t, def)
		assert.Equal(t, "SOURCE", def.Tag)

		_, err = resolver.Resolve(ctx, session, testList, "Unknown", false)
		require.NoError(t, err)
		assert.Equal(t, 2, vendor.Calls(mock.OpListFields))
	})

	t.Run("vendor errors propagate", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		vendor.SetErrorForOperation(mock.OpCreateField, errors.NewServiceUnavailable("rate limited"))
		resolver, _ := newResolver(t, vendor)

		_, err := resolver.Resolve(ctx, NewResolveSession(), testList, "Source", true)
		require.Error(t, err)
		assert.True(t, errors.IsRetryable(err))
	})

	t.Run("name without usable characters is skipped", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		resolver, _ := newResolver(t, vendor)

		def, err := resolver.Resolve(ctx, NewResolveSession(), testList, "!!!", true)
		require.NoError(t, err)
		assert.Nil(t, def)
		assert.Equal(t, 0, vendor.Calls(mock.OpCreateField))
	})
}

func TestFieldResolver_Normalize(t *testing.T) {
	tests := []struct {
		vendor string
		name   string
		want   string
	}{
		{"mailchimp", "Source", "SOURCE"},
		{"mailchimp", "First Name", "FIRST_NAME"},
		{"mailchimp", "Café Owner", "CAFE_OWNER"},
		{"mailchimp", "2024 Plan", "F2024_PLAN"},
		{"mailchimp", "Very Long Field Name", "VERY_LONG"},
		{"mailchimp", "a -- b", "A_B"},
		{"mailchimp", "!!!", ""},
		{"hubspot", "Favourite Colour", "favourite_colour"},
		{"hubspot", "Ünïcödé", "unicode"},
		{"drip", "9 lives", "f9_lives"},
	}

	for _, tt := range tests {
		t.Run(tt.vendor+"/"+tt.name, func(t *testing.T) {
			resolver, _ := newResolver(t, newVendor(t, tt.vendor))
			assert.Equal(t, tt.want, resolver.Normalize(tt.name))
		})
	}
}
