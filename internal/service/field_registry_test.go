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

const testList = "list-1"

// newVendor returns an empty in-memory vendor behaving like the named adapter
func newVendor(t *testing.T, name string) *mock.MockVendorClient {
	t.Helper()
	adapter, err := mock.Adapter(name)
	require.NoError(t, err)
	return mock.NewMockVendorClient(adapter)
}

func TestFieldRegistry_GetFields(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches once and serves from cache", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		vendor.AddField(testList, model.FieldDefinition{Tag: "SOURCE", Label: "source"})
		registry := NewFieldRegistry(vendor)

		fields, err := registry.GetFields(ctx, testList, false)
		require.NoError(t, err)
		assert.Len(t, fields, 1)

		_, err = registry.GetFields(ctx, testList, false)
		require.NoError(t, err)
		assert.Equal(t, 1, vendor.Calls(mock.OpListFields))
		assert.True(t, registry.Loaded(testList))
	})

	t.Run("force always fetches", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		registry := NewFieldRegistry(vendor)

		_, err := registry.GetFields(ctx, testList, false)
		require.NoError(t, err)

		vendor.AddField(testList, model.FieldDefinition{Tag: "SOURCE", Label: "source"})
		fields, err := registry.GetFields(ctx, testList, true)
		require.NoError(t, err)
		assert.Len(t, fields, 1)
		assert.Equal(t, 2, vendor.Calls(mock.OpListFields))
	})

	t.Run("empty scope is not refetched", func(t *testing.T) {
		vendor := newVendor(t, "hubspot")
		registry := NewFieldRegistry(vendor)

		for range 3 {
			fields, err := registry.GetFields(ctx, model.AccountScope, false)
			require.NoError(t, err)
			assert.Empty(t, fields)
		}
		assert.Equal(t, 1, vendor.Calls(mock.OpListFields))
	})

	t.Run("returned map is a copy", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		vendor.AddField(testList, model.FieldDefinition{ID: "1", Tag: "SOURCE", Label: "source"})
		registry := NewFieldRegistry(vendor)

		fields, err := registry.GetFields(ctx, testList, false)
		require.NoError(t, err)
		delete(fields, "1")

		_, ok := registry.FindByKey(testList, "1")
		assert.True(t, ok)
	})

	t.Run("auth failure leaves the cache untouched", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		vendor.AddField(testList, model.FieldDefinition{Tag: "SOURCE", Label: "source"})
		registry := NewFieldRegistry(vendor)

		_, err := registry.GetFields(ctx, testList, false)
		require.NoError(t, err)

		vendor.SetErrorForOperation(mock.OpListFields, errors.NewUnauthorized("invalid api key"))
		_, err = registry.GetFields(ctx, testList, true)
		require.Error(t, err)
		assert.Equal(t, errors.KindAuth, errors.KindOf(err))

		fields, err := registry.GetFields(ctx, testList, false)
		require.NoError(t, err)
		assert.Len(t, fields, 1)
	})

	t.Run("first fetch failure keeps scope unloaded", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		vendor.SetErrorForOperation(mock.OpListFields, errors.NewServiceUnavailable("rate limited"))
		registry := NewFieldRegistry(vendor)

		_, err := registry.GetFields(ctx, testList, false)
		require.Error(t, err)
		assert.True(t, errors.IsRetryable(err))
		assert.False(t, registry.Loaded(testList))
	})

	t.Run("unclassified failure is a request error", func(t *testing.T) {
		vendor := newVendor(t, "mailchimp")
		vendor.SetErrorForOperation(mock.OpListFields, fmt.Errorf("malformed response"))
		registry := NewFieldRegistry(vendor)

		_, err := registry.GetFields(ctx, testList, false)
		require.Error(t, err)
		assert.Equal(t, errors.KindRequest, errors.KindOf(err))
	})
}

func TestFieldRegistry_RegisterField(t *testing.T) {
	registry := NewFieldRegistry(newVendor(t, "drip"))

	registry.RegisterField(model.AccountScope, model.FieldDefinition{Tag: "source", Label: "Source"})
	registry.RegisterField(model.AccountScope, model.FieldDefinition{ID: "7", Tag: "plan", Label: "Plan"})

	def, ok := registry.FindByKey(model.AccountScope, "source")
	require.True(t, ok)
	assert.Equal(t, "source", def.ID)

	def, ok = registry.FindByKey(model.AccountScope, "plan")
	require.True(t, ok)
	assert.Equal(t, "7", def.ID)

	def, ok = registry.FindByLabel(model.AccountScope, "PLAN")
	require.True(t, ok)
	assert.Equal(t, "plan", def.Tag)

	assert.ElementsMatch(t, []string{"source", "plan"}, registry.Tags(model.AccountScope))
	assert.False(t, registry.Loaded(model.AccountScope))
}
