// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"
)

// MockCredentialStore keeps integration credentials in memory
type MockCredentialStore struct {
	mu          sync.RWMutex
	credentials map[string]*model.Credentials
	saves       int
	globalError error
}

// Ensure MockCredentialStore implements the CredentialStore interface
var _ port.CredentialStore = (*MockCredentialStore)(nil)

// NewMockCredentialStore creates a store holding creds
func NewMockCredentialStore(creds ...*model.Credentials) *MockCredentialStore {
	s := &MockCredentialStore{credentials: make(map[string]*model.Credentials)}
	for _, c := range creds {
		s.credentials[c.IntegrationID] = copyCredentials(c)
	}
	return s
}

// NewDryRunCredentialStore holds one integration per adapter, with the id
// mock-<vendor>
func NewDryRunCredentialStore(adapters map[string]*model.VendorAdapter) *MockCredentialStore {
	s := NewMockCredentialStore()
	for name := range adapters {
		id := "mock-" + name
		s.credentials[id] = &model.Credentials{IntegrationID: id, Vendor: name}
	}
	return s
}

// GetCredentials returns a copy of the stored credentials
func (s *MockCredentialStore) GetCredentials(ctx context.Context, integrationID string) (*model.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.globalError != nil {
		return nil, s.globalError
	}
	creds, ok := s.credentials[integrationID]
	if !ok {
		slog.WarnContext(ctx, "mock credentials not found", "integration_id", integrationID)
		return nil, errors.NewUnauthorized("integration has no stored credentials")
	}
	return copyCredentials(creds), nil
}

// SaveCredentials replaces the stored credentials
func (s *MockCredentialStore) SaveCredentials(_ context.Context, creds *model.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.globalError != nil {
		return s.globalError
	}
	if creds == nil {
		return errors.NewValidation("credentials cannot be nil")
	}
	s.credentials[creds.IntegrationID] = copyCredentials(creds)
	s.saves++
	return nil
}

// IsReady always succeeds unless an error is simulated
func (s *MockCredentialStore) IsReady(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globalError
}

// Saves returns how often SaveCredentials succeeded
func (s *MockCredentialStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

// SetGlobalError makes every operation fail with err
func (s *MockCredentialStore) SetGlobalError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globalError = err
}

func copyCredentials(c *model.Credentials) *model.Credentials {
	out := *c
	out.Values = maps.Clone(c.Values)
	return &out
}
