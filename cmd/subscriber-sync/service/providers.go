// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package service wires the infrastructure implementations selected by the
// environment into the sync job service.
package service

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/infrastructure/mock"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/infrastructure/nats"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/infrastructure/vendor"
	internalService "github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/service"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/constants"
)

var (
	natsClient *nats.NATSClient
	natsDoOnce sync.Once

	adapters     map[string]*model.VendorAdapter
	vendorConfig vendor.Config
	adaptersOnce sync.Once
)

func natsInit(ctx context.Context) {
	natsDoOnce.Do(func() {
		config := nats.NewConfigFromEnv()

		client, err := nats.NewClient(ctx, config)
		if err != nil {
			log.Fatalf("failed to create NATS client: %v", err)
		}
		natsClient = client
	})
}

// GetNATSClient returns the shared NATS client, connecting on first use
func GetNATSClient(ctx context.Context) *nats.NATSClient {
	natsInit(ctx)
	return natsClient
}

// CloseNATSClient drains the NATS connection if it was opened
func CloseNATSClient() error {
	if natsClient == nil {
		return nil
	}
	return natsClient.Close()
}

func adaptersInit(ctx context.Context) {
	adaptersOnce.Do(func() {
		vendorConfig = vendor.NewConfigFromEnv()

		loaded, err := vendor.LoadAdapters(vendorConfig)
		if err != nil {
			log.Fatalf("failed to load vendor adapters: %v", err)
		}
		adapters = loaded

		slog.InfoContext(ctx, "vendor adapters loaded",
			"count", len(adapters),
			"file", vendorConfig.AdaptersFile,
		)
	})
}

func credentialSource() string {
	source := os.Getenv(constants.EnvCredentialSource)
	if source == "" {
		source = constants.CredentialSourceNATS
	}
	if err := constants.ValidateCredentialSource(source); err != nil {
		log.Fatalf("invalid credential source: %v", err)
	}
	return source
}

// CredentialStore initializes the credential store implementation based on
// the credential source
func CredentialStore(ctx context.Context) port.CredentialStore {
	var store port.CredentialStore

	switch credentialSource() {
	case constants.CredentialSourceMock:
		slog.InfoContext(ctx, "initializing mock credential store")
		adaptersInit(ctx)
		store = mock.NewDryRunCredentialStore(adapters)
	case constants.CredentialSourceNATS:
		slog.InfoContext(ctx, "initializing NATS credential store")
		store = nats.NewCredentialStore(GetNATSClient(ctx))
	}

	return store
}

// VendorClientFactory returns the HTTP vendor clients, or in-memory vendors
// when running against mock credentials
func VendorClientFactory(ctx context.Context, store port.CredentialWriter) port.VendorClientFactory {
	adaptersInit(ctx)

	if credentialSource() == constants.CredentialSourceMock {
		slog.InfoContext(ctx, "initializing mock vendor clients")
		return mock.NewDryRunVendorClientFactory(adapters)
	}

	slog.InfoContext(ctx, "initializing HTTP vendor clients")
	return vendor.NewClientFactory(vendorConfig, adapters, store)
}

// MessagePublisher returns the result publisher for the credential source
func MessagePublisher(ctx context.Context) port.MessagePublisher {
	if credentialSource() == constants.CredentialSourceMock {
		slog.InfoContext(ctx, "initializing mock result publisher")
		return mock.NewMockMessagePublisher()
	}
	return nats.NewMessagePublisher(GetNATSClient(ctx))
}

// SyncJobService builds the sync job service from the configured providers
func SyncJobService(ctx context.Context) *internalService.SyncJobService {
	store := CredentialStore(ctx)
	vendors := VendorClientFactory(ctx, store)

	actions, err := internalService.NewActionRegistry(vendors.Adapters())
	if err != nil {
		log.Fatalf("failed to build action registry: %v", err)
	}

	workers := constants.DefaultBatchWorkers
	if v := os.Getenv(constants.EnvBatchWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Fatalf("invalid %s value %q", constants.EnvBatchWorkers, v)
		}
		workers = n
	}

	return internalService.NewSyncJobService(
		internalService.NewDriverFactory(store, vendors),
		actions,
		MessagePublisher(ctx),
		workers,
	)
}
