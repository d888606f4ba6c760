// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"
)

// messagingPublisher implements the MessagePublisher interface using NATS
type messagingPublisher struct {
	client *NATSClient
}

// Result publishes the outcome of a sync job for the integration owner
func (m *messagingPublisher) Result(ctx context.Context, subject string, message any) error {
	return m.publish(ctx, subject, message)
}

// Job requeues a sync job as its own message
func (m *messagingPublisher) Job(ctx context.Context, subject string, message any) error {
	return m.publish(ctx, subject, message)
}

func (m *messagingPublisher) publish(ctx context.Context, subject string, message any) error {
	if err := m.client.IsReady(ctx); err != nil {
		slog.ErrorContext(ctx, "NATS client is not ready for publishing",
			"error", err,
			"subject", subject,
		)
		return errors.NewServiceUnavailable("NATS client is not ready", err)
	}

	data, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal message to JSON",
			"error", err,
			"subject", subject,
		)
		return errors.NewUnexpected("failed to marshal message", err)
	}

	if err := m.client.conn.Publish(subject, data); err != nil {
		slog.ErrorContext(ctx, "failed to publish message to NATS",
			"error", err,
			"subject", subject,
		)
		return errors.NewServiceUnavailable("failed to publish message", err)
	}

	slog.DebugContext(ctx, "message published successfully",
		"subject", subject,
		"message_size", len(data),
	)

	return nil
}

// NewMessagePublisher creates a new MessagePublisher using NATS
func NewMessagePublisher(client *NATSClient) port.MessagePublisher {
	return &messagingPublisher{
		client: client,
	}
}
