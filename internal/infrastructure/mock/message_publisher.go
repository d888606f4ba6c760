// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mock

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/port"
)

// PublishedMessage is a message recorded by the mock publisher
type PublishedMessage struct {
	Subject string
	Message any
}

// MockMessagePublisher records published messages
type MockMessagePublisher struct {
	mu       sync.Mutex
	messages []PublishedMessage
	err      error
}

// Ensure MockMessagePublisher implements the MessagePublisher interface
var _ port.MessagePublisher = (*MockMessagePublisher)(nil)

// NewMockMessagePublisher creates a new mock publisher for testing
func NewMockMessagePublisher() *MockMessagePublisher {
	return &MockMessagePublisher{}
}

// Result records the message, or fails with the simulated error
func (m *MockMessagePublisher) Result(ctx context.Context, subject string, message any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.messages = append(m.messages, PublishedMessage{Subject: subject, Message: message})

	slog.InfoContext(ctx, "mock result message published",
		"subject", subject,
	)
	return nil
}

// Job records a requeued job, or fails with the simulated error
func (m *MockMessagePublisher) Job(ctx context.Context, subject string, message any) error {
	return m.Result(ctx, subject, message)
}

// Messages returns the recorded messages
func (m *MockMessagePublisher) Messages() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.messages)
}

// SetError makes Result fail with err
func (m *MockMessagePublisher) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}
