// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package port

import "context"

// MessagePublisher defines the interface for publishing sync job results
// and requeued jobs. This interface is implemented by the NATS messaging
// infrastructure so the job producer can track the outcome of every operation
type MessagePublisher interface {
	// Result publishes a job result message
	Result(ctx context.Context, subject string, message any) error
	// Job publishes a sync job message so it is processed again on its own
	Job(ctx context.Context, subject string, message any) error
}
