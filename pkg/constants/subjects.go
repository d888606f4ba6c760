// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// NATS subject constants for sync jobs
const (
	// SyncJobSubject carries a single sync job
	SyncJobSubject = "lfx.subscriber_sync.job"

	// SyncJobBatchSubject carries a list of sync jobs, usually for many integrations
	SyncJobBatchSubject = "lfx.subscriber_sync.batch"

	// SyncResultSubject receives one result message per processed job
	SyncResultSubject = "lfx.subscriber_sync.result"
)
