// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

// SubscriberSyncQueue is the NATS queue group for subscriber sync subscriptions
const SubscriberSyncQueue = "lfx-v2-subscriber-sync"

// DefaultBatchWorkers is the number of jobs of a batch processed concurrently
const DefaultBatchWorkers = 4
