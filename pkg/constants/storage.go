// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

const (
	// KVBucketNameIntegrationCredentials is the name of the KV bucket holding
	// vendor credentials keyed by integration id.
	KVBucketNameIntegrationCredentials = "subscriber-sync-credentials"
)
