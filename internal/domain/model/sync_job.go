// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package model

import (
	"fmt"
	"strings"
	"time"
)

// Action identifies a subscriber operation a job can request
type Action string

// Supported actions
const (
	ActionCreateOrUpdate Action = "create_or_update"
	ActionAddToList      Action = "add_to_list"
	ActionRemoveFromList Action = "remove_from_list"
	ActionAddTag         Action = "add_tag"
	ActionRemoveTag      Action = "remove_tag"
)

// SyncState is a step of the per-subscriber sync state machine
type SyncState string

// Sync states: LOOKUP -> CREATE | UPDATE -> DONE, or FAILED from any step
const (
	SyncStateLookup SyncState = "lookup"
	SyncStateCreate SyncState = "create"
	SyncStateUpdate SyncState = "update"
	SyncStateDone   SyncState = "done"
	SyncStateFailed SyncState = "failed"
)

// SyncParams are per-call options shared by all operations of a job
type SyncParams struct {
	// List is the audience/list id for vendors that scope contacts or
	// custom fields per list.
	List string `json:"list,omitempty"`

	// DisableFieldCreation resolves custom fields against existing vendor
	// fields only.
	DisableFieldCreation bool `json:"disable_field_creation,omitempty"`
}

// SubscriberOperation is one action against one subscriber
type SubscriberOperation struct {
	Action     Action      `json:"action"`
	Email      string      `json:"email"`
	Subscriber *Subscriber `json:"subscriber,omitempty"`
	List       string      `json:"list,omitempty"`
	Tag        string      `json:"tag,omitempty"`
}

// Validate checks the operation's own parameters
func (o *SubscriberOperation) Validate() error {
	if strings.TrimSpace(o.Email) == "" {
		return fmt.Errorf("email is required")
	}

	switch o.Action {
	case ActionCreateOrUpdate:
		if o.Subscriber == nil {
			return fmt.Errorf("subscriber is required for %s", o.Action)
		}
	case ActionAddToList, ActionRemoveFromList:
		if o.List == "" {
			return fmt.Errorf("list is required for %s", o.Action)
		}
	case ActionAddTag, ActionRemoveTag:
		if o.Tag == "" {
			return fmt.Errorf("tag is required for %s", o.Action)
		}
	case "":
		return fmt.Errorf("action is required")
	default:
		return fmt.Errorf("unknown action %q", o.Action)
	}
	return nil
}

// SyncJob is a unit of work for one integration. Its operations run
// serially against a single driver instance.
type SyncJob struct {
	ID            string                `json:"id"`
	IntegrationID string                `json:"integration_id"`
	Params        SyncParams            `json:"params"`
	Operations    []SubscriberOperation `json:"operations"`
}

// SyncJobBatch groups jobs, typically for different integrations
type SyncJobBatch struct {
	Jobs []SyncJob `json:"jobs"`
}

// SyncResult reports the outcome of one operation
type SyncResult struct {
	Action    Action    `json:"action"`
	Email     string    `json:"email"`
	State     SyncState `json:"state"`
	ContactID string    `json:"contact_id,omitempty"`
	Created   bool      `json:"created,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// SyncJobResult is published once a job has been processed
type SyncJobResult struct {
	JobID         string       `json:"job_id"`
	IntegrationID string       `json:"integration_id"`
	Vendor        string       `json:"vendor,omitempty"`
	Results       []SyncResult `json:"results"`
	CompletedAt   time.Time    `json:"completed_at"`
}
