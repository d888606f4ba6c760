// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"
)

// ActionHandler runs one operation against a driver
type ActionHandler func(ctx context.Context, driver *SubscriberSync, op model.SubscriberOperation, params model.SyncParams) (*model.SyncResult, error)

// ActionRegistry maps job actions to driver operations
type ActionRegistry struct {
	handlers map[model.Action]ActionHandler
}

// NewActionRegistry builds the registry and checks that every action an
// adapter declares has a handler
func NewActionRegistry(adapters []*model.VendorAdapter) (*ActionRegistry, error) {
	r := &ActionRegistry{
		handlers: map[model.Action]ActionHandler{
			model.ActionCreateOrUpdate: func(ctx context.Context, d *SubscriberSync, op model.SubscriberOperation, params model.SyncParams) (*model.SyncResult, error) {
				return d.CreateOrUpdate(ctx, op.Email, op.Subscriber, params)
			},
			model.ActionAddToList: func(ctx context.Context, d *SubscriberSync, op model.SubscriberOperation, params model.SyncParams) (*model.SyncResult, error) {
				return d.AddToList(ctx, op.Email, op.List, params)
			},
			model.ActionRemoveFromList: func(ctx context.Context, d *SubscriberSync, op model.SubscriberOperation, params model.SyncParams) (*model.SyncResult, error) {
				return d.RemoveFromList(ctx, op.Email, op.List, params)
			},
			model.ActionAddTag: func(ctx context.Context, d *SubscriberSync, op model.SubscriberOperation, params model.SyncParams) (*model.SyncResult, error) {
				return d.AddTag(ctx, op.Email, op.Tag, params)
			},
			model.ActionRemoveTag: func(ctx context.Context, d *SubscriberSync, op model.SubscriberOperation, params model.SyncParams) (*model.SyncResult, error) {
				return d.RemoveTag(ctx, op.Email, op.Tag, params)
			},
		},
	}

	for _, adapter := range adapters {
		for _, action := range adapter.Actions {
			if _, ok := r.handlers[action]; !ok {
				return nil, errors.NewValidation(fmt.Sprintf("adapter %s declares unknown action %q", adapter.Name, action))
			}
		}
	}

	return r, nil
}

// Actions returns the registered actions in sorted order
func (r *ActionRegistry) Actions() []model.Action {
	actions := make([]model.Action, 0, len(r.handlers))
	for action := range r.handlers {
		actions = append(actions, action)
	}
	slices.Sort(actions)
	return actions
}

// Validate checks op's parameters and that the adapter supports its action
func (r *ActionRegistry) Validate(adapter *model.VendorAdapter, op model.SubscriberOperation) error {
	if err := op.Validate(); err != nil {
		return errors.NewValidation("invalid operation", err)
	}
	if _, ok := r.handlers[op.Action]; !ok {
		return errors.NewValidation(fmt.Sprintf("unknown action %q", op.Action))
	}
	if !adapter.Supports(op.Action) {
		return errors.NewValidation(fmt.Sprintf("%s does not support %s", adapter.Name, op.Action))
	}
	return nil
}

// Run validates and dispatches op. Validation failures are reported as a
// failed result with a param error.
func (r *ActionRegistry) Run(ctx context.Context, driver *SubscriberSync, op model.SubscriberOperation, params model.SyncParams) (*model.SyncResult, error) {
	if err := r.Validate(driver.Adapter(), op); err != nil {
		return &model.SyncResult{
			Action:    op.Action,
			Email:     op.Email,
			State:     model.SyncStateFailed,
			ErrorKind: string(errors.KindOf(err)),
			Error:     err.Error(),
		}, err
	}
	return r.handlers[op.Action](ctx, driver, op, params)
}
