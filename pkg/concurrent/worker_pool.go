// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package concurrent provides a bounded worker pool for independent units of work.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// WorkerPool runs functions with a bounded number of concurrent workers
type WorkerPool struct {
	workers int
}

// NewWorkerPool creates a pool running at most workers functions at a time.
// A non-positive value means one worker.
func NewWorkerPool(workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{workers: workers}
}

// Run executes every function and waits for all of them.
// Functions already started keep running when one fails; functions not yet
// started are skipped once the derived context is cancelled.
// The first error is returned.
func (p *WorkerPool) Run(ctx context.Context, functions ...func() error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, fn := range functions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn()
		})
	}

	return g.Wait()
}

// RunAll executes every function regardless of failures and returns one
// error slot per function, in input order.
func (p *WorkerPool) RunAll(ctx context.Context, functions ...func() error) []error {
	errs := make([]error, len(functions))

	g := new(errgroup.Group)
	g.SetLimit(p.workers)

	for i, fn := range functions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn()
			return nil
		})
	}

	_ = g.Wait()
	return errs
}
