// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/model"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/internal/domain/port"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/concurrent"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/log"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
)

// SyncJobService consumes sync job messages, runs their operations and
// publishes one result per job
type SyncJobService struct {
	drivers   *DriverFactory
	actions   *ActionRegistry
	publisher port.MessagePublisher
	pool      *concurrent.WorkerPool
}

// NewSyncJobService creates a sync job service. Jobs of a batch run on at
// most workers goroutines.
func NewSyncJobService(drivers *DriverFactory, actions *ActionRegistry, publisher port.MessagePublisher, workers int) *SyncJobService {
	if workers <= 0 {
		workers = constants.DefaultBatchWorkers
	}
	return &SyncJobService{
		drivers:   drivers,
		actions:   actions,
		publisher: publisher,
		pool:      concurrent.NewWorkerPool(workers),
	}
}

// HandleMessage routes NATS messages to the job or batch handler based on
// subject. A retryable error means the message should be redelivered.
func (s *SyncJobService) HandleMessage(ctx context.Context, msg *nats.Msg) error {
	subject := msg.Subject

	slog.DebugContext(ctx, "received sync message", "subject", subject)

	var err error
	switch subject {
	case constants.SyncJobSubject:
		err = s.handleJob(ctx, msg)
	case constants.SyncJobBatchSubject:
		err = s.handleBatch(ctx, msg)
	default:
		slog.WarnContext(ctx, "unknown sync message subject", "subject", subject)
		return errors.NewValidation(fmt.Sprintf("unknown sync message subject: %s", subject))
	}

	if err != nil {
		slog.ErrorContext(ctx, "error processing sync message",
			"error", err,
			"subject", subject,
			"retryable", errors.IsRetryable(err),
		)
		return err
	}

	return nil
}

func (s *SyncJobService) handleJob(ctx context.Context, msg *nats.Msg) error {
	var job model.SyncJob
	if err := decodeMessage(msg, &job); err != nil {
		return err
	}

	_, err := s.ProcessJob(ctx, &job)
	return err
}

func (s *SyncJobService) handleBatch(ctx context.Context, msg *nats.Msg) error {
	var batch model.SyncJobBatch
	if err := decodeMessage(msg, &batch); err != nil {
		return err
	}

	return s.ProcessBatch(ctx, &batch)
}

// decodeMessage unmarshals msg as msgpack when its Content-Type header says
// so and as JSON otherwise
func decodeMessage(msg *nats.Msg, out any) error {
	contentType := ""
	if msg.Header != nil {
		contentType = msg.Header.Get(constants.ContentTypeHeader)
	}

	var err error
	switch contentType {
	case constants.ContentTypeMsgpack:
		dec := msgpack.NewDecoder(bytes.NewReader(msg.Data))
		dec.SetCustomStructTag("json")
		err = dec.Decode(out)
	default:
		err = json.Unmarshal(msg.Data, out)
	}
	if err != nil {
		return errors.NewValidation("failed to decode sync message", err)
	}
	return nil
}

// ProcessBatch runs every job of batch. Jobs interrupted by a retryable
// failure are requeued as single job messages so finished jobs are not run
// again; the batch itself is only retried when requeueing fails.
func (s *SyncJobService) ProcessBatch(ctx context.Context, batch *model.SyncJobBatch) error {
	slog.InfoContext(ctx, "processing sync job batch", "jobs", len(batch.Jobs))

	functions := make([]func() error, 0, len(batch.Jobs))
	for i := range batch.Jobs {
		job := &batch.Jobs[i]
		functions = append(functions, func() error {
			_, err := s.ProcessJob(ctx, job)
			return err
		})
	}

	var requeueErrs []error
	requeued := 0
	for i, err := range s.pool.RunAll(ctx, functions...) {
		if err == nil {
			continue
		}
		job := &batch.Jobs[i]
		if pubErr := s.publisher.Job(ctx, constants.SyncJobSubject, job); pubErr != nil {
			slog.ErrorContext(ctx, "failed to requeue sync job",
				"job_id", job.ID,
				"error", pubErr,
			)
			requeueErrs = append(requeueErrs, err, pubErr)
			continue
		}
		requeued++
		slog.WarnContext(ctx, "sync job requeued after a transient failure",
			"job_id", job.ID,
			"error", err,
		)
	}
	if len(requeueErrs) > 0 {
		return errors.NewServiceUnavailable("failed to requeue sync jobs", requeueErrs...)
	}

	slog.InfoContext(ctx, "sync job batch completed", "jobs", len(batch.Jobs), "requeued", requeued)
	return nil
}

// ProcessJob runs the operations of job serially on one driver and
// publishes the job result. A retryable failure stops the job and is
// returned without publishing so the message is redelivered.
func (s *SyncJobService) ProcessJob(ctx context.Context, job *model.SyncJob) (*model.SyncJobResult, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	ctx = context.WithValue(ctx, constants.JobIDContextKey, job.ID)
	ctx = log.WithAttrs(ctx,
		slog.String("job_id", job.ID),
		slog.String("integration_id", job.IntegrationID),
	)

	slog.InfoContext(ctx, "processing sync job", "operations", len(job.Operations))

	result := &model.SyncJobResult{
		JobID:         job.ID,
		IntegrationID: job.IntegrationID,
		Results:       make([]model.SyncResult, 0, len(job.Operations)),
	}

	driver, err := s.drivers.New(ctx, job.IntegrationID)
	if err != nil {
		if errors.IsRetryable(err) {
			return nil, err
		}
		for _, op := range job.Operations {
			result.Results = append(result.Results, failedResult(op, err))
		}
		return result, s.publish(ctx, result)
	}
	defer driver.Close()

	result.Vendor = driver.Adapter().Name

	for i, op := range job.Operations {
		opCtx := context.WithValue(ctx, constants.RequestIDContextKey, fmt.Sprintf("%s-%d", job.ID, i))

		res, err := s.actions.Run(opCtx, driver, op, job.Params)
		if err != nil && errors.IsRetryable(err) {
			slog.WarnContext(ctx, "sync job interrupted by a transient failure",
				"operation", i,
				"action", op.Action,
				"error", err,
			)
			return nil, err
		}
		if res == nil {
			res = &model.SyncResult{Action: op.Action, Email: op.Email, State: model.SyncStateDone}
			if err != nil {
				*res = failedResult(op, err)
			}
		}
		result.Results = append(result.Results, *res)
	}

	return result, s.publish(ctx, result)
}

func (s *SyncJobService) publish(ctx context.Context, result *model.SyncJobResult) error {
	result.CompletedAt = time.Now().UTC()

	if err := s.publisher.Result(ctx, constants.SyncResultSubject, result); err != nil {
		slog.ErrorContext(ctx, "failed to publish sync job result", "error", err)
		return errors.NewServiceUnavailable("failed to publish sync job result", err)
	}

	slog.InfoContext(ctx, "sync job completed", "results", len(result.Results))
	return nil
}

func failedResult(op model.SubscriberOperation, err error) model.SyncResult {
	return model.SyncResult{
		Action:    op.Action,
		Email:     op.Email,
		State:     model.SyncStateFailed,
		ErrorKind: string(errors.KindOf(err)),
		Error:     err.Error(),
	}
}
