// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/cmd/subscriber-sync/service"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/errors"

	"github.com/nats-io/nats.go"
)

const defaultJobTimeout = 5 * time.Minute

func jobTimeout() time.Duration {
	if v := os.Getenv(constants.EnvJobTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
		slog.Warn("invalid sync job timeout, using default", "value", v)
	}
	return defaultJobTimeout
}

// handleSyncJobs subscribes to the sync job subjects
func handleSyncJobs(ctx context.Context, wg *sync.WaitGroup) error {
	slog.InfoContext(ctx, "starting subscriber sync")

	syncService := service.SyncJobService(ctx)
	natsClient := service.GetNATSClient(ctx)
	timeout := jobTimeout()

	subjects := []string{
		constants.SyncJobSubject,
		constants.SyncJobBatchSubject,
	}

	for _, subject := range subjects {
		_, subErr := natsClient.QueueSubscribe(
			subject,
			constants.SubscriberSyncQueue,
			func(msg *nats.Msg) {
				select {
				case <-ctx.Done():
					slog.InfoContext(ctx, "rejecting message - service shutting down",
						"subject", msg.Subject)
					if msg.Reply != "" {
						if nakErr := msg.Nak(); nakErr != nil {
							slog.ErrorContext(ctx, "failed to nak message during shutdown", "error", nakErr)
						}
					}
					return
				default:
				}

				// not derived from the shutdown context so in-flight jobs finish
				msgCtx, cancel := context.WithTimeout(context.Background(), timeout)
				defer cancel()

				handleErr := syncService.HandleMessage(msgCtx, msg)
				if msg.Reply == "" {
					return
				}

				switch {
				case handleErr == nil:
					if ackErr := msg.Ack(); ackErr != nil {
						slog.ErrorContext(msgCtx, "failed to ack message", "error", ackErr)
					}
				case errors.IsRetryable(handleErr):
					slog.WarnContext(msgCtx, "sync message will be redelivered",
						"error", handleErr,
						"subject", msg.Subject)
					if nakErr := msg.Nak(); nakErr != nil {
						slog.ErrorContext(msgCtx, "failed to nak message", "error", nakErr)
					}
				default:
					slog.ErrorContext(msgCtx, "dropping sync message",
						"error", handleErr,
						"subject", msg.Subject)
					if termErr := msg.Term(); termErr != nil {
						slog.ErrorContext(msgCtx, "failed to term message", "error", termErr)
					}
				}
			},
		)
		if subErr != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, subErr)
		}
		slog.InfoContext(ctx, "subscribed to sync jobs",
			"subject", subject,
			"queue", constants.SubscriberSyncQueue)
	}

	slog.InfoContext(ctx, "subscriber sync started successfully")

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		slog.InfoContext(ctx, "shutting down subscriber sync")
	}()

	return nil
}
