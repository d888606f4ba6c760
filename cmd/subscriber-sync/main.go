// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// The subscriber-sync service consumes sync jobs from NATS and pushes
// subscriber data into email and marketing vendors.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/linuxfoundation/lfx-v2-subscriber-sync/cmd/subscriber-sync/service"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/log"
	"github.com/linuxfoundation/lfx-v2-subscriber-sync/pkg/utils"
)

const gracefulShutdownSeconds = 25

func main() {
	var debug = flag.Bool("d", false, "enable debug logging")
	flag.Parse()

	if *debug {
		os.Setenv("LOG_LEVEL", "debug")
	}
	log.InitStructureLogConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := utils.SetupOTelSDK(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "error setting up OpenTelemetry SDK", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "error shutting down OpenTelemetry SDK", "error", err)
		}
	}()

	var wg sync.WaitGroup
	if err := handleSyncJobs(ctx, &wg); err != nil {
		slog.ErrorContext(ctx, "failed to start subscriber sync", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	slog.InfoContext(ctx, "shutdown signal received")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(gracefulShutdownSeconds * time.Second):
		slog.Warn("graceful shutdown timed out")
	}

	if err := service.CloseNATSClient(); err != nil {
		slog.Error("error closing NATS connection", "error", err)
	}
	slog.Info("subscriber sync stopped")
}
