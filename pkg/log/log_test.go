// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendCtx(t *testing.T) {
	ctx := AppendCtx(context.Background(), slog.String("integration_id", "int-1"))
	ctx = AppendCtx(ctx, slog.String("vendor", "mailchimp"))

	attrs, ok := ctx.Value(slogFields).([]slog.Attr)
	require.True(t, ok)
	require.Len(t, attrs, 2)
	assert.Equal(t, "integration_id", attrs[0].Key)
	assert.Equal(t, "vendor", attrs[1].Key)
}

func TestAppendCtx_NilParent(t *testing.T) {
	//nolint:staticcheck // nil parent is tolerated on purpose
	ctx := AppendCtx(nil, slog.String("job_id", "job-1"))
	require.NotNil(t, ctx)

	attrs, ok := ctx.Value(slogFields).([]slog.Attr)
	require.True(t, ok)
	assert.Len(t, attrs, 1)
}

func TestContextHandler_AddsContextAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(contextHandler{slog.NewJSONHandler(&buf, nil)})

	ctx := WithAttrs(context.Background(),
		slog.String("integration_id", "int-7"),
		slog.String("vendor", "drip"),
	)
	logger.InfoContext(ctx, "subscriber synced", "state", "done")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "int-7", record["integration_id"])
	assert.Equal(t, "drip", record["vendor"])
	assert.Equal(t, "done", record["state"])
}

func TestPriorityCritical(t *testing.T) {
	attr := PriorityCritical()
	assert.Equal(t, "priority", attr.Key)
	assert.Equal(t, "critical", attr.Value.String())
}
