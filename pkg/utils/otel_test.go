// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearOTelEnv(t *testing.T) {
	t.Helper()
	for _, env := range []string{
		"OTEL_SERVICE_NAME",
		"OTEL_SERVICE_VERSION",
		"OTEL_EXPORTER_OTLP_PROTOCOL",
		"OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_INSECURE",
		"OTEL_TRACES_EXPORTER",
		"OTEL_TRACES_SAMPLE_RATIO",
		"OTEL_METRICS_EXPORTER",
		"OTEL_LOGS_EXPORTER",
		"OTEL_PROPAGATORS",
	} {
		t.Setenv(env, "")
	}
}

func TestOTelConfigFromEnv(t *testing.T) {
	t.Run("defaults keep every exporter off", func(t *testing.T) {
		clearOTelEnv(t)

		assert.Equal(t, OTelConfig{
			ServiceName:       "lfx-v2-subscriber-sync",
			Protocol:          OTelProtocolGRPC,
			TracesExporter:    OTelExporterNone,
			TracesSampleRatio: 1.0,
			MetricsExporter:   OTelExporterNone,
			LogsExporter:      OTelExporterNone,
			Propagators:       OTelDefaultPropagators,
		}, OTelConfigFromEnv())
	})

	t.Run("collector settings from the environment", func(t *testing.T) {
		clearOTelEnv(t)
		t.Setenv("OTEL_SERVICE_VERSION", "0.4.1")
		t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", OTelProtocolHTTP)
		t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318")
		t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
		t.Setenv("OTEL_TRACES_EXPORTER", OTelExporterOTLP)
		t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "0.25")
		t.Setenv("OTEL_PROPAGATORS", "tracecontext")

		cfg := OTelConfigFromEnv()
		assert.Equal(t, "lfx-v2-subscriber-sync", cfg.ServiceName)
		assert.Equal(t, "0.4.1", cfg.ServiceVersion)
		assert.Equal(t, OTelProtocolHTTP, cfg.Protocol)
		assert.Equal(t, "otel-collector:4318", cfg.Endpoint)
		assert.True(t, cfg.Insecure)
		assert.Equal(t, OTelExporterOTLP, cfg.TracesExporter)
		assert.Equal(t, 0.25, cfg.TracesSampleRatio)
		assert.Equal(t, OTelExporterNone, cfg.MetricsExporter)
		assert.Equal(t, "tracecontext", cfg.Propagators)
	})

	t.Run("out of range sample ratio falls back to always", func(t *testing.T) {
		for _, raw := range []string{"1.5", "-0.1", "half"} {
			clearOTelEnv(t)
			t.Setenv("OTEL_TRACES_SAMPLE_RATIO", raw)
			assert.Equal(t, 1.0, OTelConfigFromEnv().TracesSampleRatio, raw)
		}
	})
}

func TestNewPropagator(t *testing.T) {
	t.Run("defaults carry jaeger headers", func(t *testing.T) {
		prop, err := newPropagator(OTelConfig{Propagators: OTelDefaultPropagators})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage", "uber-trace-id"}, prop.Fields())
	})

	t.Run("blank entries are ignored", func(t *testing.T) {
		prop, err := newPropagator(OTelConfig{Propagators: " tracecontext, ,"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"traceparent", "tracestate"}, prop.Fields())
	})

	t.Run("unknown propagator", func(t *testing.T) {
		_, err := newPropagator(OTelConfig{Propagators: "tracecontext,b3"})
		assert.ErrorContains(t, err, `"b3"`)
	})
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		raw      string
		insecure bool
		want     string
	}{
		{"otel-collector:4317", true, "http://otel-collector:4317"},
		{"10.0.0.5:4317", false, "https://10.0.0.5:4317"},
		{"https://collector.example.com", true, "https://collector.example.com"},
		{"http://localhost:4318", false, "http://localhost:4318"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, endpointURL(tt.raw, tt.insecure), tt.raw)
	}
}

func TestSetupOTelSDKWithConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("no exporters", func(t *testing.T) {
		clearOTelEnv(t)

		shutdown, err := SetupOTelSDK(ctx)
		require.NoError(t, err)
		require.NotNil(t, shutdown)
		assert.NoError(t, shutdown(ctx))
		assert.NoError(t, shutdown(ctx))
	})

	t.Run("bare ip endpoint for traces", func(t *testing.T) {
		shutdown, err := SetupOTelSDKWithConfig(ctx, OTelConfig{
			ServiceName:       "lfx-v2-subscriber-sync",
			Protocol:          OTelProtocolGRPC,
			Endpoint:          "127.0.0.1:4317",
			Insecure:          true,
			TracesExporter:    OTelExporterOTLP,
			TracesSampleRatio: 1.0,
			MetricsExporter:   OTelExporterNone,
			LogsExporter:      OTelExporterNone,
			Propagators:       "tracecontext,baggage",
		})
		require.NoError(t, err)
		_ = shutdown(ctx)
	})

	t.Run("bad propagator fails setup", func(t *testing.T) {
		shutdown, err := SetupOTelSDKWithConfig(ctx, OTelConfig{Propagators: "xray"})
		assert.Error(t, err)
		require.NotNil(t, shutdown)
	})
}
