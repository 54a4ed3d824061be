package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func TestSetupProvider_NoEndpointIsNoop(t *testing.T) {
	shutdown, err := SetupProvider(context.Background(), Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	_, span := Tracer().Start(context.Background(), "whois.Parse")
	defer span.End()
	assert.False(t, span.SpanContext().IsSampled())
}

func TestNewResource(t *testing.T) {
	res, err := newResource(context.Background(), Config{Environment: "staging"})
	require.NoError(t, err)

	set := res.Set()
	name, ok := set.Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "polis-whois", name.AsString())

	env, ok := set.Value(attribute.Key("deployment.environment"))
	require.True(t, ok)
	assert.Equal(t, "staging", env.AsString())
}

func TestSampler(t *testing.T) {
	assert.Contains(t, sampler(0).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
}

func TestExporterOptions(t *testing.T) {
	plain := exporterOptions(Config{Endpoint: "collector:4317", Insecure: true})
	withHeaders := exporterOptions(Config{Endpoint: "collector:4317", Headers: map[string]string{"x-api-key": "k"}})
	assert.Len(t, plain, 3)
	assert.Len(t, withHeaders, 4)
}
