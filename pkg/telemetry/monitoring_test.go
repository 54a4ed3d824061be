package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestMonitoring_ExportsParseAndHTTPMetrics(t *testing.T) {
	ctx := context.Background()
	mon, err := NewMonitoring(ctx, Config{ServiceName: "polis-whois-test"})
	require.NoError(t, err)

	prev := otel.GetMeterProvider()
	mon.SetAsGlobal()
	ResetMetricsForTest()
	t.Cleanup(func() {
		otel.SetMeterProvider(prev)
		ResetMetricsForTest()
		_ = mon.Shutdown(ctx)
	})

	RecordParse(ctx, ParseMetrics{Dialect: "key_colon", Lines: 6, Confidence: 1})
	mon.RecordTablesReload("success")

	mux := http.NewServeMux()
	mux.Handle("/metrics", mon.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mon.Middleware(mux))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "whois_parse_calls")
	assert.Contains(t, text, "whois_table_reloads_total")
	assert.Contains(t, text, `whois_http_requests_total{endpoint="health",method="GET",status_code="204"} 1`)
}

func TestEndpointName(t *testing.T) {
	assert.Equal(t, "parse", endpointName("/v1/parse"))
	assert.Equal(t, "metrics", endpointName("/metrics"))
	assert.Equal(t, "unknown", endpointName("/v1/parse/extra"))
}
