package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisai/polis-whois/internal/governance"
	"github.com/polisai/polis-whois/pkg/config"
	"github.com/polisai/polis-whois/pkg/telemetry"
	"github.com/polisai/polis-whois/pkg/whois"
)

const record = "Domain Name: EXAMPLE.COM\nRegistrar: Example Registrar\nName Server: ns1.example.com\n"

type envelope struct {
	Result map[string]any `json:"result"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/parse", strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestParseEndpoint_Success(t *testing.T) {
	h := NewHandler(Options{Parser: whois.New(), Logger: zerolog.Nop()})

	rec, env := post(t, h, record)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
	require.NotNil(t, env.Result)
	assert.Nil(t, env.Error)
	assert.Equal(t, "example.com", env.Result["domain"])
	assert.Equal(t, "Example Registrar", env.Result["registrar"])
}

func TestParseEndpoint_StatusMapping(t *testing.T) {
	h := NewHandler(Options{Parser: whois.New(), Logger: zerolog.Nop(), MaxBodyBytes: 64})

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty", "", http.StatusBadRequest, "invalid_input"},
		{"nul byte", "Domain: a\x00", http.StatusUnprocessableEntity, "encoding"},
		{"invalid utf8", "Domain: caf\xe9", http.StatusUnprocessableEntity, "encoding"},
		{"too large", strings.Repeat("x", 65), http.StatusRequestEntityTooLarge, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := post(t, h, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Nil(t, env.Result)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestParseEndpoint_RateLimited(t *testing.T) {
	limiter := governance.NewRateLimiter(governance.RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 1})
	h := NewHandler(Options{Parser: whois.New(), Limiter: limiter, Logger: zerolog.Nop()})

	rec, _ := post(t, h, record)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec, env := post(t, h, record)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, CodeRateLimited, env.Error.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRequestIDIsPropagated(t *testing.T) {
	h := NewHandler(Options{Logger: zerolog.Nop()})
	id := uuid.New().String()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestRoutes(t *testing.T) {
	h := NewHandler(Options{Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/parse", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ctx := context.Background()
	mon, err := telemetry.NewMonitoring(ctx, telemetry.Config{ServiceName: "polis-whois-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mon.Shutdown(ctx) })

	h := NewHandler(Options{Parser: whois.New(), Metrics: mon, Logger: zerolog.Nop()})
	post(t, h, record)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `whois_http_requests_total{endpoint="parse",method="POST",status_code="200"} 1`)
}

func TestServer_RunShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := New(config.ServerConfig{Address: ln.Addr().String(), ShutdownTimeout: time.Second},
		NewHandler(Options{Logger: zerolog.Nop()}), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
