// Package server exposes the parser over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/polisai/polis-whois/internal/governance"
	"github.com/polisai/polis-whois/pkg/domain"
	"github.com/polisai/polis-whois/pkg/export"
	"github.com/polisai/polis-whois/pkg/whois"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// CodeRateLimited is the envelope error code for throttled requests.
const CodeRateLimited = "rate_limited"

// Metrics is the HTTP instrumentation the handler reports through.
// *telemetry.Monitoring satisfies it.
type Metrics interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

// Options configures the HTTP handler.
type Options struct {
	Parser  *whois.Parser
	Limiter *governance.RateLimiter
	Metrics Metrics
	Logger  zerolog.Logger
	// MaxBodyBytes caps request bodies. Zero or less uses whois.DefaultMaxInputBytes.
	MaxBodyBytes int64
}

type requestIDKey struct{}

// RequestIDFromContext returns the request ID stored by the handler.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NewHandler builds the routed, instrumented handler.
func NewHandler(opts Options) http.Handler {
	if opts.Parser == nil {
		opts.Parser = whois.New()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = whois.DefaultMaxInputBytes
	}

	h := &parseHandler{opts: opts}
	mux := http.NewServeMux()
	mux.Handle("POST /v1/parse", h)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	if opts.Metrics != nil {
		handler = opts.Metrics.Middleware(handler)
	}
	handler = otelhttp.NewHandler(handler, "whois.server")
	return withRequestID(handler)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type parseHandler struct {
	opts Options
}

func (h *parseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger := h.opts.Logger.With().
		Str("request_id", RequestIDFromContext(r.Context())).
		Str("remote", r.RemoteAddr).
		Logger()
	pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty"))

	if h.opts.Limiter != nil {
		d := h.opts.Limiter.Take(clientKey(r))
		governance.WriteRateLimitHeaders(w, d)
		if !d.Allowed {
			logger.Warn().Msg("parse request rate limited")
			writeError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded", pretty)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, domain.CodeInvalidInput,
				fmt.Sprintf("invalid input: body exceeds %d bytes", tooLarge.Limit), pretty)
			return
		}
		logger.Warn().Err(err).Msg("failed to read request body")
		writeError(w, http.StatusBadRequest, domain.CodeInvalidInput, "invalid input: unreadable body", pretty)
		return
	}

	payload, err := export.ParseJSON(r.Context(), h.opts.Parser, string(body), pretty)
	status := statusFor(err)
	if err != nil {
		logger.Debug().Err(err).Int("status", status).Msg("parse request failed")
	} else {
		logger.Debug().Int("bytes", len(body)).Dur("elapsed", time.Since(start)).Msg("parse request served")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// statusFor maps a boundary error onto an HTTP status.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch domain.ErrorCode(err) {
	case domain.CodeInvalidInput:
		return http.StatusBadRequest
	case domain.CodeEncoding:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, code, message string, pretty bool) {
	payload, err := export.MarshalEnvelope(export.Envelope{Error: &export.ErrorBody{Code: code, Message: message}}, pretty)
	if err != nil {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
