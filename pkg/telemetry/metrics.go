package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// OutcomeOK labels a parse that produced a record.
const OutcomeOK = "ok"

var (
	metricsOnce         sync.Once
	metricsInitErr      error
	parseCounter        metric.Int64Counter
	parseWarningCounter metric.Int64Counter
	rateLimitedCounter  metric.Int64Counter
	parseLatency        metric.Float64Histogram
	parseLines          metric.Int64Histogram
	parseConfidence     metric.Float64Histogram
)

// ParseMetrics captures the fields recorded for one parse call.
type ParseMetrics struct {
	Dialect     string
	Outcome     string
	Duration    time.Duration
	Lines       int
	Confidence  float64
	Warnings    []string
	RateLimited bool
}

// RecordParse emits the counters and histograms describing one parse. It is a
// no-op against the default global meter provider.
func RecordParse(ctx context.Context, m ParseMetrics) {
	if err := ensureMetrics(); err != nil {
		return
	}

	outcome := m.Outcome
	if outcome == "" {
		outcome = OutcomeOK
	}
	attrs := metric.WithAttributes(
		attribute.String("whois.dialect", m.Dialect),
		attribute.String("whois.outcome", outcome),
	)

	parseCounter.Add(ctx, 1, attrs)
	if m.Duration > 0 {
		parseLatency.Record(ctx, float64(m.Duration)/float64(time.Millisecond), attrs)
	}
	if outcome != OutcomeOK {
		return
	}

	dialect := metric.WithAttributes(attribute.String("whois.dialect", m.Dialect))
	parseLines.Record(ctx, int64(m.Lines), dialect)
	parseConfidence.Record(ctx, m.Confidence, dialect)
	for _, code := range m.Warnings {
		parseWarningCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("whois.warning", code)))
	}
	if m.RateLimited {
		rateLimitedCounter.Add(ctx, 1)
	}
}

// AnnotateSpan attaches the parse outcome to span without recording any input text.
func AnnotateSpan(span trace.Span, m ParseMetrics) {
	if span == nil || !span.IsRecording() {
		return
	}
	outcome := m.Outcome
	if outcome == "" {
		outcome = OutcomeOK
	}
	span.SetAttributes(
		attribute.String("whois.dialect", m.Dialect),
		attribute.String("whois.outcome", outcome),
		attribute.Int("whois.lines", m.Lines),
		attribute.Float64("whois.confidence", m.Confidence),
		attribute.Int("whois.warnings.count", len(m.Warnings)),
		attribute.Bool("whois.rate_limited", m.RateLimited),
	)
}

func ensureMetrics() error {
	metricsOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter(InstrumentationName)

		parseCounter, metricsInitErr = meter.Int64Counter(
			"whois.parse.calls",
			metric.WithDescription("Parse calls partitioned by dialect and outcome"),
			metric.WithUnit("{call}"),
		)
		if metricsInitErr != nil {
			return
		}

		parseWarningCounter, metricsInitErr = meter.Int64Counter(
			"whois.parse.warnings",
			metric.WithDescription("Partial-parse warnings by code"),
			metric.WithUnit("{warning}"),
		)
		if metricsInitErr != nil {
			return
		}

		rateLimitedCounter, metricsInitErr = meter.Int64Counter(
			"whois.parse.rate_limited",
			metric.WithDescription("Records that carried a registry rate-limit notice"),
			metric.WithUnit("{record}"),
		)
		if metricsInitErr != nil {
			return
		}

		parseLatency, metricsInitErr = meter.Float64Histogram(
			"whois.parse.duration",
			metric.WithDescription("Observed parse latency"),
			metric.WithUnit("ms"),
		)
		if metricsInitErr != nil {
			return
		}

		parseLines, metricsInitErr = meter.Int64Histogram(
			"whois.parse.lines",
			metric.WithDescription("Content lines per parsed record"),
			metric.WithUnit("{line}"),
		)
		if metricsInitErr != nil {
			return
		}

		parseConfidence, metricsInitErr = meter.Float64Histogram(
			"whois.parse.confidence",
			metric.WithDescription("Share of content lines classified into canonical fields"),
			metric.WithExplicitBucketBoundaries(0, 0.25, 0.5, 0.75, 0.9, 1),
		)
	})

	return metricsInitErr
}
