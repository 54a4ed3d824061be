// Package whois turns raw WHOIS response text into a normalized DomainRecord.
//
// A parse runs strictly forward through decoding, line normalization, dialect
// detection, field extraction, key resolution, value normalization and record
// assembly. Only invalid input and undecodable bytes fail a parse; every other
// anomaly becomes a warning on the record.
package whois

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/polisai/polis-whois/pkg/domain"
	"github.com/polisai/polis-whois/pkg/telemetry"
)

// Size caps applied when no option overrides them.
const (
	DefaultMaxInputBytes = 4 << 20
	DefaultMaxLines      = 100_000
)

// Parser parses WHOIS text. It is safe for concurrent use; each call works on
// its own data and reads one immutable Tables snapshot.
type Parser struct {
	tables  atomic.Pointer[Tables]
	logger  zerolog.Logger
	limits  limits
	charset *Charset
	keepRaw bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithTables replaces the builtin tables.
func WithTables(t *Tables) Option {
	return func(p *Parser) {
		if t != nil {
			p.tables.Store(t)
		}
	}
}

// WithLogger sets the debug logger. The default discards everything.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Parser) { p.logger = logger }
}

// WithMaxInputBytes caps the input size. Zero or less disables the cap.
func WithMaxInputBytes(n int) Option {
	return func(p *Parser) { p.limits.maxBytes = n }
}

// WithMaxLines caps the physical line count. Zero or less disables the cap.
func WithMaxLines(n int) Option {
	return func(p *Parser) { p.limits.maxLines = n }
}

// WithCharset accepts non-UTF-8 input by decoding it from c.
func WithCharset(c Charset) Option {
	return func(p *Parser) {
		if c.Encoding != nil {
			p.charset = &c
		}
	}
}

// WithRawText echoes the decoded input on every record.
func WithRawText(keep bool) Option {
	return func(p *Parser) { p.keepRaw = keep }
}

// New returns a Parser over DefaultTables unless WithTables is given.
func New(opts ...Option) *Parser {
	p := &Parser{
		logger: zerolog.Nop(),
		limits: limits{maxBytes: DefaultMaxInputBytes, maxLines: DefaultMaxLines},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.tables.Load() == nil {
		p.tables.Store(DefaultTables())
	}
	return p
}

// Tables returns the snapshot the next parse will use.
func (p *Parser) Tables() *Tables {
	return p.tables.Load()
}

// SetTables swaps the tables for subsequent parses. In-flight parses finish on
// the snapshot they started with.
func (p *Parser) SetTables(t *Tables) {
	if t != nil {
		p.tables.Store(t)
	}
}

// Parse converts one WHOIS response into a DomainRecord. It fails only with
// domain.ErrInvalidInput or domain.ErrEncoding (or ctx's error).
func (p *Parser) Parse(ctx context.Context, text string) (domain.DomainRecord, error) {
	start := time.Now()
	ctx, span := telemetry.Tracer().Start(ctx, "whois.Parse",
		trace.WithAttributes(attribute.Int("whois.input.bytes", len(text))))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return domain.DomainRecord{}, err
	}

	rec, err := p.parse(text)
	m := telemetry.ParseMetrics{Duration: time.Since(start)}
	if err != nil {
		m.Outcome = domain.ErrorCode(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, m.Outcome)
		telemetry.AnnotateSpan(span, m)
		telemetry.RecordParse(ctx, m)
		p.logger.Debug().Err(err).Str("code", m.Outcome).Msg("whois input rejected")
		return domain.DomainRecord{}, err
	}

	m.Dialect = string(rec.Meta.Dialect)
	m.Lines = rec.Meta.TotalLines
	m.Confidence = rec.Meta.Confidence
	m.RateLimited = rec.Meta.RateLimited
	for _, w := range rec.Meta.Warnings {
		m.Warnings = append(m.Warnings, w.Code)
	}
	telemetry.AnnotateSpan(span, m)
	telemetry.RecordParse(ctx, m)

	p.logger.Debug().
		Str("dialect", m.Dialect).
		Float64("confidence", m.Confidence).
		Int("lines", rec.Meta.TotalLines).
		Int("unparsed", rec.Meta.UnparsedLines).
		Int("warnings", len(rec.Meta.Warnings)).
		Dur("elapsed", m.Duration).
		Msg("whois record parsed")

	return rec, nil
}

func (p *Parser) parse(text string) (domain.DomainRecord, error) {
	tables := p.tables.Load()

	raw, err := decode(text, p.limits, p.charset)
	if err != nil {
		return domain.DomainRecord{}, err
	}

	lines := NormalizeLines(raw.Text)
	det := Detect(lines)
	ext := Extract(lines, det.Dialect, raw.Text, tables.isSectionHeader)
	rec := assemble(raw, lines, det, ext, tables)
	if p.keepRaw {
		rec.RawText = raw.Text
	}
	return rec, nil
}
