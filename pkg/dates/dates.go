// Package dates parses the timestamp spellings found in WHOIS records.
package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnparsed is returned when no layout matches.
var ErrUnparsed = errors.New("dates: no layout matched")

// Canonical is the output layout for every normalized timestamp.
const Canonical = time.RFC3339

// DefaultLayouts is the ordered list of layouts tried by a Parser. Order matters:
// the first successful parse wins.
var DefaultLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-Jan-2006",
	"02-Jan-2006 15:04:05 MST",
	"02-Jan-2006 15:04:05",
	"2-Jan-2006",
	"02-January-2006",
	"2006.01.02",
	"2006.01.02 15:04:05",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"02.01.2006",
	"02.01.2006 15:04:05",
	"January 2 2006",
	"January 2, 2006",
	"2 January 2006",
	time.UnixDate,
	time.RubyDate,
	time.ANSIC,
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.RFC850,
	"Mon Jan 2 2006",
	"20060102",
}

// Parser tries an ordered layout list. It is immutable and safe for concurrent use.
type Parser struct {
	layouts []string
}

// NewParser returns a parser over DefaultLayouts followed by extra layouts.
func NewParser(extra ...string) *Parser {
	layouts := make([]string, 0, len(DefaultLayouts)+len(extra))
	layouts = append(layouts, DefaultLayouts...)
	for _, l := range extra {
		if l = strings.TrimSpace(l); l != "" {
			layouts = append(layouts, l)
		}
	}
	return &Parser{layouts: layouts}
}

// Layouts returns a copy of the layout list in evaluation order.
func (p *Parser) Layouts() []string {
	out := make([]string, len(p.layouts))
	copy(out, p.layouts)
	return out
}

// Parse normalizes raw into a UTC timestamp. Zone-less values are read as UTC.
func (p *Parser) Parse(raw string) (time.Time, error) {
	value := clean(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparsed)
	}

	for _, layout := range p.layouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		if t, ok := resolveZone(t); ok {
			return t.UTC(), nil
		}
	}

	if t, ok := parseEpoch(value); ok {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsed, raw)
}

// zoneOffsets are the abbreviations registries print, in seconds east of UTC.
// CST is read as US Central.
var zoneOffsets = map[string]int{
	"EST": -5 * 3600, "EDT": -4 * 3600,
	"CST": -6 * 3600, "CDT": -5 * 3600,
	"MST": -7 * 3600, "MDT": -6 * 3600,
	"PST": -8 * 3600, "PDT": -7 * 3600,
	"WEST": 1 * 3600, "BST": 1 * 3600,
	"CET": 1 * 3600, "CEST": 2 * 3600, "MET": 1 * 3600, "MEST": 2 * 3600,
	"EET": 2 * 3600, "EEST": 3 * 3600, "MSK": 3 * 3600,
	"HKT": 8 * 3600, "SGT": 8 * 3600, "AWST": 8 * 3600,
	"JST": 9 * 3600, "KST": 9 * 3600,
	"AEST": 10 * 3600, "AEDT": 11 * 3600,
	"NZST": 12 * 3600, "NZDT": 13 * 3600,
}

// resolveZone fixes abbreviations time.Parse does not know. Those come back
// with a zero offset; a known abbreviation gets its real offset and an unknown
// one is rejected rather than read as UTC.
func resolveZone(t time.Time) (time.Time, bool) {
	name, offset := t.Zone()
	if offset != 0 {
		return t, true
	}
	switch name {
	case "", "UTC", "GMT", "UT", "Z", "WET":
		return t, true
	}
	known, ok := zoneOffsets[strings.ToUpper(name)]
	if !ok {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(),
		time.FixedZone(name, known)), true
}

// Format renders t in the canonical layout.
func Format(t time.Time) string {
	return t.UTC().Format(Canonical)
}

// clean drops decorations registries wrap around dates: a trailing "(...)" note,
// a "before"/"on" prefix, and a trailing " UTC" suffix after an ISO value.
func clean(raw string) string {
	value := strings.TrimSpace(raw)
	if i := strings.Index(value, " ("); i > 0 && strings.HasSuffix(value, ")") {
		value = strings.TrimSpace(value[:i])
	}
	for _, prefix := range []string{"before ", "on "} {
		if len(value) > len(prefix) && strings.EqualFold(value[:len(prefix)], prefix) {
			value = strings.TrimSpace(value[len(prefix):])
		}
	}
	if strings.HasSuffix(value, "Z UTC") {
		value = strings.TrimSuffix(value, " UTC")
	}
	return strings.Join(strings.Fields(value), " ")
}

// parseEpoch accepts Unix seconds. Nine or more digits keep compact
// yyyymmdd values from being read as epochs.
func parseEpoch(value string) (time.Time, bool) {
	if len(value) < 9 || len(value) > 11 {
		return time.Time{}, false
	}
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil || secs <= 0 {
		return time.Time{}, false
	}
	return time.Unix(secs, 0).UTC(), true
}
