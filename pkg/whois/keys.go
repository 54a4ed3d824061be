package whois

import (
	"fmt"
	"sort"
	"strings"

	"github.com/polisai/polis-whois/pkg/aliases"
	"github.com/polisai/polis-whois/pkg/dates"
	"github.com/polisai/polis-whois/pkg/domain"
	"github.com/polisai/polis-whois/pkg/redaction"
)

// DefaultRateLimitMarkers are notices registries print instead of a record when
// a client queries too fast.
var DefaultRateLimitMarkers = []string{
	"WHOIS LIMIT EXCEEDED - SEE WWW.PIR.ORG/WHOIS FOR DETAILS",
	"Your access is too fast,please try again later.",
	"Your connection limit exceeded.",
	"Number of allowed queries exceeded.",
	"WHOIS LIMIT EXCEEDED",
	"Requests of this client are not permitted.",
	"Too many connection attempts. Please try again in a few seconds.",
	"We are unable to process your request at this time.",
	"HTTP/1.1 400 Bad Request",
	"Closing connections because of Timeout",
	"Access to whois service at whois.isoc.org.il was **DENIED**",
	"IP Address Has Reached Rate Limit",
}

// Tables is the read-only data a parse consults. A Tables value is never
// mutated after construction; reloads build a new one.
type Tables struct {
	Aliases          *aliases.Table
	Dates            *dates.Parser
	Redaction        *redaction.Scanner
	RateLimitMarkers []string
}

// TableOverrides extends the builtin tables. It is the shape of the YAML table
// file.
type TableOverrides struct {
	// Aliases maps a canonical field tag to extra raw key spellings.
	Aliases           map[string][]string `yaml:"aliases" json:"aliases"`
	RedactionPatterns []string            `yaml:"redaction_patterns" json:"redaction_patterns"`
	DateLayouts       []string            `yaml:"date_layouts" json:"date_layouts"`
	RateLimitMarkers  []string            `yaml:"rate_limit_markers" json:"rate_limit_markers"`

	// DisabledRedactionRules names builtin placeholder rules to turn off.
	DisabledRedactionRules []string `yaml:"disabled_redaction_rules" json:"disabled_redaction_rules"`
}

// DefaultTables returns the builtin tables.
func DefaultTables() *Tables {
	t, err := NewTables(TableOverrides{})
	if err != nil {
		panic(fmt.Sprintf("whois: builtin tables: %v", err))
	}
	return t
}

// NewTables builds tables from the builtins plus overrides.
func NewTables(o TableOverrides) (*Tables, error) {
	fields := make([]string, 0, len(o.Aliases))
	for f := range o.Aliases {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var rows []aliases.Alias
	for _, f := range fields {
		for _, raw := range o.Aliases[f] {
			rows = append(rows, aliases.Alias{Raw: raw, Field: domain.Field(f)})
		}
	}
	table, err := aliases.Builtin().With(rows...)
	if err != nil {
		return nil, fmt.Errorf("alias table: %w", err)
	}

	base, err := redaction.DefaultConfigWithout(o.DisabledRedactionRules...)
	if err != nil {
		return nil, fmt.Errorf("redaction patterns: %w", err)
	}
	scanner, err := redaction.NewScanner(base.With(o.RedactionPatterns...))
	if err != nil {
		return nil, fmt.Errorf("redaction patterns: %w", err)
	}

	markers := make([]string, 0, len(DefaultRateLimitMarkers)+len(o.RateLimitMarkers))
	markers = append(markers, DefaultRateLimitMarkers...)
	for _, m := range o.RateLimitMarkers {
		if strings.TrimSpace(m) != "" {
			markers = append(markers, m)
		}
	}

	return &Tables{
		Aliases:          table,
		Dates:            dates.NewParser(o.DateLayouts...),
		Redaction:        scanner,
		RateLimitMarkers: markers,
	}, nil
}

// resolve maps a raw field onto its canonical tag. unresolved is set for a
// generic contact key whose section names no role.
func (t *Tables) resolve(rf domain.RawField) (field domain.Field, ok, unresolved bool) {
	field, ok = t.Aliases.Resolve(rf.Key, rf.Section)
	if ok {
		return field, true, false
	}
	return field, false, field != ""
}

// isSectionHeader reports whether an empty-valued key opens a section. Empty
// contact attributes ("Registrant Fax:") are plain empty values.
func (t *Tables) isSectionHeader(key string) bool {
	f, ok := t.Aliases.Lookup(key)
	if !ok {
		return true
	}
	_, attr, isContact := f.Contact()
	return !isContact || attr == domain.AttrNone || attr == domain.AttrID
}

// rateLimited reports whether text carries a rate-limit notice.
func (t *Tables) rateLimited(text string) bool {
	for _, m := range t.RateLimitMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
