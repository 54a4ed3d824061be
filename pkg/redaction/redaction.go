// Package redaction recognizes the privacy placeholders registries substitute
// for withheld contact data ("REDACTED FOR PRIVACY", "Not Disclosed", ...).
package redaction

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultConfig returns the builtin placeholder rules in registration order.
func DefaultConfig() Config {
	return Config{Rules: GlobalRegistry().Rules()}
}

// DefaultConfigWithout returns the builtin rules minus the named ones.
func DefaultConfigWithout(names ...string) (Config, error) {
	rules, err := GlobalRegistry().Without(names...)
	if err != nil {
		return Config{}, err
	}
	return Config{Rules: rules}, nil
}

// With returns a copy of cfg with extra patterns appended as custom rules.
// Blank patterns are skipped.
func (cfg Config) With(patterns ...string) Config {
	rules := make([]Rule, 0, len(cfg.Rules)+len(patterns))
	rules = append(rules, cfg.Rules...)
	n := 0
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		n++
		rules = append(rules, Rule{Name: fmt.Sprintf("custom.%d", n), Pattern: p})
	}
	return Config{Rules: rules}
}

// NewScanner compiles cfg. Every rule needs a name and a valid pattern.
func NewScanner(cfg Config) (*Scanner, error) {
	if len(cfg.Rules) == 0 {
		return nil, ErrNoRules
	}

	compiled := make([]compiledRule, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return nil, fmt.Errorf("redaction: rule name is required")
		}
		pattern := strings.TrimSpace(rule.Pattern)
		if pattern == "" {
			return nil, fmt.Errorf("redaction: pattern is required for rule %s", name)
		}
		expr, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("redaction: invalid pattern for rule %s: %w", name, err)
		}
		compiled = append(compiled, compiledRule{name: name, expr: expr})
	}

	return &Scanner{rules: compiled}, nil
}

// Match reports the first rule that recognizes value as a placeholder.
func (s *Scanner) Match(value string) (Finding, bool) {
	if s == nil || strings.TrimSpace(value) == "" {
		return Finding{}, false
	}
	for _, rule := range s.rules {
		if loc := rule.expr.FindStringIndex(value); loc != nil {
			return Finding{Rule: rule.name, Match: value[loc[0]:loc[1]]}, true
		}
	}
	return Finding{}, false
}

// IsRedacted reports whether any rule matches value.
func (s *Scanner) IsRedacted(value string) bool {
	_, ok := s.Match(value)
	return ok
}

// Rules returns the rule names in evaluation order.
func (s *Scanner) Rules() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.name
	}
	return names
}
