package redaction

import (
	"errors"
	"regexp"
)

// Rule declares a placeholder pattern that marks a value as withheld.
type Rule struct {
	Name    string `yaml:"name" json:"name"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// Config bundles all rule definitions for a Scanner.
type Config struct {
	Rules []Rule
}

// Finding captures the rule that matched a value.
type Finding struct {
	Rule  string
	Match string
}

// Scanner tests values against compiled placeholder rules. It is immutable and
// safe for concurrent use.
type Scanner struct {
	rules []compiledRule
}

// ErrNoRules is returned when a scanner is requested without any rule.
var ErrNoRules = errors.New("redaction: at least one rule is required")

type compiledRule struct {
	name string
	expr *regexp.Regexp
}
