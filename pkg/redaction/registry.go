package redaction

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Registry is a named catalog of placeholder rules kept in registration order.
// Names are case-insensitive; registering an existing name replaces its pattern
// in place.
type Registry struct {
	mu    sync.RWMutex
	order []string
	rules map[string]Rule
}

// NewRegistry returns an empty catalog.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

func ruleKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds rule, or replaces the rule of the same name. The pattern must
// compile.
func (r *Registry) Register(rule Rule) error {
	key := ruleKey(rule.Name)
	if key == "" {
		return fmt.Errorf("redaction: rule name is required")
	}
	if strings.TrimSpace(rule.Pattern) == "" {
		return fmt.Errorf("redaction: rule %s has no pattern", rule.Name)
	}
	if _, err := regexp.Compile(rule.Pattern); err != nil {
		return fmt.Errorf("redaction: rule %s: %w", rule.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[key]; !exists {
		r.order = append(r.order, key)
	}
	r.rules[key] = rule
	return nil
}

// Resolve looks a rule up by name.
func (r *Registry) Resolve(name string) (Rule, bool) {
	key := ruleKey(name)
	if key == "" {
		return Rule{}, false
	}

	r.mu.RLock()
	rule, ok := r.rules[key]
	r.mu.RUnlock()
	return rule, ok
}

// Rules returns a snapshot of the catalog in registration order.
func (r *Registry) Rules() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Rule, len(r.order))
	for i, key := range r.order {
		out[i] = r.rules[key]
	}
	return out
}

// Without returns the catalog minus the named rules. Naming a rule that is not
// registered is an error so a typo in a table file does not pass silently.
func (r *Registry) Without(names ...string) ([]Rule, error) {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := r.Resolve(name); !ok {
			return nil, fmt.Errorf("redaction: unknown rule %q", name)
		}
		drop[ruleKey(name)] = struct{}{}
	}

	all := r.Rules()
	out := all[:0]
	for _, rule := range all {
		if _, skip := drop[ruleKey(rule.Name)]; !skip {
			out = append(out, rule)
		}
	}
	return out, nil
}

var (
	builtinRegistry     *Registry
	builtinRegistryOnce sync.Once
)

// GlobalRegistry returns the process-wide catalog of builtin placeholders.
func GlobalRegistry() *Registry {
	builtinRegistryOnce.Do(func() {
		builtinRegistry = NewRegistry()
		for _, rule := range builtinRules {
			if err := builtinRegistry.Register(rule); err != nil {
				panic(err)
			}
		}
	})
	return builtinRegistry
}

// builtinRules are the placeholders gTLD registrars print for withheld
// registration data plus common ccTLD privacy wording.
var builtinRules = []Rule{
	{Name: "redacted", Pattern: `(?i)\bredacted\b`},
	{Name: "not-disclosed", Pattern: `(?i)\bnot\s+disclosed\b`},
	{Name: "data-protected", Pattern: `(?i)\bdata\s+protected\b`},
	{Name: "gdpr", Pattern: `(?i)\bgdpr\b`},
	{Name: "withheld", Pattern: `(?i)\bwithheld\b`},
	{Name: "non-public", Pattern: `(?i)\bnon-public\s+data\b`},
	{Name: "rdds", Pattern: `(?i)query\s+the\s+rdds\s+service`},
	{Name: "request-form", Pattern: `(?i)select\s+request\s+email\s+form`},
	{Name: "privacy-protected", Pattern: `(?i)\bprivacy\s+protected\b`},
	{Name: "statutory-masking", Pattern: `(?i)statutory\s+masking`},
	{Name: "hidden-on-request", Pattern: `(?i)hidden\s+upon\s+user\s+request`},
}
