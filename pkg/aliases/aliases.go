// Package aliases maps registry-specific WHOIS key spellings onto canonical fields.
//
// The table is pure data: onboarding a registry means appending Alias rows, never
// adding branches. A Table is immutable once built and safe for concurrent reads.
package aliases

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/polisai/polis-whois/pkg/domain"
)

// Alias declares that a raw key spelling means Field.
type Alias struct {
	Raw   string
	Field domain.Field
}

// Table is an immutable lookup from normalized key text to canonical field.
type Table struct {
	fields map[string]domain.Field
}

var listMarker = regexp.MustCompile(`^(?:[a-z0-9]{1,2}[.)]\s+)`)

// NormalizeKey folds a raw key for lookup: NFKC, lowercase, '_' and '-' read as
// spaces, list markers ("a. ") and surrounding brackets removed, trailing dots
// and colons removed, whitespace collapsed.
func NormalizeKey(raw string) string {
	key := strings.ToLower(norm.NFKC.String(raw))
	key = strings.TrimSpace(key)
	key = listMarker.ReplaceAllString(key, "")
	key = strings.TrimSpace(key)
	if strings.HasPrefix(key, "[") && strings.HasSuffix(key, "]") {
		key = key[1 : len(key)-1]
	}
	key = strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '\t':
			return ' '
		}
		return r
	}, key)
	key = strings.TrimRight(key, ".: ")
	return strings.Join(strings.Fields(key), " ")
}

// New builds a table. Rows whose normalized keys collide must agree on the field.
func New(rows ...Alias) (*Table, error) {
	t := &Table{fields: make(map[string]domain.Field, len(rows))}
	if err := t.add(rows); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) add(rows []Alias) error {
	for _, row := range rows {
		key := NormalizeKey(row.Raw)
		if key == "" {
			return fmt.Errorf("aliases: empty key for field %q", row.Field)
		}
		if !row.Field.Valid() {
			return fmt.Errorf("aliases: unknown field %q for key %q", row.Field, row.Raw)
		}
		if existing, ok := t.fields[key]; ok && existing != row.Field {
			return fmt.Errorf("aliases: key %q maps to both %q and %q", key, existing, row.Field)
		}
		t.fields[key] = row.Field
	}
	return nil
}

// With returns a new table holding t's rows plus extra. Extra rows may override
// existing mappings; t itself is not modified.
func (t *Table) With(extra ...Alias) (*Table, error) {
	next := &Table{fields: make(map[string]domain.Field, len(t.fields)+len(extra))}
	for k, v := range t.fields {
		next.fields[k] = v
	}
	for _, row := range extra {
		key := NormalizeKey(row.Raw)
		if key == "" {
			return nil, fmt.Errorf("aliases: empty key for field %q", row.Field)
		}
		if !row.Field.Valid() {
			return nil, fmt.Errorf("aliases: unknown field %q for key %q", row.Field, row.Raw)
		}
		next.fields[key] = row.Field
	}
	return next, nil
}

// Len reports the number of distinct normalized keys.
func (t *Table) Len() int {
	return len(t.fields)
}

// Lookup maps a raw key to its canonical field.
func (t *Table) Lookup(raw string) (domain.Field, bool) {
	f, ok := t.fields[NormalizeKey(raw)]
	return f, ok
}

// Resolve maps a raw key inside an optional section. Direct matches win. A
// generic contact key ("Name", "E-mail") takes its role from the section header.
// Outside any section it belongs to the registrant; inside a section that names
// no role it stays unresolved and the generic field is returned with false.
func (t *Table) Resolve(raw, section string) (domain.Field, bool) {
	f, ok := t.Lookup(raw)
	if !ok {
		return "", false
	}
	role, attr, isContact := f.Contact()
	if !isContact || role != domain.RoleGeneric {
		return f, true
	}
	sectionRole := domain.RoleRegistrant
	if section != "" {
		if sectionRole, ok = t.SectionRole(section); !ok {
			return f, false
		}
	}
	if attr == domain.AttrNone {
		attr = domain.AttrName
	}
	return domain.ContactField(sectionRole, attr), true
}

// SectionRole reports the contact role a header key opens, if any. Only bare
// role keys ("Technical Contact") and handle keys ("[Tech-C]") open a role.
func (t *Table) SectionRole(section string) (domain.Role, bool) {
	if section == "" {
		return "", false
	}
	f, ok := t.Lookup(section)
	if !ok {
		return "", false
	}
	role, attr, isContact := f.Contact()
	if !isContact || role == domain.RoleGeneric {
		return "", false
	}
	if attr != domain.AttrNone && attr != domain.AttrID {
		return "", false
	}
	return role, true
}

var (
	builtinOnce  sync.Once
	builtinTable *Table
)

// Builtin returns the process-wide table of builtin aliases.
func Builtin() *Table {
	builtinOnce.Do(func() {
		t, err := New(BuiltinRows()...)
		if err != nil {
			panic(err)
		}
		builtinTable = t
	})
	return builtinTable
}
