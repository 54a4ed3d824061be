package whois

import (
	"fmt"
	"strings"
	"time"

	"github.com/polisai/polis-whois/pkg/dates"
	"github.com/polisai/polis-whois/pkg/domain"
)

// assembler folds resolved raw fields into one record. It owns the record
// until finish returns it.
type assembler struct {
	tables     *Tables
	rec        domain.DomainRecord
	demoted    map[domain.Field]bool
	hosts      map[string]int
	statuses   map[string]struct{}
	classified int
}

func newAssembler(tables *Tables) *assembler {
	return &assembler{
		tables:   tables,
		demoted:  map[domain.Field]bool{},
		hosts:    map[string]int{},
		statuses: map[string]struct{}{},
	}
}

// assemble merges the extraction into a DomainRecord and attaches diagnostics.
// It never fails.
func assemble(raw domain.RawRecord, lines []domain.Line, det Detection, ext Extraction, tables *Tables) domain.DomainRecord {
	a := newAssembler(tables)
	for _, rf := range ext.Fields {
		a.add(rf)
	}
	return a.finish(raw, len(lines), det.Dialect, ext.Unparsed)
}

func (a *assembler) add(rf domain.RawField) {
	field, ok, unresolved := a.tables.resolve(rf)
	if !ok {
		if unresolved {
			a.warn(domain.WarnUnresolvedRole, field, rf.Key, lineAt(rf, 0),
				fmt.Sprintf("section %q names no contact role", rf.Section))
			a.extra(SectionKey(rf.Section, rf.Key), rf.Values...)
			return
		}
		a.extra(rf.Key, rf.Values...)
		return
	}

	a.classified += len(rf.Lines)
	for i, v := range rf.Values {
		a.apply(field, rf.Key, strings.TrimSpace(v), lineAt(rf, i))
	}
}

func (a *assembler) apply(field domain.Field, key, value string, line int) {
	if role, attr, isContact := field.Contact(); isContact {
		a.applyContact(role, attr, key, value, line)
		return
	}
	if value == "" {
		return
	}
	if finding, redacted := a.tables.Redaction.Match(value); redacted {
		a.warn(domain.WarnRedactedValue, field, key, line, "placeholder matched rule "+finding.Rule)
		return
	}

	switch field {
	case domain.FieldDomain:
		a.setOnce(&a.rec.Domain, field, key, normalizeDomain(value), line)
	case domain.FieldRegistrar:
		a.setOnce(&a.rec.Registrar, field, key, value, line)
	case domain.FieldRegistrarURL:
		a.setOnce(&a.rec.RegistrarURL, field, key, value, line)
	case domain.FieldRegistrarIANAID:
		a.setOnce(&a.rec.RegistrarIANAID, field, key, value, line)
	case domain.FieldRegistryDomainID:
		a.setOnce(&a.rec.RegistryDomainID, field, key, value, line)
	case domain.FieldWhoisServer:
		a.setOnce(&a.rec.WhoisServer, field, key, strings.ToLower(value), line)
	case domain.FieldCreationDate:
		a.applyDate(&a.rec.CreationDate, field, key, value, line)
	case domain.FieldUpdatedDate:
		a.applyDate(&a.rec.UpdatedDate, field, key, value, line)
	case domain.FieldExpirationDate:
		a.applyDate(&a.rec.ExpirationDate, field, key, value, line)
	case domain.FieldNameServers:
		servers := parseNameServers(value)
		if len(servers) == 0 {
			a.extra(key, value)
			a.warn(domain.WarnNoNameServer, field, key, line, fmt.Sprintf("no host name in %q", value))
		}
		for _, ns := range servers {
			a.addNameServer(ns)
		}
	case domain.FieldStatus:
		for _, s := range normalizeStatus(value) {
			if _, seen := a.statuses[s]; seen {
				continue
			}
			a.statuses[s] = struct{}{}
			a.rec.Status = append(a.rec.Status, s)
			if !IsEPPStatus(s) {
				a.rec.Meta.NonEPPStatus = append(a.rec.Meta.NonEPPStatus, s)
			}
		}
	case domain.FieldDNSSEC:
		a.applyDNSSEC(key, value, line)
	}
}

func (a *assembler) applyContact(role domain.Role, attr domain.Attr, key, value string, line int) {
	block := a.contact(role)
	if value == "" {
		return
	}
	if a.tables.Redaction.IsRedacted(value) {
		block.Redacted = true
		return
	}

	field := domain.ContactField(role, attr)
	switch attr {
	case domain.AttrNone, domain.AttrName:
		a.setOnce(&block.Name, field, key, value, line)
	case domain.AttrID:
		a.setOnce(&block.ID, field, key, value, line)
	case domain.AttrOrganization:
		a.setOnce(&block.Organization, field, key, value, line)
	case domain.AttrStreet:
		block.Street = append(block.Street, value)
	case domain.AttrCity:
		a.setOnce(&block.City, field, key, value, line)
	case domain.AttrState:
		a.setOnce(&block.State, field, key, value, line)
	case domain.AttrPostalCode:
		a.setOnce(&block.PostalCode, field, key, value, line)
	case domain.AttrCountry:
		a.setOnce(&block.Country, field, key, value, line)
	case domain.AttrEmail:
		a.setOnce(&block.Email, field, key, value, line)
	case domain.AttrPhone:
		a.setOnce(&block.Phone, field, key, value, line)
	case domain.AttrFax:
		a.setOnce(&block.Fax, field, key, value, line)
	}
}

func (a *assembler) contact(role domain.Role) *domain.ContactBlock {
	slot := a.contactSlot(role)
	if slot == nil {
		// resolved fields always carry a concrete role
		return &domain.ContactBlock{}
	}
	if *slot == nil {
		*slot = &domain.ContactBlock{}
	}
	return *slot
}

func (a *assembler) contactSlot(role domain.Role) **domain.ContactBlock {
	switch role {
	case domain.RoleRegistrant:
		return &a.rec.Registrant
	case domain.RoleAdmin:
		return &a.rec.Admin
	case domain.RoleTech:
		return &a.rec.Tech
	case domain.RoleBilling:
		return &a.rec.Billing
	case domain.RoleAbuse:
		return &a.rec.Abuse
	}
	return nil
}

// setOnce keeps the first value of a single-valued field.
func (a *assembler) setOnce(dst *string, field domain.Field, key, value string, line int) {
	if value == "" {
		return
	}
	if *dst == "" {
		*dst = value
		return
	}
	if !strings.EqualFold(*dst, value) {
		a.warn(domain.WarnDuplicateValue, field, key, line,
			fmt.Sprintf("kept %q, ignored %q", *dst, value))
	}
}

// applyDate parses a timestamp. The first unparsable value demotes the field:
// it and every later value for it go to extras and the canonical date stays
// unset.
func (a *assembler) applyDate(dst **time.Time, field domain.Field, key, value string, line int) {
	if a.demoted[field] {
		a.extra(key, value)
		return
	}

	t, err := a.tables.Dates.Parse(value)
	switch {
	case err != nil && *dst == nil:
		a.demoted[field] = true
		a.extra(key, value)
		a.rec.Meta.UnparsedDates = append(a.rec.Meta.UnparsedDates, field)
		a.warn(domain.WarnUnparsedDate, field, key, line, fmt.Sprintf("no layout matched %q", value))
	case err != nil:
		a.extra(key, value)
		a.warn(domain.WarnUnparsedDate, field, key, line,
			fmt.Sprintf("kept %q in extras, %s already set", value, field))
	case *dst == nil:
		*dst = &t
	case !(*dst).Equal(t):
		a.warn(domain.WarnDuplicateValue, field, key, line,
			fmt.Sprintf("kept %s, ignored %s", dates.Format(**dst), dates.Format(t)))
	}
}

func (a *assembler) applyDNSSEC(key, value string, line int) {
	field := domain.FieldDNSSEC
	if a.demoted[field] {
		a.extra(key, value)
		return
	}

	signed, ok := parseDNSSEC(value)
	switch {
	case !ok && a.rec.DNSSEC == nil:
		a.demoted[field] = true
		a.extra(key, value)
		a.warn(domain.WarnUnknownDNSSEC, field, key, line, fmt.Sprintf("unrecognized DNSSEC value %q", value))
	case !ok:
		a.extra(key, value)
		a.warn(domain.WarnUnknownDNSSEC, field, key, line, fmt.Sprintf("kept %q in extras, dnssec already set", value))
	case a.rec.DNSSEC == nil:
		a.rec.DNSSEC = &signed
	case *a.rec.DNSSEC != signed:
		a.warn(domain.WarnDuplicateValue, field, key, line, fmt.Sprintf("kept %t, ignored %t", *a.rec.DNSSEC, signed))
	}
}

func (a *assembler) addNameServer(ns domain.NameServer) {
	i, seen := a.hosts[ns.Host]
	if !seen {
		a.hosts[ns.Host] = len(a.rec.NameServers)
		a.rec.NameServers = append(a.rec.NameServers, ns)
		return
	}
	existing := &a.rec.NameServers[i]
	for _, addr := range ns.Addresses {
		dup := false
		for _, have := range existing.Addresses {
			if have == addr {
				dup = true
				break
			}
		}
		if !dup {
			existing.Addresses = append(existing.Addresses, addr)
		}
	}
}

func (a *assembler) extra(key string, values ...string) {
	if a.rec.Extras == nil {
		a.rec.Extras = map[string][]string{}
	}
	a.rec.Extras[key] = append(a.rec.Extras[key], values...)
}

func (a *assembler) warn(code string, field domain.Field, key string, line int, msg string) {
	a.rec.Meta.Warnings = append(a.rec.Meta.Warnings, domain.Warning{
		Code:    code,
		Field:   field,
		Key:     key,
		Line:    line,
		Message: msg,
	})
}

func (a *assembler) finish(raw domain.RawRecord, total int, dialect domain.Dialect, unparsed int) domain.DomainRecord {
	meta := &a.rec.Meta
	meta.Dialect = dialect
	meta.TotalLines = total
	meta.UnparsedLines = unparsed
	meta.Encoding = raw.Encoding
	meta.RateLimited = a.tables.rateLimited(raw.Text)

	if dialect.Structured() && total > 0 {
		meta.Confidence = float64(a.classified) / float64(total)
		if meta.Confidence > 1 {
			meta.Confidence = 1
		}
	}
	// Nothing recognized: keep the whole input so unsplittable lines are not lost.
	if dialect.Structured() && a.classified == 0 {
		a.extra(RawTextKey, raw.Text)
	}
	if dialect == domain.DialectUnknown {
		a.warn(domain.WarnUnknownDialect, "", "", 0, "no structure detected; input kept under "+RawTextKey)
	}

	meta.Redacted = map[domain.Role]bool{}
	for _, role := range domain.Roles {
		if block := a.rec.Contact(role); block != nil {
			meta.Redacted[role] = block.Redacted
		}
	}

	return a.rec
}

func lineAt(rf domain.RawField, i int) int {
	if i < len(rf.Lines) {
		return rf.Lines[i]
	}
	if len(rf.Lines) > 0 {
		return rf.Lines[0]
	}
	return 0
}
