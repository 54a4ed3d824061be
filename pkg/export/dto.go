package export

import (
	"github.com/polisai/polis-whois/pkg/dates"
	"github.com/polisai/polis-whois/pkg/domain"
)

// Record is the wire form of a domain.DomainRecord. Key names are stable.
type Record struct {
	Domain           string `json:"domain,omitempty"`
	Registrar        string `json:"registrar,omitempty"`
	RegistrarURL     string `json:"registrar_url,omitempty"`
	RegistrarIANAID  string `json:"registrar_iana_id,omitempty"`
	RegistryDomainID string `json:"registry_domain_id,omitempty"`
	WhoisServer      string `json:"whois_server,omitempty"`

	Registrant *Contact `json:"registrant,omitempty"`
	Admin      *Contact `json:"admin,omitempty"`
	Tech       *Contact `json:"tech,omitempty"`
	Billing    *Contact `json:"billing,omitempty"`
	Abuse      *Contact `json:"abuse,omitempty"`

	CreationDate   string `json:"creation_date,omitempty"`
	UpdatedDate    string `json:"updated_date,omitempty"`
	ExpirationDate string `json:"expiration_date,omitempty"`

	NameServers         []string            `json:"name_servers"`
	NameServerAddresses map[string][]string `json:"name_server_addresses,omitempty"`
	Status              []string            `json:"status"`
	DNSSEC              *bool               `json:"dnssec,omitempty"`

	// Extras values are a string when the key appeared once, a list otherwise.
	Extras map[string]any `json:"extras"`

	Meta    Meta   `json:"meta"`
	RawText string `json:"raw_text,omitempty"`
}

// Contact is the wire form of a contact block.
type Contact struct {
	ID           string   `json:"id,omitempty"`
	Name         string   `json:"name,omitempty"`
	Organization string   `json:"organization,omitempty"`
	Street       []string `json:"street,omitempty"`
	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	PostalCode   string   `json:"postal_code,omitempty"`
	Country      string   `json:"country,omitempty"`
	Email        string   `json:"email,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Fax          string   `json:"fax,omitempty"`
	Redacted     bool     `json:"redacted"`
}

// Meta is the wire form of the parse diagnostics.
type Meta struct {
	Dialect       string          `json:"dialect"`
	Confidence    float64         `json:"confidence"`
	TotalLines    int             `json:"total_lines"`
	UnparsedLines int             `json:"unparsed_lines"`
	Redacted      map[string]bool `json:"redacted"`
	UnparsedDates []string        `json:"unparsed_dates"`
	NonEPPStatus  []string        `json:"non_epp_status,omitempty"`
	Warnings      []Warning       `json:"warnings"`
	RateLimited   bool            `json:"rate_limited"`
	Encoding      string          `json:"encoding"`
}

// Warning is the wire form of a domain.Warning.
type Warning struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Key     string `json:"key,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// FromRecord converts a record into its wire form. Slices and maps are always
// non-nil so they render as [] and {} rather than null.
func FromRecord(rec domain.DomainRecord) Record {
	out := Record{
		Domain:           rec.Domain,
		Registrar:        rec.Registrar,
		RegistrarURL:     rec.RegistrarURL,
		RegistrarIANAID:  rec.RegistrarIANAID,
		RegistryDomainID: rec.RegistryDomainID,
		WhoisServer:      rec.WhoisServer,
		Registrant:       fromContact(rec.Registrant),
		Admin:            fromContact(rec.Admin),
		Tech:             fromContact(rec.Tech),
		Billing:          fromContact(rec.Billing),
		Abuse:            fromContact(rec.Abuse),
		NameServers:      []string{},
		Status:           []string{},
		DNSSEC:           rec.DNSSEC,
		Extras:           make(map[string]any, len(rec.Extras)),
		RawText:          rec.RawText,
		Meta:             fromMeta(rec.Meta),
	}

	if rec.CreationDate != nil {
		out.CreationDate = dates.Format(*rec.CreationDate)
	}
	if rec.UpdatedDate != nil {
		out.UpdatedDate = dates.Format(*rec.UpdatedDate)
	}
	if rec.ExpirationDate != nil {
		out.ExpirationDate = dates.Format(*rec.ExpirationDate)
	}

	for _, ns := range rec.NameServers {
		out.NameServers = append(out.NameServers, ns.Host)
		if len(ns.Addresses) == 0 {
			continue
		}
		if out.NameServerAddresses == nil {
			out.NameServerAddresses = map[string][]string{}
		}
		out.NameServerAddresses[ns.Host] = append([]string(nil), ns.Addresses...)
	}
	out.Status = append(out.Status, rec.Status...)

	for k, vs := range rec.Extras {
		if len(vs) == 1 {
			out.Extras[k] = vs[0]
			continue
		}
		out.Extras[k] = append([]string(nil), vs...)
	}

	return out
}

func fromContact(c *domain.ContactBlock) *Contact {
	if c == nil {
		return nil
	}
	return &Contact{
		ID:           c.ID,
		Name:         c.Name,
		Organization: c.Organization,
		Street:       append([]string(nil), c.Street...),
		City:         c.City,
		State:        c.State,
		PostalCode:   c.PostalCode,
		Country:      c.Country,
		Email:        c.Email,
		Phone:        c.Phone,
		Fax:          c.Fax,
		Redacted:     c.Redacted,
	}
}

func fromMeta(m domain.Meta) Meta {
	out := Meta{
		Dialect:       string(m.Dialect),
		Confidence:    m.Confidence,
		TotalLines:    m.TotalLines,
		UnparsedLines: m.UnparsedLines,
		Redacted:      make(map[string]bool, len(m.Redacted)),
		UnparsedDates: make([]string, 0, len(m.UnparsedDates)),
		NonEPPStatus:  m.NonEPPStatus,
		Warnings:      make([]Warning, 0, len(m.Warnings)),
		RateLimited:   m.RateLimited,
		Encoding:      m.Encoding,
	}
	for role, redacted := range m.Redacted {
		out.Redacted[string(role)] = redacted
	}
	for _, f := range m.UnparsedDates {
		out.UnparsedDates = append(out.UnparsedDates, string(f))
	}
	for _, w := range m.Warnings {
		out.Warnings = append(out.Warnings, Warning{
			Code:    w.Code,
			Field:   string(w.Field),
			Key:     w.Key,
			Line:    w.Line,
			Message: w.Message,
		})
	}
	return out
}
