package domain

import "time"

// Dialect is the line-formatting convention detected for a record.
type Dialect string

// Detector outcomes. Unknown is not an error; it routes to whole-text extraction.
const (
	DialectKeyColon      Dialect = "key_colon"
	DialectColumnAligned Dialect = "column_aligned"
	DialectFreeText      Dialect = "free_text"
	DialectUnknown       Dialect = "unknown"
)

// Structured reports whether the dialect yields per-line key/value pairs.
func (d Dialect) Structured() bool {
	return d == DialectKeyColon || d == DialectColumnAligned
}

// RawRecord is the decoded input text and the encoding it was decoded from.
type RawRecord struct {
	Text     string
	Encoding string
}

// Line is one normalized input line. Number is the 1-based source line of the
// first physical line; continuation lines are folded into Text. AfterBlank marks
// a line that followed one or more blank lines.
type Line struct {
	Number     int
	Indent     int
	Text       string
	AfterBlank bool
}

// RawField is a raw key with the values of one or more consecutive lines.
// Section holds the raw key of the enclosing header line, if any.
type RawField struct {
	Key     string
	Values  []string
	Lines   []int
	Section string
}

// ContactBlock is a registrant/admin/tech/billing/abuse contact. A block whose
// fields are all absent or redacted is still returned so callers can tell
// "redacted" apart from "never reported".
type ContactBlock struct {
	ID           string
	Name         string
	Organization string
	Street       []string
	City         string
	State        string
	PostalCode   string
	Country      string
	Email        string
	Phone        string
	Fax          string
	Redacted     bool
}

// Empty reports whether no attribute carries data.
func (c *ContactBlock) Empty() bool {
	return c.ID == "" && c.Name == "" && c.Organization == "" && len(c.Street) == 0 &&
		c.City == "" && c.State == "" && c.PostalCode == "" && c.Country == "" &&
		c.Email == "" && c.Phone == "" && c.Fax == ""
}

// NameServer is a delegated host with optional glue addresses.
type NameServer struct {
	Host      string
	Addresses []string
}

// Meta carries parse diagnostics.
type Meta struct {
	Dialect       Dialect
	Confidence    float64
	TotalLines    int
	UnparsedLines int
	Redacted      map[Role]bool
	UnparsedDates []Field
	Warnings      []Warning
	RateLimited   bool
	Encoding      string

	// NonEPPStatus lists status tokens outside the EPP/RGP vocabulary. They
	// are still kept in DomainRecord.Status.
	NonEPPStatus []string
}

// DomainRecord is the assembled output of one parse. Zero values mean the field
// was absent from the input. A record is never mutated after assembly.
type DomainRecord struct {
	Domain           string
	Registrar        string
	RegistrarURL     string
	RegistrarIANAID  string
	RegistryDomainID string
	WhoisServer      string

	CreationDate   *time.Time
	UpdatedDate    *time.Time
	ExpirationDate *time.Time

	NameServers []NameServer
	Status      []string
	DNSSEC      *bool

	Registrant *ContactBlock
	Admin      *ContactBlock
	Tech       *ContactBlock
	Billing    *ContactBlock
	Abuse      *ContactBlock

	// Extras maps unrecognized raw keys to their values in input order.
	Extras map[string][]string

	// RawText is the decoded input, populated only when the parser is asked to keep it.
	RawText string

	Meta Meta
}

// Contact returns the block for role, or nil.
func (r *DomainRecord) Contact(role Role) *ContactBlock {
	switch role {
	case RoleRegistrant:
		return r.Registrant
	case RoleAdmin:
		return r.Admin
	case RoleTech:
		return r.Tech
	case RoleBilling:
		return r.Billing
	case RoleAbuse:
		return r.Abuse
	}
	return nil
}

// HostNames returns the name-server hosts in order.
func (r *DomainRecord) HostNames() []string {
	if len(r.NameServers) == 0 {
		return nil
	}
	hosts := make([]string, len(r.NameServers))
	for i, ns := range r.NameServers {
		hosts[i] = ns.Host
	}
	return hosts
}

// CanonicalCount reports how many canonical fields are populated.
func (r *DomainRecord) CanonicalCount() int {
	n := 0
	for _, s := range []string{r.Domain, r.Registrar, r.RegistrarURL, r.RegistrarIANAID, r.RegistryDomainID, r.WhoisServer} {
		if s != "" {
			n++
		}
	}
	for _, t := range []*time.Time{r.CreationDate, r.UpdatedDate, r.ExpirationDate} {
		if t != nil {
			n++
		}
	}
	if len(r.NameServers) > 0 {
		n++
	}
	if len(r.Status) > 0 {
		n++
	}
	if r.DNSSEC != nil {
		n++
	}
	for _, role := range Roles {
		if r.Contact(role) != nil {
			n++
		}
	}
	return n
}
