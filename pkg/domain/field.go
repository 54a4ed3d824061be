package domain

import "strings"

// Field is a canonical field tag. The set is closed; registries are mapped onto it
// through the alias table rather than by adding tags.
type Field string

// Record-level fields.
const (
	FieldDomain           Field = "domain"
	FieldRegistrar        Field = "registrar"
	FieldRegistrarURL     Field = "registrar_url"
	FieldRegistrarIANAID  Field = "registrar_iana_id"
	FieldRegistryDomainID Field = "registry_domain_id"
	FieldWhoisServer      Field = "whois_server"
	FieldCreationDate     Field = "creation_date"
	FieldUpdatedDate      Field = "updated_date"
	FieldExpirationDate   Field = "expiration_date"
	FieldNameServers      Field = "name_servers"
	FieldStatus           Field = "status"
	FieldDNSSEC           Field = "dnssec"
)

// Role identifies a contact block.
type Role string

// Contact roles. RoleGeneric is only valid inside an enclosing section header.
const (
	RoleRegistrant Role = "registrant"
	RoleAdmin      Role = "admin"
	RoleTech       Role = "tech"
	RoleBilling    Role = "billing"
	RoleAbuse      Role = "abuse"
	RoleGeneric    Role = "contact"
)

// Roles lists the concrete contact roles in output order.
var Roles = []Role{RoleRegistrant, RoleAdmin, RoleTech, RoleBilling, RoleAbuse}

// Attr is a contact attribute.
type Attr string

// Contact attributes. AttrNone marks the bare role field ("Registrant:"), which is
// either a section header or the contact name.
const (
	AttrNone         Attr = ""
	AttrID           Attr = "id"
	AttrName         Attr = "name"
	AttrOrganization Attr = "organization"
	AttrStreet       Attr = "street"
	AttrCity         Attr = "city"
	AttrState        Attr = "state"
	AttrPostalCode   Attr = "postal_code"
	AttrCountry      Attr = "country"
	AttrEmail        Attr = "email"
	AttrPhone        Attr = "phone"
	AttrFax          Attr = "fax"
)

var contactAttrs = map[Attr]struct{}{
	AttrID: {}, AttrName: {}, AttrOrganization: {}, AttrStreet: {}, AttrCity: {},
	AttrState: {}, AttrPostalCode: {}, AttrCountry: {}, AttrEmail: {}, AttrPhone: {},
	AttrFax: {},
}

var recordFields = map[Field]struct{}{
	FieldDomain: {}, FieldRegistrar: {}, FieldRegistrarURL: {}, FieldRegistrarIANAID: {},
	FieldRegistryDomainID: {}, FieldWhoisServer: {}, FieldCreationDate: {},
	FieldUpdatedDate: {}, FieldExpirationDate: {}, FieldNameServers: {}, FieldStatus: {},
	FieldDNSSEC: {},
}

// ContactField builds the tag for a role attribute, e.g. "registrant.email".
func ContactField(role Role, attr Attr) Field {
	if attr == AttrNone {
		return Field(role)
	}
	return Field(string(role) + "." + string(attr))
}

// Contact splits a contact tag into role and attribute.
func (f Field) Contact() (Role, Attr, bool) {
	role, attr, _ := strings.Cut(string(f), ".")
	switch Role(role) {
	case RoleRegistrant, RoleAdmin, RoleTech, RoleBilling, RoleAbuse, RoleGeneric:
	default:
		return "", "", false
	}
	if attr == "" {
		return Role(role), AttrNone, true
	}
	if _, ok := contactAttrs[Attr(attr)]; !ok {
		return "", "", false
	}
	return Role(role), Attr(attr), true
}

// IsDate reports whether the field carries a timestamp.
func (f Field) IsDate() bool {
	switch f {
	case FieldCreationDate, FieldUpdatedDate, FieldExpirationDate:
		return true
	}
	return false
}

// Valid reports whether f belongs to the closed canonical set.
func (f Field) Valid() bool {
	if _, ok := recordFields[f]; ok {
		return true
	}
	_, _, ok := f.Contact()
	return ok
}
