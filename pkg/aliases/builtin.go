package aliases

import "github.com/polisai/polis-whois/pkg/domain"

// recordKeys covers record-level fields across gTLD (ICANN RAA) and common ccTLD
// output. Keys are written the way registries spell them; NormalizeKey folds them.
var recordKeys = map[domain.Field][]string{
	domain.FieldDomain: {
		"Domain Name", "Domain", "domain_name", "Domainname", "Domain Name (ASCII)",
		"Nom de domaine", "Dominio", "[Domain Name]", "Query",
	},
	domain.FieldRegistrar: {
		"Registrar", "Registrar Name", "registrar-name", "Sponsoring Registrar",
		"Sponsoring Registrar Organization", "Registrar Organization",
		"Registration Service Provider", "Authorized Agency", "Account Name",
		"Domain Support",
	},
	domain.FieldRegistrarURL: {
		"Registrar URL", "Referral URL", "Registrar Website", "Registrar Web",
	},
	domain.FieldRegistrarIANAID: {
		"Registrar IANA ID", "Sponsoring Registrar IANA ID",
	},
	domain.FieldRegistryDomainID: {
		"Registry Domain ID", "Domain ID", "ROID", "Domain ROID",
	},
	domain.FieldWhoisServer: {
		"Registrar WHOIS Server", "WHOIS Server", "Whois",
	},
	domain.FieldCreationDate: {
		"Creation Date", "Created", "Created On", "Created Date", "Create Date",
		"Domain Create Date", "Registered", "Registered On", "Registered Date",
		"Registration Date", "Registration Time", "Domain Registration Date",
		"Record created on", "domain_dateregistered", "Activated", "Commencement Date",
		"[登録年月日]",
	},
	domain.FieldUpdatedDate: {
		"Updated Date", "Update Date", "Updated", "Updated On", "Last Updated",
		"Last Updated On", "Last Updated Date", "Last Update", "last-update",
		"Last Modified", "Modified", "Modified Date", "Changed",
		"domain_datelastmodified", "[最終更新]",
	},
	domain.FieldExpirationDate: {
		"Registry Expiry Date", "Registry Expiration Date",
		"Registrar Registration Expiration Date", "Expiry Date", "Expiration Date",
		"Expire Date", "expire-date", "Expire", "Expires", "Expires On",
		"Expiration Time", "Renewal Date", "Record expires on", "paid-till",
		"domain_datebilleduntil", "Valid Until", "Validity", "[有効期限]",
	},
	domain.FieldNameServers: {
		"Name Server", "Name Servers", "Nameserver", "Nameservers", "Nserver",
		"Host Name", "DNS", "Name Server Host", "[ネームサーバ]",
	},
	domain.FieldStatus: {
		"Domain Status", "Status", "State", "Registration Status", "EPP Status",
		"domaintype", "[状態]",
	},
	domain.FieldDNSSEC: {
		"DNSSEC", "DNSSEC Status", "DNSSEC Signed",
	},
}

// rolePrefixes are the spellings that introduce a contact role. Each prefix on its
// own maps to the bare role (a section header or the contact name) and combines
// with every entry of attrSuffixes.
var rolePrefixes = map[domain.Role][]string{
	domain.RoleRegistrant: {
		"Registrant", "Registrant Contact", "Owner", "Owner Contact", "Holder",
		"Domain Holder", "Titular",
	},
	domain.RoleAdmin: {
		"Admin", "Administrative", "Administrative Contact", "Admin Contact",
	},
	domain.RoleTech: {
		"Tech", "Technical", "Technical Contact", "Tech Contact",
	},
	domain.RoleBilling: {
		"Billing", "Billing Contact",
	},
	domain.RoleAbuse: {
		"Registrar Abuse Contact", "Abuse Contact", "Abuse",
	},
}

var attrSuffixes = map[domain.Attr][]string{
	domain.AttrID:           {"ID", "Handle", "Contact ID"},
	domain.AttrName:         {"Name", "Contact Name", "Person"},
	domain.AttrOrganization: {"Organization", "Organisation", "Org", "Org Name", "Company", "Contact Organization", "Contact Organisation"},
	domain.AttrStreet:       {"Street", "Street1", "Street2", "Street3", "Address", "Address1", "Address2", "Address3", "Contact Address"},
	domain.AttrCity:         {"City"},
	domain.AttrState:        {"State/Province", "State", "Province"},
	domain.AttrPostalCode:   {"Postal Code", "PostalCode", "Zip", "Zip Code", "Postcode"},
	domain.AttrCountry:      {"Country", "Country Code", "Country/Economy"},
	domain.AttrEmail:        {"Email", "E-mail", "Contact Email", "Email Address"},
	domain.AttrPhone:        {"Phone", "Phone Number", "Telephone", "Tel", "Contact Phone", "Phone No"},
	domain.AttrFax:          {"Fax", "Fax Number", "Facsimile", "Fax No", "Fax-no"},
}

// genericKeys are contact attributes written without a role. Their role comes
// from the enclosing section header (RIPE-style blocks, "[Tech-C]" sections).
var genericKeys = map[domain.Attr][]string{
	domain.AttrID:           {"Handle", "nic-hdl", "Contact ID"},
	domain.AttrName:         {"Name", "Person", "Contact Name", "personname", "Responsible"},
	domain.AttrOrganization: {"Organization", "Organisation", "Org", "org-name", "Company"},
	domain.AttrStreet:       {"Street", "Address", "Street Address"},
	domain.AttrCity:         {"City"},
	domain.AttrState:        {"State/Province", "Province"},
	domain.AttrPostalCode:   {"Postal Code", "PostalCode", "Zip", "Postcode"},
	domain.AttrCountry:      {"Country", "Country Code", "CountryCode"},
	domain.AttrEmail:        {"Email", "E-mail", "Email Address"},
	domain.AttrPhone:        {"Phone", "Phone Number", "Telephone", "Tel"},
	domain.AttrFax:          {"Fax", "Fax-no", "Fax Number"},
}

// contactKeys are role-specific spellings that do not follow prefix+suffix.
var contactKeys = []Alias{
	{"Registry Registrant ID", domain.ContactField(domain.RoleRegistrant, domain.AttrID)},
	{"Registry Admin ID", domain.ContactField(domain.RoleAdmin, domain.AttrID)},
	{"Registry Tech ID", domain.ContactField(domain.RoleTech, domain.AttrID)},
	{"Registry Billing ID", domain.ContactField(domain.RoleBilling, domain.AttrID)},
	{"holder-c", domain.ContactField(domain.RoleRegistrant, domain.AttrID)},
	{"admin-c", domain.ContactField(domain.RoleAdmin, domain.AttrID)},
	{"tech-c", domain.ContactField(domain.RoleTech, domain.AttrID)},
	{"zone-c", domain.ContactField(domain.RoleTech, domain.AttrID)},
	{"billing-c", domain.ContactField(domain.RoleBilling, domain.AttrID)},
	{"AC E-Mail", domain.ContactField(domain.RoleAbuse, domain.AttrEmail)},
	{"AC Phone Number", domain.ContactField(domain.RoleAbuse, domain.AttrPhone)},
	{"Registrar Abuse Contact Phone Number", domain.ContactField(domain.RoleAbuse, domain.AttrPhone)},
	{"[登録者名]", domain.ContactField(domain.RoleRegistrant, domain.AttrName)},
}

// BuiltinRows expands the builtin data into alias rows.
func BuiltinRows() []Alias {
	var rows []Alias
	for field, keys := range recordKeys {
		for _, k := range keys {
			rows = append(rows, Alias{Raw: k, Field: field})
		}
	}
	for role, prefixes := range rolePrefixes {
		for _, p := range prefixes {
			rows = append(rows, Alias{Raw: p, Field: domain.ContactField(role, domain.AttrNone)})
			for attr, suffixes := range attrSuffixes {
				for _, s := range suffixes {
					rows = append(rows, Alias{Raw: p + " " + s, Field: domain.ContactField(role, attr)})
				}
			}
		}
	}
	for attr, keys := range genericKeys {
		for _, k := range keys {
			rows = append(rows, Alias{Raw: k, Field: domain.ContactField(domain.RoleGeneric, attr)})
		}
	}
	return append(rows, contactKeys...)
}
