package whois

import (
	"net/netip"
	"regexp"
	"strings"
	"unicode"

	"github.com/polisai/polis-whois/pkg/domain"
)

var eppStatuses = map[string]struct{}{
	"ok": {}, "active": {}, "inactive": {},
	"addperiod": {}, "autorenewperiod": {}, "renewperiod": {}, "transferperiod": {},
	"redemptionperiod": {}, "pendingrestore": {},
	"pendingcreate": {}, "pendingdelete": {}, "pendingrenew": {}, "pendingtransfer": {}, "pendingupdate": {},
	"clientdeleteprohibited": {}, "clienthold": {}, "clientrenewprohibited": {},
	"clienttransferprohibited": {}, "clientupdateprohibited": {},
	"serverdeleteprohibited": {}, "serverhold": {}, "serverrenewprohibited": {},
	"servertransferprohibited": {}, "serverupdateprohibited": {},
}

// IsEPPStatus reports whether token is an RFC 5731 / RGP status code. Matching
// is case-insensitive. Tokens outside the vocabulary are listed in
// Meta.NonEPPStatus.
func IsEPPStatus(token string) bool {
	_, ok := eppStatuses[strings.ToLower(token)]
	return ok
}

var parenthesised = regexp.MustCompile(`\([^)]*\)`)

// normalizeStatus splits a status value into lowercase tokens, dropping EPP
// reference URLs and parenthesised notes.
func normalizeStatus(value string) []string {
	value = parenthesised.ReplaceAllString(value, " ")
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		lower := strings.ToLower(f)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "www.") {
			continue
		}
		out = append(out, lower)
	}
	return out
}

// normalizeDomain keeps the first token, lowercased, without a trailing dot.
func normalizeDomain(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimRight(strings.ToLower(fields[0]), ".")
}

// parseNameServers reads one value that may carry several hosts, each
// optionally followed by glue addresses in parentheses or as bare tokens.
func parseNameServers(value string) []domain.NameServer {
	tokens := strings.FieldsFunc(value, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("(),;[]", r)
	})

	var out []domain.NameServer
	for _, tok := range tokens {
		if addr, err := netip.ParseAddr(tok); err == nil {
			if n := len(out); n > 0 {
				out[n-1].Addresses = append(out[n-1].Addresses, addr.String())
			}
			continue
		}
		host := strings.TrimRight(strings.ToLower(tok), ".")
		if !isHostName(host) {
			continue
		}
		out = append(out, domain.NameServer{Host: host})
	}
	return out
}

// isHostName accepts dotted names of at least two non-empty labels with at
// least one letter. Prose such as "Not Delegated" is rejected.
func isHostName(s string) bool {
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}
	letters := false
	for _, label := range labels {
		if label == "" || strings.HasPrefix(label, "-") {
			return false
		}
		for _, r := range label {
			switch {
			case unicode.IsLetter(r):
				letters = true
			case unicode.IsDigit(r), r == '-', r == '_':
			default:
				return false
			}
		}
	}
	return letters
}

// parseDNSSEC maps the DNSSEC spellings registries use onto a flag.
func parseDNSSEC(value string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch {
	case v == "":
		return false, false
	case strings.HasPrefix(v, "unsigned"):
		return false, true
	case strings.HasPrefix(v, "signed"):
		return true, true
	}
	switch strings.Fields(v)[0] {
	case "yes", "true", "active":
		return true, true
	case "no", "false", "inactive":
		return false, true
	}
	return false, false
}
