// Package domain holds the WHOIS record model shared by every pipeline stage:
// raw and normalized lines, raw fields, the closed set of canonical field tags,
// the assembled DomainRecord with its parse metadata, and the fatal error
// taxonomy.
//
// The package imports only the standard library. Stages in pkg/whois, the
// alias and redaction tables, and the JSON boundary in pkg/export depend on it;
// it never depends on them.
package domain
