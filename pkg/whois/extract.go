package whois

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/polisai/polis-whois/pkg/domain"
)

// RawTextKey is the extras key holding the whole input when no field was
// recognized.
const RawTextKey = "raw_text"

// SectionKey is the extras key for a raw key kept under a section that names no
// contact role, e.g. "Registrar/Name".
func SectionKey(section, key string) string {
	return section + "/" + key
}

const (
	maxKeyRunes    = 64
	maxColumnWords = 8
)

// HeaderFunc reports whether a key written without a value opens a section.
// A nil HeaderFunc treats every such key as a header.
type HeaderFunc func(key string) bool

// Extraction is the Field Extractor output.
type Extraction struct {
	Fields []domain.RawField
	// Unparsed counts content lines that could not be split into key and value.
	Unparsed int
}

// Extract splits lines into raw fields for the detected dialect. Structured
// dialects yield one field per run of consecutive lines sharing a key and a
// section; everything else yields the single RawTextKey field holding text.
func Extract(lines []domain.Line, dialect domain.Dialect, text string, isHeader HeaderFunc) Extraction {
	if !dialect.Structured() {
		numbers := make([]int, len(lines))
		for i, l := range lines {
			numbers[i] = l.Number
		}
		return Extraction{
			Fields:   []domain.RawField{{Key: RawTextKey, Values: []string{text}, Lines: numbers}},
			Unparsed: len(lines),
		}
	}

	var (
		out           Extraction
		section       string
		sectionIndent int
	)
	for _, line := range lines {
		if section != "" && (line.AfterBlank || line.Indent < sectionIndent) {
			section = ""
		}

		key, value, ok := splitField(line.Text, dialect)
		if !ok {
			out.Unparsed++
			continue
		}

		owner := section
		if value == "" && (isHeader == nil || isHeader(key)) {
			section, sectionIndent = key, line.Indent
			owner = ""
		}

		if n := len(out.Fields); n > 0 && out.Fields[n-1].Key == key && out.Fields[n-1].Section == owner {
			last := &out.Fields[n-1]
			last.Values = append(last.Values, value)
			last.Lines = append(last.Lines, line.Number)
			continue
		}
		out.Fields = append(out.Fields, domain.RawField{
			Key:     key,
			Values:  []string{value},
			Lines:   []int{line.Number},
			Section: owner,
		})
	}
	return out
}

// splitField applies the dialect delimiter. Column-aligned records also accept
// key:value lines; when both splits apply the one with the shorter key wins so
// times inside column values are not taken for a colon.
func splitField(text string, dialect domain.Dialect) (string, string, bool) {
	if key, ok := bracketHeader(text); ok {
		return key, "", true
	}

	kKey, kValue, kOK := splitKeyColon(text)
	if dialect != domain.DialectColumnAligned {
		return kKey, kValue, kOK
	}

	cKey, cValue, cOK := splitColumn(text)
	switch {
	case kOK && (!cOK || len(kKey) <= len(cKey)):
		return kKey, kValue, true
	case cOK:
		return cKey, cValue, true
	}
	return "", "", false
}

// splitKeyColon splits on the first colon that ends a plausible key. A colon
// followed by '/' (URLs) or inside an IPv6 address does not count.
func splitKeyColon(text string) (string, string, bool) {
	for start := 0; start < len(text); {
		i := strings.IndexAny(text[start:], ":：")
		if i < 0 {
			return "", "", false
		}
		pos := start + i
		_, width := utf8.DecodeRuneInString(text[pos:])
		key := strings.TrimSpace(text[:pos])
		if utf8.RuneCountInString(key) > maxKeyRunes {
			return "", "", false
		}
		rest := text[pos+width:]
		if validKey(key) && !strings.HasPrefix(rest, "/") && !ipv6Fragment(key, rest) {
			return key, strings.TrimSpace(rest), true
		}
		start = pos + width
	}
	return "", "", false
}

// splitColumn splits "key<2+ spaces>value" and "[Key] value".
func splitColumn(text string) (string, string, bool) {
	if i := strings.Index(text, "  "); i > 0 {
		key := strings.TrimSpace(text[:i])
		if validColumnKey(key) {
			return key, strings.TrimSpace(text[i:]), true
		}
	}
	if strings.HasPrefix(text, "[") {
		if j := strings.IndexByte(text, ']'); j > 1 {
			key := text[:j+1]
			if utf8.RuneCountInString(key) <= maxKeyRunes && validKey(key[1:j]) {
				return key, strings.TrimSpace(text[j+1:]), true
			}
		}
	}
	return "", "", false
}

// bracketHeader matches a line that is only a "[Tech-C]" style section header.
func bracketHeader(text string) (string, bool) {
	if len(text) < 3 || text[0] != '[' || text[len(text)-1] != ']' {
		return "", false
	}
	inner := text[1 : len(text)-1]
	if strings.ContainsAny(inner, "[]") || utf8.RuneCountInString(text) > maxKeyRunes || !validKey(strings.TrimSpace(inner)) {
		return "", false
	}
	return text, true
}

func validKey(key string) bool {
	if key == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(key)
	if unicode.IsDigit(first) {
		return false
	}
	return strings.IndexFunc(key, unicode.IsLetter) >= 0
}

func validColumnKey(key string) bool {
	if utf8.RuneCountInString(key) > maxKeyRunes || !validKey(key) {
		return false
	}
	if strings.ContainsAny(key[len(key)-1:], ".,;!?") {
		return false
	}
	return len(strings.Fields(key)) <= maxColumnWords
}

// ipv6Fragment reports a colon that sits inside an IPv6 literal such as the
// glue address in "ns1.example.net 2001:db8::1".
func ipv6Fragment(key, rest string) bool {
	if rest == "" {
		return false
	}
	next, _ := utf8.DecodeRuneInString(rest)
	if next != ':' && !isHex(next) {
		return false
	}
	last := key
	if i := strings.LastIndexAny(key, " \t"); i >= 0 {
		last = key[i+1:]
	}
	if last == "" || len(last) > 39 {
		return false
	}
	for _, r := range last {
		if r != ':' && !isHex(r) {
			return false
		}
	}
	return true
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
