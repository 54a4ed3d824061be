package whois

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/polisai/polis-whois/pkg/domain"
)

const (
	encodingUTF8 = "utf-8"
	tabWidth     = 4
	bom          = "\ufeff"
)

// Charset is a legacy single-byte encoding accepted when input is not UTF-8.
type Charset struct {
	Name     string
	Encoding encoding.Encoding
}

// LookupCharset resolves an IANA charset name such as "iso-8859-1" or
// "windows-1251".
func LookupCharset(name string) (Charset, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return Charset{}, err
	}
	if enc == nil {
		return Charset{}, domain.EncodingError("charset %q is not supported", name)
	}
	canonical, err := ianaindex.MIME.Name(enc)
	if err != nil || canonical == "" {
		canonical = strings.ToLower(name)
	}
	return Charset{Name: strings.ToLower(canonical), Encoding: enc}, nil
}

// Latin1 is the charset most pre-IDN registries fall back to.
var Latin1 = Charset{Name: "iso-8859-1", Encoding: charmap.ISO8859_1}

type limits struct {
	maxBytes int
	maxLines int
}

// decode validates raw input and returns it as UTF-8 text with line endings
// normalized to "\n". It is the only stage that can fail.
func decode(text string, lim limits, legacy *Charset) (domain.RawRecord, error) {
	if strings.TrimSpace(text) == "" {
		return domain.RawRecord{}, domain.InvalidInputError("empty input")
	}
	if lim.maxBytes > 0 && len(text) > lim.maxBytes {
		return domain.RawRecord{}, domain.InvalidInputError("input is %d bytes, limit is %d", len(text), lim.maxBytes)
	}
	if i := strings.IndexByte(text, 0); i >= 0 {
		return domain.RawRecord{}, domain.EncodingError("NUL byte at offset %d", i)
	}

	text = strings.TrimPrefix(text, bom)
	enc := encodingUTF8
	if !utf8.ValidString(text) {
		if legacy == nil || legacy.Encoding == nil {
			return domain.RawRecord{}, domain.EncodingError("invalid UTF-8 at offset %d", invalidOffset(text))
		}
		decoded, err := legacy.Encoding.NewDecoder().String(text)
		if err != nil {
			return domain.RawRecord{}, domain.EncodingError("decode %s: %v", legacy.Name, err)
		}
		text, enc = decoded, legacy.Name
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	if lim.maxLines > 0 {
		if n := strings.Count(text, "\n") + 1; n > lim.maxLines {
			return domain.RawRecord{}, domain.InvalidInputError("input has %d lines, limit is %d", n, lim.maxLines)
		}
	}

	return domain.RawRecord{Text: text, Encoding: enc}, nil
}

func invalidOffset(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(s)
}

// NormalizeLines turns decoded text into content lines: comments and the
// leading banner are dropped, blank lines are dropped (the next line records
// AfterBlank), and indented lines without a key are folded into the preceding
// key line.
func NormalizeLines(text string) []domain.Line {
	var (
		out       []domain.Line
		inBanner  = true
		afterGap  bool
		lastKey   = -1
		keyIndent int
		folded    []string
	)

	// fold joins the pending continuation bodies onto the current key line in
	// one pass.
	fold := func() {
		if lastKey >= 0 && len(folded) > 0 {
			out[lastKey].Text += " " + strings.Join(folded, " ")
		}
		folded = folded[:0]
	}

	for i, physical := range strings.Split(text, "\n") {
		indent, body := expandTabs(physical)
		if body == "" {
			fold()
			afterGap = true
			lastKey = -1
			continue
		}
		if isComment(body) {
			continue
		}

		_, _, hasKey := splitKeyColon(body)
		continuation := !hasKey && lastKey >= 0 && indent > keyIndent
		if inBanner && !continuation {
			if !hasKey && isShouting(body) {
				continue
			}
			if hasKey {
				inBanner = false
			}
		}

		if continuation {
			folded = append(folded, body)
			continue
		}

		fold()
		line := domain.Line{Number: i + 1, Indent: indent, Text: body, AfterBlank: afterGap && len(out) > 0}
		afterGap = false
		out = append(out, line)
		lastKey = -1
		if _, _, columnKey := splitColumn(body); hasKey || columnKey {
			lastKey, keyIndent = len(out)-1, indent
		}
	}
	fold()

	return out
}

// expandTabs returns the indentation width and the trimmed body with inner
// tabs expanded to the next tab stop.
func expandTabs(line string) (int, string) {
	if !strings.ContainsRune(line, '\t') {
		trimmed := strings.TrimLeft(line, " ")
		return len(line) - len(trimmed), strings.TrimSpace(trimmed)
	}

	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			pad := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		b.WriteRune(r)
		col++
	}
	expanded := b.String()
	trimmed := strings.TrimLeft(expanded, " ")
	return len(expanded) - len(trimmed), strings.TrimSpace(trimmed)
}

func isComment(body string) bool {
	return strings.HasPrefix(body, "%") ||
		strings.HasPrefix(body, "#") ||
		strings.HasPrefix(body, ">>>")
}

// isShouting reports an ALL-CAPS notice: at least one word, no lowercase
// letters, and no column-aligned key.
func isShouting(body string) bool {
	if _, _, ok := splitColumn(body); ok {
		return false
	}
	hasUpper := false
	for _, r := range body {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper && hasWord(body)
}
