package whois

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/polisai/polis-whois/pkg/domain"
)

func linesOf(texts ...string) []domain.Line {
	out := make([]domain.Line, len(texts))
	for i, t := range texts {
		out[i] = domain.Line{Number: i + 1, Text: t}
	}
	return out
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		lines []domain.Line
		want  domain.Dialect
	}{
		{
			name:  "key colon",
			lines: linesOf("Domain Name: example.com", "Registrar: Example", "Some trailing prose here"),
			want:  domain.DialectKeyColon,
		},
		{
			name:  "column aligned",
			lines: linesOf("[Domain Name]   EXAMPLE.JP", "[Name Server]   ns1.example.jp", "[Last Update]   2024/02/01 01:05:06 (JST)"),
			want:  domain.DialectColumnAligned,
		},
		{
			name:  "prose",
			lines: linesOf("This registry publishes no structured data.", "Please contact the registrar.", "Note: see website"),
			want:  domain.DialectFreeText,
		},
		{
			name:  "structured wins ties with prose",
			lines: linesOf("Domain: example.org", "Just words"),
			want:  domain.DialectKeyColon,
		},
		{
			name:  "garbage",
			lines: linesOf("\x01\x02\x03", "::::", "1234 5678"),
			want:  domain.DialectUnknown,
		},
		{
			name: "no lines",
			want: domain.DialectUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(tt.lines)
			assert.Equal(t, tt.want, got.Dialect)
			assert.GreaterOrEqual(t, got.Share, 0.0)
			assert.LessOrEqual(t, got.Share, 1.0)
		})
	}
}

func TestDetect_Share(t *testing.T) {
	got := Detect(linesOf("a: 1", "b: 2", "c: 3", "just some words"))
	assert.Equal(t, domain.DialectKeyColon, got.Dialect)
	assert.InDelta(t, 0.75, got.Share, 1e-9)
	assert.Equal(t, 1, got.Votes[domain.DialectFreeText])
}
