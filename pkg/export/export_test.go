package export

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisai/polis-whois/pkg/domain"
	"github.com/polisai/polis-whois/pkg/whois"
)

const record = `Domain Name: EXAMPLE.COM
Updated Date: 2020-01-02T03:04:05Z
Name Server: ns1.example.com (192.0.2.1)
Name Server: ns2.example.com
Registrant Name: REDACTED FOR PRIVACY
Tech Email: tech@example.com
Registrar Abuse Contact Phone: +1.5555550100
Reseller: Example Reseller
Remarks: first
Remarks: second
`

func decodeMap(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestParseJSON_Success(t *testing.T) {
	b, err := ParseJSON(context.Background(), whois.New(), record, false)
	require.NoError(t, err)

	env := decodeMap(t, b)
	assert.NotContains(t, env, "error")
	result, ok := env["result"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "example.com", result["domain"])
	assert.Equal(t, "2020-01-02T03:04:05Z", result["updated_date"])
	assert.Equal(t, []any{"ns1.example.com", "ns2.example.com"}, result["name_servers"])
	assert.Equal(t, map[string]any{"ns1.example.com": []any{"192.0.2.1"}}, result["name_server_addresses"])
	assert.Equal(t, []any{}, result["status"])
	assert.NotContains(t, result, "creation_date")
	assert.NotContains(t, result, "raw_text")

	extras := result["extras"].(map[string]any)
	assert.Equal(t, "Example Reseller", extras["Reseller"])
	assert.Equal(t, []any{"first", "second"}, extras["Remarks"])

	registrant := result["registrant"].(map[string]any)
	assert.Equal(t, true, registrant["redacted"])
	assert.NotContains(t, registrant, "name")

	tech := result["tech"].(map[string]any)
	assert.Equal(t, "tech@example.com", tech["email"])
	assert.Equal(t, false, tech["redacted"])

	meta := result["meta"].(map[string]any)
	assert.Equal(t, "key_colon", meta["dialect"])
	assert.Equal(t, map[string]any{"registrant": true, "tech": false, "abuse": false}, meta["redacted"])
	assert.Equal(t, []any{}, meta["unparsed_dates"])
	assert.Equal(t, "utf-8", meta["encoding"])
	assert.Equal(t, false, meta["rate_limited"])
	assert.NotContains(t, meta, "non_epp_status")
}

func TestParseJSON_NonEPPStatus(t *testing.T) {
	b, err := ParseJSON(context.Background(), whois.New(), "Domain Name: example.ee\nStatus: ok, registered\n", false)
	require.NoError(t, err)

	result := decodeMap(t, b)["result"].(map[string]any)
	assert.Equal(t, []any{"ok", "registered"}, result["status"])
	meta := result["meta"].(map[string]any)
	assert.Equal(t, []any{"registered"}, meta["non_epp_status"])
}

func TestParseJSON_Failures(t *testing.T) {
	tests := []struct {
		name string
		text string
		code string
		want error
	}{
		{"empty", "", domain.CodeInvalidInput, domain.ErrInvalidInput},
		{"blank", "  \n ", domain.CodeInvalidInput, domain.ErrInvalidInput},
		{"nul byte", "Domain: a\x00", domain.CodeEncoding, domain.ErrEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseJSON(context.Background(), whois.New(), tt.text, false)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))
			assert.Equal(t, tt.code, domain.ErrorCode(err))

			env := decodeMap(t, b)
			assert.Nil(t, env["result"])
			body := env["error"].(map[string]any)
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestParse_RecoversPanics(t *testing.T) {
	// a zero Parser has no tables loaded and panics on first use
	env := Parse(context.Background(), &whois.Parser{}, "Domain Name: example.com")

	assert.Nil(t, env.Result)
	require.NotNil(t, env.Error)
	assert.Equal(t, domain.CodeInternal, env.Error.Code)
}

func TestMarshal_Pretty(t *testing.T) {
	rec, err := whois.New(whois.WithRawText(true)).Parse(context.Background(), "Domain Name: example.com\n")
	require.NoError(t, err)

	b, err := Marshal(rec, true)
	require.NoError(t, err)
	assert.Contains(t, string(b), "\n  \"domain\": \"example.com\"")
	assert.Contains(t, string(b), `"raw_text": "Domain Name: example.com\n"`)
}

func TestFromRecord_EmptyCollections(t *testing.T) {
	out := FromRecord(domain.DomainRecord{})

	b, err := json.Marshal(out)
	require.NoError(t, err)
	m := decodeMap(t, b)
	assert.Equal(t, []any{}, m["name_servers"])
	assert.Equal(t, map[string]any{}, m["extras"])
	assert.NotContains(t, m, "registrant")
	assert.NotContains(t, m, "dnssec")
}
