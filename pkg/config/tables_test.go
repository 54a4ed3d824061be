package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisai/polis-whois/pkg/whois"
)

const tablesYAML = `
aliases:
  creation_date:
    - "Fecha de alta"
date_layouts:
  - "02/01/2006"
redaction_patterns:
  - "(?i)^oculto$"
rate_limit_markers:
  - "Slow down"
disabled_redaction_rules:
  - statutory-masking
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadTables_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "tables.yaml")
	writeFile(t, yamlPath, tablesYAML)
	o, err := LoadTables(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fecha de alta"}, o.Aliases["creation_date"])
	assert.Equal(t, []string{"02/01/2006"}, o.DateLayouts)
	assert.Equal(t, []string{"(?i)^oculto$"}, o.RedactionPatterns)
	assert.Equal(t, []string{"Slow down"}, o.RateLimitMarkers)
	assert.Equal(t, []string{"statutory-masking"}, o.DisabledRedactionRules)

	jsonPath := filepath.Join(dir, "tables.json")
	writeFile(t, jsonPath, `{"aliases": {"registrar": ["Agente"]}}`)
	o, err = LoadTables(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"Agente"}, o.Aliases["registrar"])

	_, err = LoadTables(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildTables(t *testing.T) {
	tables, err := BuildTables("")
	require.NoError(t, err)
	assert.NotNil(t, tables.Aliases)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	writeFile(t, bad, "aliases:\n  no_such_field: [\"x\"]\n")
	_, err = BuildTables(bad)
	assert.Error(t, err)
}

type recordingSink struct {
	mu     sync.Mutex
	tables []*whois.Tables
}

func (s *recordingSink) SetTables(t *whois.Tables) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = append(s.tables, t)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tables)
}

func TestTablesWatcher_ReloadsIntoParser(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	writeFile(t, path, "aliases: {}\n")

	p := whois.New()
	var (
		mu      sync.Mutex
		results []error
	)
	w, err := NewTablesWatcher(path, p, func(err error) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, err)
	}, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	text := "Domain Name: ejemplo.es\nFecha de alta: 21/05/2021\n"
	rec, err := p.Parse(context.Background(), text)
	require.NoError(t, err)
	assert.Nil(t, rec.CreationDate)

	writeFile(t, path, tablesYAML)

	require.Eventually(t, func() bool {
		rec, err := p.Parse(context.Background(), text)
		return err == nil && rec.CreationDate != nil
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, results)
	assert.NoError(t, results[len(results)-1])
}

func TestTablesWatcher_KeepsTablesOnBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	writeFile(t, path, tablesYAML)

	sink := &recordingSink{}
	failures := make(chan error, 16)
	w, err := NewTablesWatcher(path, sink, func(err error) {
		if err != nil {
			failures <- err
		}
	}, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()
	require.Equal(t, 1, sink.count())

	writeFile(t, path, "redaction_patterns: [\"(\"]\n")

	select {
	case err := <-failures:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("expected a failed reload")
	}
	assert.Equal(t, 1, sink.count())
}

func TestNewTablesWatcher_InitialLoadMustSucceed(t *testing.T) {
	_, err := NewTablesWatcher(filepath.Join(t.TempDir(), "missing.yaml"), &recordingSink{}, nil, zerolog.Nop())
	assert.Error(t, err)
}
