package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polisai/polis-whois/pkg/whois"
)

type envelope struct {
	Result *struct {
		Domain string `json:"domain"`
	} `json:"result"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func decodeLines(t *testing.T, out string) []envelope {
	t.Helper()
	var envs []envelope
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for sc.Scan() {
		var env envelope
		require.NoError(t, json.Unmarshal(sc.Bytes(), &env), sc.Text())
		envs = append(envs, env)
	}
	return envs
}

func TestRunParse_PreservesInputOrder(t *testing.T) {
	dir := t.TempDir()
	var inputs []string
	for i := 0; i < 20; i++ {
		path := filepath.Join(dir, fmt.Sprintf("r%02d.txt", i))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("Domain Name: example%d.com\n", i)), 0o644))
		inputs = append(inputs, path)
	}

	var out bytes.Buffer
	err := runParse(context.Background(), whois.New(), inputs, strings.NewReader(""), &out, 4, false)
	require.NoError(t, err)

	envs := decodeLines(t, out.String())
	require.Len(t, envs, 20)
	for i, env := range envs {
		require.NotNil(t, env.Result)
		assert.Equal(t, fmt.Sprintf("example%d.com", i), env.Result.Domain)
	}
}

func TestRunParse_ReportsFailures(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.txt")
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(good, []byte("Domain Name: example.com\n"), 0o644))
	require.NoError(t, os.WriteFile(empty, nil, 0o644))

	var out bytes.Buffer
	err := runParse(context.Background(), whois.New(), []string{good, empty}, nil, &out, 2, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 inputs failed")

	envs := decodeLines(t, out.String())
	require.Len(t, envs, 2)
	assert.Equal(t, "example.com", envs[0].Result.Domain)
	require.NotNil(t, envs[1].Error)
	assert.Equal(t, "invalid_input", envs[1].Error.Code)
}

func TestRunParse_MissingFile(t *testing.T) {
	var out bytes.Buffer
	err := runParse(context.Background(), whois.New(), []string{filepath.Join(t.TempDir(), "nope.txt")}, nil, &out, 1, false)
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func TestParseCommand_Stdin(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("Domain Name: EXAMPLE.ORG\n"))
	cmd.SetArgs([]string{"parse", "--pretty", "--log-level", "error"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "\"domain\": \"example.org\"")
}

func TestParseCommand_TablesFlag(t *testing.T) {
	dir := t.TempDir()
	tables := filepath.Join(dir, "tables.yaml")
	require.NoError(t, os.WriteFile(tables, []byte("aliases:\n  domain: [\"Nombre de dominio\"]\n"), 0o644))

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("Nombre de dominio: ejemplo.es\n"))
	cmd.SetArgs([]string{"parse", "--tables", tables, "--log-level", "error"})

	require.NoError(t, cmd.Execute())
	envs := decodeLines(t, out.String())
	require.Len(t, envs, 1)
	assert.Equal(t, "ejemplo.es", envs[0].Result.Domain)
}

func TestParseCommand_BadConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"parse", "--log-level", "loud"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
