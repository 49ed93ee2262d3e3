package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: simple
description: "Two events one minute apart"
events:
  - id: a
    project: 1
    at: "-2m"
  - id: b
    project: 1
    at: "-1m"
lookups:
  - name: next of a
    ref: a
    direction: next
    expect: "1/b"
  - name: prev of a
    ref: a
    direction: prev
    expect_none: true
`

const failingScenario = `name: broken
description: "Expects a neighbour that does not exist"
events:
  - id: a
    project: 1
    at: "-2m"
lookups:
  - name: next of a
    ref: a
    direction: next
    expect: "1/zzz"
`

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestCmd(format string, args ...string) (*bytes.Buffer, func() error) {
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, run := newTestCmd("text")
	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, run := newTestCmd("text", "/nonexistent/scenarios")
	err := run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	buf, run := newTestCmd("text", t.TempDir())
	require.NoError(t, run())
	assert.Contains(t, buf.String(), "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	buf, run := newTestCmd("json", t.TempDir())
	require.NoError(t, run())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "simple.yaml", passingScenario)

	buf, run := newTestCmd("text", dir)
	require.NoError(t, run())
	assert.Contains(t, buf.String(), "✓ simple")
	assert.Contains(t, buf.String(), "Test Summary: 1 passed, 0 failed, 1 total")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "simple.yaml", passingScenario)
	writeScenario(t, dir, "broken.yaml", failingScenario)

	buf, run := newTestCmd("json", dir)
	err := run()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	assert.Equal(t, 2, resp.Data.Total)

	for _, s := range resp.Data.Scenarios {
		if s.Name == "broken" {
			require.NotEmpty(t, s.Errors)
			assert.Contains(t, s.Errors[0], "expected 1/zzz")
		}
	}
}

func TestTestCommandFailureReportedOnce(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", failingScenario)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := Execute(context.Background(), []string{"--format", "json", "test", dir}, stdout, stderr)
	assert.Equal(t, ExitFailure, code)
	assert.Empty(t, stderr.String())

	dec := json.NewDecoder(stdout)
	var resp CLIResponse
	require.NoError(t, dec.Decode(&resp))
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.False(t, dec.More())
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "simple.yaml", passingScenario)
	writeScenario(t, dir, "broken.yaml", failingScenario)

	buf, run := newTestCmd("text", dir, "--filter", "sim*")
	require.NoError(t, run())
	assert.Contains(t, buf.String(), "1 total")
	assert.NotContains(t, buf.String(), "broken")
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "simple.yaml", passingScenario)

	buf, run := newTestCmd("text", dir, "--update")
	require.NoError(t, run())
	assert.Contains(t, buf.String(), "✓ simple (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "simple.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"simple"`)

	// The golden directory is not scanned for scenarios.
	_, run = newTestCmd("text", dir)
	require.NoError(t, run())

	require.NoError(t, os.WriteFile(goldenPath, []byte(`{"scenario_name":"simple","trace":[]}`), 0644))
	buf, run = newTestCmd("text", dir)
	err = run()
	require.Error(t, err)
	assert.Contains(t, buf.String(), "trace does not match golden file")
}

func TestFindScenarioFiles(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", passingScenario)
	writeScenario(t, dir, "b.yml", passingScenario)
	writeScenario(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	writeScenario(t, filepath.Join(dir, "golden"), "c.yaml", passingScenario)

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.yml")}, files)

	_, err = findScenarioFiles(dir, "[")
	require.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t, filepath.Join("scenarios", "golden", "tie_break.golden"),
		goldenFilePath(filepath.Join("scenarios", "tie_break.yaml")))
}
