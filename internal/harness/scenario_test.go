package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "one event, one lookup"
events:
  - { id: a, project: 1, at: "-1m" }
lookups:
  - { name: next of a, ref: a, direction: next, expect_none: true }
`

func TestLoadScenario_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Events, 1)
	assert.Equal(t, int64(1), s.Events[0].Project)
	require.Len(t, s.Lookups, 1)
	assert.True(t, s.Lookups[0].ExpectNone)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadScenario_Testdata(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: y\nlookup: []\n",
			want: "field lookup not found",
		},
		{
			name: "missing name",
			yaml: "description: y\nlookups: [{name: l, direction: next, expect_none: true}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\nlookups: [{name: l, direction: next, expect_none: true}]\n",
			want: "description is required",
		},
		{
			name: "no lookups",
			yaml: "name: x\ndescription: y\n",
			want: "lookups list is required",
		},
		{
			name: "bad direction",
			yaml: "name: x\ndescription: y\nlookups: [{name: l, direction: up, expect_none: true}]\n",
			want: "unknown direction",
		},
		{
			name: "two expectations",
			yaml: "name: x\ndescription: y\nlookups: [{name: l, direction: next, expect: '1/a', expect_none: true}]\n",
			want: "exactly one of",
		},
		{
			name: "unknown ref",
			yaml: "name: x\ndescription: y\nlookups: [{name: l, ref: nope, direction: next, expect_none: true}]\n",
			want: "not a scenario event",
		},
		{
			name: "ambiguous ref",
			yaml: "name: x\ndescription: y\nevents: [{id: a, project: 1, at: 0s}, {id: a, project: 2, at: 0s}]\nlookups: [{name: l, ref: a, direction: next, expect_none: true}]\n",
			want: "ambiguous",
		},
		{
			name: "bad condition",
			yaml: "name: x\ndescription: y\nlookups: [{name: l, direction: next, conditions: ['platform ~ go'], expect_none: true}]\n",
			want: "parse condition",
		},
		{
			name: "event without project",
			yaml: "name: x\ndescription: y\nevents: [{id: a, at: 0s}]\nlookups: [{name: l, direction: next, expect_none: true}]\n",
			want: "project is required",
		},
		{
			name: "bad time",
			yaml: "name: x\ndescription: y\nevents: [{id: a, project: 1, at: yesterday}]\nlookups: [{name: l, direction: next, expect_none: true}]\n",
			want: "invalid time",
		},
		{
			name: "reserved attribute",
			yaml: "name: x\ndescription: y\nevents: [{id: a, project: 1, at: 0s, attrs: {timestamp: 1}}]\nlookups: [{name: l, direction: next, expect_none: true}]\n",
			want: "reserved column",
		},
		{
			name: "bad now",
			yaml: "name: x\ndescription: y\nnow: tomorrow\nlookups: [{name: l, direction: next, expect_none: true}]\n",
			want: "now",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
