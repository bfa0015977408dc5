package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mealdb/internal/lifecycle"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, `
name: test_scenario
description: "Test scenario for validation"
steps:
  - op: corrupt
  - op: run
    expect_error: corrupt
expect:
  state: ERROR
  never_state: [MIGRATING]
  emitted:
    - Opening database
    - "Error: *"
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, OpCorrupt, scenario.Steps[0].Op)
	assert.Equal(t, lifecycle.KindCorrupt, scenario.Steps[1].ExpectError)
	assert.Equal(t, "ERROR", scenario.Expect.State)
	assert.Equal(t, []string{"MIGRATING"}, scenario.Expect.NeverState)
	assert.Equal(t, []string{"Opening database", "Error: *"}, scenario.Expect.Emitted)
	assert.Nil(t, scenario.Expect.Snapshot)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: x
steps: [{op: run}]
expect: {state: CLOSED}
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: x
steps: [{op: run}]
expect: {state: CLOSED}
`,
			wantErr: "description is required",
		},
		{
			name: "no steps",
			content: `
name: x
description: x
steps: []
expect: {state: CLOSED}
`,
			wantErr: "steps list is required",
		},
		{
			name: "unknown op",
			content: `
name: x
description: x
steps: [{op: reboot}]
expect: {state: CLOSED}
`,
			wantErr: `unknown op "reboot"`,
		},
		{
			name: "blank op",
			content: `
name: x
description: x
steps: [{expect_error: busy}]
expect: {state: CLOSED}
`,
			wantErr: "steps[0]: op is required",
		},
		{
			name: "unknown error kind",
			content: `
name: x
description: x
steps: [{op: run, expect_error: explode}]
expect: {state: CLOSED}
`,
			wantErr: `unknown expect_error "explode"`,
		},
		{
			name: "missing state",
			content: `
name: x
description: x
steps: [{op: run}]
expect: {emitted: []}
`,
			wantErr: "expect.state is required",
		},
		{
			name: "unknown state",
			content: `
name: x
description: x
steps: [{op: run}]
expect: {state: HALTED}
`,
			wantErr: `unknown state "HALTED"`,
		},
		{
			name: "unknown never_state",
			content: `
name: x
description: x
steps: [{op: run}]
expect: {state: CLOSED, never_state: [PAUSED]}
`,
			wantErr: `unknown state "PAUSED"`,
		},
		{
			name: "unknown field",
			content: `
name: x
description: x
stepz: [{op: run}]
expect: {state: CLOSED}
`,
			wantErr: "field stepz not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_Fixtures(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)
		assert.Equal(t, filepath.Base(path), scenario.Name+".yaml", "file name must match scenario name")
	}
}
