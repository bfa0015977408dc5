package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mealdb/internal/lifecycle"
	"github.com/roach88/mealdb/internal/store"
)

func TestMatchEntries(t *testing.T) {
	meals := []string{"{A, 1, 2}", "{B, 3, 4}"}

	tests := []struct {
		name     string
		patterns []string
		texts    []string
		wantErr  string
	}{
		{name: "exact", patterns: []string{"x", "y"}, texts: []string{"x", "y"}},
		{name: "prefix", patterns: []string{"Error: *"}, texts: []string{"Error: boom"}},
		{name: "meals any order", patterns: []string{"a", MealsPattern, "z"}, texts: []string{"a", "{B, 3, 4}", "{A, 1, 2}", "z"}},
		{name: "both empty"},
		{name: "mismatch", patterns: []string{"x"}, texts: []string{"y"}, wantErr: `entry 1 to match "x"`},
		{name: "extra entries", patterns: []string{"x"}, texts: []string{"x", "y"}, wantErr: "Expected: 1 entries"},
		{name: "too few entries", patterns: []string{"x", "y"}, texts: []string{"x"}, wantErr: "no more entries"},
		{name: "too few meals", patterns: []string{MealsPattern}, texts: []string{"{A, 1, 2}"}, wantErr: "too few entries"},
		{name: "wrong meal", patterns: []string{MealsPattern}, texts: []string{"{A, 1, 2}", "{C, 0, 0}"}, wantErr: "meals"},
		{name: "star is prefix only", patterns: []string{"Error*"}, texts: []string{"No Error"}, wantErr: "entry 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := matchEntries("emitted", tt.patterns, tt.texts, meals)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var ae *AssertionError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, "emitted", ae.Type)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEvaluate_HandleLeak(t *testing.T) {
	result := NewResult("leak")
	result.State = lifecycle.Closed
	result.Stats = store.Stats{Opens: 2, Closes: 1}
	result.Transitions = []lifecycle.Transition{
		{From: lifecycle.Closed, To: lifecycle.Opening, HandleHeld: true},
	}

	evaluate(&Scenario{Expect: Expectation{State: "CLOSED"}}, result)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "handle held=false in OPENING")
	assert.Contains(t, result.Errors[1], "1 handle(s) still open")
}
