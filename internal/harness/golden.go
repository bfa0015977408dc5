package harness

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mealdb/internal/lifecycle"
)

// GoldenSuffix is the extension of golden trace files.
const GoldenSuffix = ".golden"

// Render formats result as the plain-text trace stored in golden files.
//
// Entries that reset the view are marked with "*". Error entries are
// rendered by error kind only, so golden files do not depend on the exact
// wording of driver messages.
func Render(result *Result) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "scenario: %s\n", result.Name)
	for _, step := range result.Steps {
		fmt.Fprintf(&buf, "step %d: %s", step.Index, step.Op)
		if step.ErrKind != "" {
			fmt.Fprintf(&buf, " -> %s", step.ErrKind)
		}
		buf.WriteByte('\n')
		for _, ev := range step.Events {
			marker := " "
			if ev.Reset {
				marker = "*"
			}
			text := ev.Text
			if strings.HasPrefix(text, lifecycle.ErrorPrefix) {
				text = fmt.Sprintf("%s[%s]", lifecycle.ErrorPrefix, step.ErrKind)
			}
			fmt.Fprintf(&buf, "  %s %03d %s\n", marker, ev.Seq, text)
		}
	}
	fmt.Fprintf(&buf, "state: %s\n", result.State)
	fmt.Fprintf(&buf, "handles: opened %d, closed %d\n", result.Stats.Opens, result.Stats.Closes)
	return buf.Bytes()
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already-run result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, name, Render(result))
}

// GoldenMismatchError reports a trace that differs from its golden file.
type GoldenMismatchError struct {
	Path     string
	Expected []byte
	Actual   []byte
}

func (e *GoldenMismatchError) Error() string {
	return fmt.Sprintf("trace does not match %s\n--- expected\n%s--- actual\n%s", e.Path, e.Expected, e.Actual)
}

// CheckGolden compares result against dir/{name}.golden outside of tests.
// With update set, the golden file is (re)written instead.
func CheckGolden(dir string, result *Result, update bool) error {
	path := filepath.Join(dir, result.Name+GoldenSuffix)
	actual := Render(result)
	if update {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create golden dir: %w", err)
		}
		if err := os.WriteFile(path, actual, 0o644); err != nil {
			return fmt.Errorf("write golden file: %w", err)
		}
		return nil
	}
	expected, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read golden file: %w", err)
	}
	if !bytes.Equal(expected, actual) {
		return &GoldenMismatchError{Path: path, Expected: expected, Actual: actual}
	}
	return nil
}
