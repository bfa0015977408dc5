package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/mealdb/internal/schema"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // emitted, snapshot, state, never_state
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Texts    []string // Full entry list for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Texts) > 0 {
		fmt.Fprintf(&buf, "\nEntries:\n")
		for i, text := range e.Texts {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, text)
		}
	}
	return buf.String()
}

// evaluate checks scenario.Expect against result and records failures.
func evaluate(scenario *Scenario, result *Result) {
	meals := seededTexts()
	exp := scenario.Expect

	if err := matchEntries("emitted", exp.Emitted, result.Texts(), meals); err != nil {
		result.AddError(err.Error())
	}
	if exp.Snapshot != nil {
		if err := matchEntries("snapshot", exp.Snapshot, result.Snapshot, meals); err != nil {
			result.AddError(err.Error())
		}
	}
	if got := result.State.String(); got != exp.State {
		result.AddError((&AssertionError{
			Type:     "state",
			Expected: exp.State,
			Actual:   got,
		}).Error())
	}
	for _, name := range exp.NeverState {
		for _, tr := range result.Transitions {
			if tr.To.String() == name {
				result.AddError((&AssertionError{
					Type:     "never_state",
					Expected: fmt.Sprintf("no transition into %s", name),
					Actual:   fmt.Sprintf("%s -> %s", tr.From, tr.To),
				}).Error())
				break
			}
		}
	}
	for _, tr := range result.Transitions {
		if tr.HandleHeld != tr.To.HoldsHandle() {
			result.AddError((&AssertionError{
				Type:     "handle",
				Expected: fmt.Sprintf("handle held=%v in %s", tr.To.HoldsHandle(), tr.To),
				Actual:   fmt.Sprintf("handle held=%v", tr.HandleHeld),
			}).Error())
		}
	}
	if live := result.Stats.Live(); live != 0 {
		result.AddError((&AssertionError{
			Type:     "handle",
			Expected: "every opened handle closed",
			Actual:   fmt.Sprintf("%d handle(s) still open", live),
		}).Error())
	}
}

// matchEntries matches texts against patterns in order. A pattern ending in
// "*" is a prefix match; MealsPattern consumes one entry per seeded meal in
// any order.
func matchEntries(kind string, patterns, texts, meals []string) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: kind, Expected: expected, Actual: actual, Texts: texts}
	}

	t := 0
	for p, pattern := range patterns {
		if pattern == MealsPattern {
			if t+len(meals) > len(texts) {
				return fail(fmt.Sprintf("%d meals at entry %d", len(meals), t+1), "too few entries")
			}
			got := append([]string(nil), texts[t:t+len(meals)]...)
			want := append([]string(nil), meals...)
			sort.Strings(got)
			sort.Strings(want)
			for i := range want {
				if got[i] != want[i] {
					return fail(fmt.Sprintf("meals %v", meals), fmt.Sprintf("%v", texts[t:t+len(meals)]))
				}
			}
			t += len(meals)
			continue
		}

		if t >= len(texts) {
			return fail(fmt.Sprintf("pattern %d %q", p+1, pattern), "no more entries")
		}
		if !matchText(pattern, texts[t]) {
			return fail(fmt.Sprintf("entry %d to match %q", t+1, pattern), fmt.Sprintf("%q", texts[t]))
		}
		t++
	}
	if t != len(texts) {
		return fail(fmt.Sprintf("%d entries", t), fmt.Sprintf("%d entries", len(texts)))
	}
	return nil
}

func matchText(pattern, text string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(text, prefix)
	}
	return pattern == text
}

// seededTexts renders the embedded catalogue the way the query step does.
// The catalogue is compiled into the binary, so a failure here is a build
// defect.
func seededTexts() []string {
	meals, err := schema.DefaultSeed()
	if err != nil {
		panic(fmt.Sprintf("harness: embedded seed: %v", err))
	}
	out := make([]string, len(meals))
	for i, m := range meals {
		out[i] = m.String()
	}
	return out
}
