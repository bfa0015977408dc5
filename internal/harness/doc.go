// Package harness runs scripted lifecycle scenarios against a real store
// and checks the progress they emit.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: corrupt_store
//	description: "What this scenario validates"
//	steps:
//	  - op: corrupt          # run | close | delete | corrupt
//	  - op: run
//	    expect_error: corrupt
//	expect:
//	  state: ERROR
//	  never_state: [MIGRATING]
//	  emitted:
//	    - Opening database
//	    - Database integrity check
//	    - "Error: *"          # prefix match
//	    - Database CLOSED
//	  snapshot:
//	    - "Error: *"
//	    - Database CLOSED
//
// The pattern "<meals>" stands for one entry per seeded meal, in any order.
//
// Every run also checks that a handle is held exactly in the states that
// require one and that every opened handle was closed.
//
// # Deterministic Testing
//
// Each scenario runs in a fresh data directory with fixed run IDs and a
// fixed wall clock, so Render produces identical traces across runs for
// golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/fresh_store.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
