// Package harness runs neighbour-lookup scenarios against event stores.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	now: "2026-01-01T00:00:00Z"      # optional, fixed clock reading
//	retention_days: 90                # optional, 0 means unbounded
//	events:
//	  - id: "aaaa"                    # optional, generated if empty
//	    project: 1
//	    at: "-2m"                     # offset from now, or RFC 3339
//	    fingerprint: ["boom"]         # optional, hashed into group_id
//	    attrs: { platform: python }
//	lookups:
//	  - name: prev of b
//	    ref: "bbbb"                   # omit for an absent reference
//	    direction: prev
//	    filter_keys: { project_id: [1, 2] }
//	    conditions: ["platform = python"]
//	    expect: "1/aaaa"              # or expect_none / expect_error
//
// # Backends
//
// Every scenario runs against the in-memory reference store and against a
// fresh in-memory SQLite database. RunAll fails a scenario when the two
// backends disagree on any lookup.
//
// # Deterministic Testing
//
// The clock is fixed (testutil.FixedClock) and generated event ids are
// sequential (testutil.SequentialIDs), so traces are byte-identical across
// runs and can be compared against golden files.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/end_to_end.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.RunAll(context.Background(), scenario)
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
