// Package flow consolidates raw data-flow records into a graph.
//
// Input rows describe a single exchange between two systems: source and
// target system, data form, frequency, integration pattern, and an optional
// description. Exports from different tools spell headers differently, so
// each attribute is located through a prioritized alias list (see [Field]).
//
// # Consolidation
//
// [Consolidate] groups flows by ordered (from, to) pair. Each group becomes
// one [graph.Edge] whose integration pattern is "Mixed" when the flows use
// more than one pattern (compared case-insensitively), the single pattern in
// its first-seen casing, or "Unknown". Rows without both endpoints are
// skipped, never reported as errors.
//
//	records, _ := io.ReadRecordsFile("flows.csv")
//	g := flow.ConsolidateRecords(records)
//	if g.IsEmpty() {
//	    // no valid data
//	}
package flow
