// Package pkg provides the core libraries for flowmap data flow visualization.
//
// # Overview
//
// flowmap turns inventories of inter-application data flows, the kind kept
// in spreadsheets by integration and architecture teams, into a directed
// graph of systems. Flows between the same ordered pair of systems are
// consolidated into one edge, the graph is laid out with a force-directed
// simulation, and the result is rendered, analysed, versioned, and diffed.
//
// # Architecture
//
// The typical data flow through flowmap:
//
//	CSV / JSON / YAML records
//	         ↓
//	    [io] package (import rows as records)
//	         ↓
//	    [flow] package (normalize and consolidate into a graph)
//	         ↓
//	    [filter] package (optional pattern and frequency filter)
//	         ↓
//	    [layout/force] package (force-directed positions)
//	         ↓
//	    [render/nodelink] package (DOT, SVG, PNG)
//
// [pipeline] wires these stages together behind a [cache] and is used by
// both the CLI and the HTTP API, so the two produce identical artifacts.
//
// # Quick Start
//
//	records, _ := io.ImportRecords("flows.csv")
//	g := flow.ConsolidateRecords(records)
//	positions := force.Layout(g.Nodes, g.Edges, 1200, 800)
//
// # Main Packages
//
// [graph] - Serialization types for consolidated graphs and layouts.
//
// [flow] - Header alias resolution, record normalization, and consolidation
// of parallel flows into edges with a merged integration pattern.
//
// [layout/force] - Seeded force-directed layout with optional parallel
// repulsion and cancellation that keeps partial positions.
//
// [analysis] - Network statistics, dashboard metrics, executive risk
// metrics, and recommendations.
//
// [snapshot] - Named graph versions in file, Redis, or MongoDB stores, and
// structural diffs between two graphs.
//
// [generate] - Seeded synthetic inventories for demos and tests.
//
// [cache] - Content-addressed caching of pipeline stage outputs.
//
// [observability] - Metrics hooks with a Prometheus implementation.
//
// [errors] - Coded errors shared by the CLI and the HTTP API.
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/graph
// [flow]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/flow
// [layout/force]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/layout/force
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/cache
// [analysis]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/analysis
// [snapshot]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/snapshot
// [generate]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/generate
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/errors
//
// [io]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/io
// [filter]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/filter
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/flowmap/pkg/render/nodelink
package pkg
