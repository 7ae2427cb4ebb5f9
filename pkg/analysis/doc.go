// Package analysis derives summary metrics from a consolidated flow graph.
//
// All functions are pure and operate on [graph.Graph] values, so they apply
// equally to full inventories, filtered subgraphs, and snapshot versions.
//
// # Views
//
//   - [Stats]: headline counts shown next to a rendered graph
//   - [Dashboard]: KPIs, distributions, and the most connected systems
//   - [Executive]: coupling risk, complexity, and per-system criticality
//   - [Recommendations]: actionable findings derived from the above
//
// Degree counts every edge endpoint once, so a system that both sends to and
// receives from the same peer has degree 2 for that pair. Systems without
// edges never appear in degree rankings.
package analysis
