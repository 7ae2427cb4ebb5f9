// Package graph provides serialization types for consolidated flow graphs
// and their layouts.
//
// This package defines the canonical wire format for flowmap's graph data,
// used for JSON files, API payloads, snapshots, and cache entries. The same
// structs carry bson tags so snapshot stores can persist them unchanged.
//
// # Core Types
//
//   - [Graph]: nodes plus consolidated edges, in first-seen order
//   - [Node]: a system identified by an exact, case-sensitive ID
//   - [Edge]: every [Flow] between one ordered (from, to) pair
//   - [Layout]: a graph plus a [Position] for each node
//
// # Edge Identity
//
// Edges are keyed by [EdgeKey], which joins from and to with a NUL byte.
// (A, B) and (B, A) are distinct edges.
//
// # Graph Serialization
//
//	{
//	  "nodes": [{"id": "CRM", "label": "CRM"}, {"id": "ERP", "label": "ERP"}],
//	  "edges": [{"from": "CRM", "to": "ERP", "flows": [...], "flow_count": 1, ...}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("graph.json")    // File → Graph (validated)
//	graph.WriteGraphFile(g, "output.json")       // Graph → File
//	data, _ := graph.MarshalGraph(g)             // Graph → []byte
//	parsed, _ := graph.UnmarshalGraph(data)      // []byte → Graph
//
// # Layout Serialization
//
//	l, _ := graph.ReadLayoutFile("layout.json")
//	for _, n := range l.Nodes {
//	    p := l.Positions[n.ID]
//	    fmt.Println(n.ID, p.X, p.Y)
//	}
package graph
