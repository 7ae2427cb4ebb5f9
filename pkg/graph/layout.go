package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// EngineForce identifies layouts produced by the force-directed engine.
const EngineForce = "force"

// =============================================================================
// Position
// =============================================================================

// Position is a node's published location on the canvas.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// =============================================================================
// Layout - Positioned Graph
// =============================================================================

// Layout is the serialization format for a laid-out graph.
//
// Positions is keyed by node ID and holds an entry for every node in Nodes.
// Edges are carried along so renderers and API clients need only one payload.
type Layout struct {
	Engine string  `json:"engine" bson:"engine"`
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
	Margin float64 `json:"margin" bson:"margin"`

	Nodes     []Node              `json:"nodes" bson:"nodes"`
	Edges     []Edge              `json:"edges" bson:"edges"`
	Positions map[string]Position `json:"positions" bson:"positions"`

	Seed       uint64 `json:"seed,omitempty" bson:"seed,omitempty"`
	Iterations int    `json:"iterations,omitempty" bson:"iterations,omitempty"`
	Partial    bool   `json:"partial,omitempty" bson:"partial,omitempty"` // stopped before all iterations
}

// Graph returns the graph portion of the layout.
func (l *Layout) Graph() Graph {
	return Graph{Nodes: l.Nodes, Edges: l.Edges}
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// Every node must have a position.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}

	if l.Engine == "" {
		l.Engine = EngineForce
	}
	for _, n := range l.Nodes {
		if _, ok := l.Positions[n.ID]; !ok {
			return Layout{}, fmt.Errorf("layout missing position for node %q", n.ID)
		}
	}

	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
