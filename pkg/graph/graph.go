package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a Graph to indented JSON bytes.
// Node and edge order is preserved so identical inputs hash identically.
func MarshalGraph(g Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a Graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a Graph as JSON to an io.Writer.
// Use MarshalGraph for in-memory serialization or WriteGraphFile for files.
func WriteGraph(g Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a JSON file and returns the decoded Graph.
// Returns validation errors for duplicate nodes, duplicate pairs, or
// dangling edges.
func ReadGraphFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return Graph{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader and checks its node IDs.
// Edges naming unknown nodes are kept.
// Use ReadGraphFile for files or pass bytes.NewReader for in-memory data.
func ReadGraph(r io.Reader) (Graph, error) {
	return readGraphFrom(r)
}

// UnmarshalGraph deserializes JSON bytes to a Graph without validation.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g Graph, w io.Writer) error {
	if g.Nodes == nil {
		g.Nodes = []Node{}
	}
	if g.Edges == nil {
		g.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(g); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (Graph, error) {
	var g Graph
	if err := json.NewDecoder(r).Decode(&g); err != nil {
		return Graph{}, fmt.Errorf("decode: %w", err)
	}
	if err := g.ValidateNodes(); err != nil {
		return Graph{}, fmt.Errorf("invalid graph: %w", err)
	}
	return g, nil
}
