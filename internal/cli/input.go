package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/graph"
	fio "github.com/matzehuels/flowmap/pkg/io"
)

// inputKind classifies a file given on the command line.
type inputKind int

const (
	inputRecords inputKind = iota
	inputGraph
	inputLayout
)

func (k inputKind) String() string {
	switch k {
	case inputGraph:
		return "graph"
	case inputLayout:
		return "layout"
	}
	return "records"
}

// input is a loaded command-line file. Exactly one of Records, Graph, or
// Layout is meaningful, according to Kind.
type input struct {
	Kind    inputKind
	Path    string
	Records []flow.Record
	Graph   graph.Graph
	Layout  graph.Layout
}

// loadInput reads records (CSV, YAML, JSON array) or a graph.json /
// layout.json produced by an earlier command. JSON objects with "nodes"
// are graphs, and those that also carry "positions" are layouts.
func loadInput(path string) (input, error) {
	if strings.TrimSpace(path) == "" {
		return input{}, errors.New(errors.ErrCodeInvalidPath, "input path cannot be empty")
	}
	in := input{Path: path}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return input{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
			}
			return input{}, fmt.Errorf("read %s: %w", path, err)
		}
		switch sniffJSON(data) {
		case inputLayout:
			l, err := graph.UnmarshalLayout(data)
			if err != nil {
				return input{}, fmt.Errorf("%s: %w", path, err)
			}
			in.Kind, in.Layout, in.Graph = inputLayout, l, l.Graph()
			return in, nil
		case inputGraph:
			g, err := graph.ReadGraph(bytes.NewReader(data))
			if err != nil {
				return input{}, fmt.Errorf("%s: %w", path, err)
			}
			in.Kind, in.Graph = inputGraph, g
			return in, nil
		}
		records, err := fio.ReadJSON(bytes.NewReader(data))
		if err != nil {
			return input{}, fmt.Errorf("%s: %w", path, err)
		}
		in.Records = records
		return in, nil
	}

	records, err := fio.ImportRecords(path)
	if err != nil {
		return input{}, err
	}
	in.Records = records
	return in, nil
}

// sniffJSON inspects the top-level keys of a JSON document.
func sniffJSON(data []byte) inputKind {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return inputRecords
	}
	if _, ok := top["nodes"]; !ok {
		return inputRecords
	}
	if _, ok := top["positions"]; ok {
		return inputLayout
	}
	return inputGraph
}

// outputPath derives "<input>.<suffix>" when no explicit path was given.
func outputPath(explicit, input, suffix string) string {
	if explicit != "" {
		return explicit
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	base = strings.TrimSuffix(base, ".graph")
	base = strings.TrimSuffix(base, ".layout")
	return base + "." + suffix
}
