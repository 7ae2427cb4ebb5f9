package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/flowmap/pkg/graph"
	"github.com/matzehuels/flowmap/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, l graph.Layout, opts Options) (map[string][]byte, error) {
	nlOpts := nodelink.Options{FlowCounts: opts.FlowCounts, Tooltips: opts.Tooltips}

	var dot string
	artifacts := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		var data []byte
		var err error

		if format != FormatJSON && dot == "" {
			dot = nodelink.ToDOT(l, nlOpts)
		}

		switch format {
		case FormatJSON:
			data, err = graph.MarshalLayout(l)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
