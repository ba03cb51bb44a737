package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/dto"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/turtle"
)

// buildJSON is the document written by --format json.
type buildJSON struct {
	ID          string   `json:"id"`
	Species     string   `json:"species"`
	Fingerprint string   `json:"fingerprint"`
	Iterations  int      `json:"iterations"`
	Cached      bool     `json:"cached"`
	Tree        dto.Tree `json:"tree"`
}

func buildOnce(ctx context.Context, engine *arbor.Engine, opts RunOptions) error {
	sp, err := LoadSpecies(opts.Species)
	if err != nil {
		return err
	}
	b, err := engine.Build(ctx, sp, iterationsFor(opts, sp.Iterations))
	if err != nil {
		return err
	}
	return WriteBuild(opts.Out, b, opts.Format)
}

// WriteBuild renders a build as edge lines, JSON or a Mermaid chart.
func WriteBuild(w io.Writer, b *arbor.Build, format string) error {
	switch format {
	case FormatJSON:
		tree, err := dto.FromTree(b.Tree)
		if err != nil {
			return err
		}
		return writeJSON(w, buildJSON{
			ID:          b.ID,
			Species:     b.Species,
			Fingerprint: b.Fingerprint,
			Iterations:  b.Iterations,
			Cached:      b.Cached,
			Tree:        tree,
		})
	case FormatMermaid:
		chart, err := graph.GenerateMermaid(b.Tree, &graph.Overlay{Leaves: true})
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, chart)
		return err
	default:
		for e := range b.Tree.Edges() {
			if _, err := fmt.Fprintf(w, "%s -> %s\n", point(e.Start), point(e.End)); err != nil {
				return err
			}
		}
		return nil
	}
}

func point(n turtle.Node) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f) d=%.3f", n.Position.X(), n.Position.Y(), n.Position.Z(), n.Diameter)
}
