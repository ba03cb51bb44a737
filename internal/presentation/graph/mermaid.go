package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/arbor/pkg/tree"
	"github.com/aretw0/arbor/pkg/turtle"
)

// Overlay selects extra styling for the generated chart.
type Overlay struct {
	// Leaves marks nodes without children.
	Leaves bool
	// Highlight marks nodes by insertion index.
	Highlight []int
}

// GenerateMermaid produces a Mermaid flowchart of a built tree.
// It applies semantic styling:
// - Root: ((Circle))
// - Leaf: ([Stadium])
// - Default: [Rectangle]
// Labels carry the node position and diameter.
func GenerateMermaid(t *tree.Tree[turtle.Node], overlay *Overlay) (string, error) {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var leaves []int
	for h, n := range t.Nodes() {
		children, err := t.Children(h)
		if err != nil {
			return "", err
		}

		opener, closer := "[", "]"
		switch {
		case h.Index() == 0:
			opener, closer = "((", "))"
		case len(children) == 0:
			opener, closer = "([", "])"
			leaves = append(leaves, h.Index())
		}

		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(h.Index()), opener, label(h.Index(), n), closer)
		for _, c := range children {
			fmt.Fprintf(&sb, "    %s --> %s\n", nodeID(h.Index()), nodeID(c.Index()))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef leaf fill:#dcedc8,stroke:#33691e,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef highlight fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		if overlay.Leaves {
			for _, i := range leaves {
				fmt.Fprintf(&sb, "    class %s leaf;\n", nodeID(i))
			}
		}

		seen := make(map[int]bool)
		for _, i := range overlay.Highlight {
			if i < 0 || i >= t.Len() || seen[i] {
				continue
			}
			seen[i] = true
			fmt.Fprintf(&sb, "    class %s highlight;\n", nodeID(i))
		}
	}

	return sb.String(), nil
}

func nodeID(i int) string {
	return "n" + strconv.Itoa(i)
}

func label(i int, n turtle.Node) string {
	return fmt.Sprintf("#%d <br/> (%s, %s, %s) <br/> d=%s", i,
		num(n.Position.X()), num(n.Position.Y()), num(n.Position.Z()), num(n.Diameter))
}

// num rounds to two decimals and drops trailing zeros.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	if s == "-0" {
		s = "0"
	}
	return s
}
