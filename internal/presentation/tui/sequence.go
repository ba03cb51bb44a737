package tui

import (
	"io"
	"strings"

	"github.com/aretw0/arbor/pkg/grammar"
	"github.com/aretw0/arbor/pkg/turtle"
	"github.com/muesli/termenv"
)

// Highlighter colors symbol sequences by role: segments, diameters,
// rotations, branch brackets and growth symbols.
type Highlighter struct {
	out *termenv.Output
}

// NewHighlighter writes colors supported by w's terminal.
// Non-terminals such as files and pipes get plain text.
func NewHighlighter(w io.Writer) *Highlighter {
	return &Highlighter{out: termenv.NewOutput(w)}
}

// NewHighlighterWithProfile forces a color profile.
func NewHighlighterWithProfile(w io.Writer, p termenv.Profile) *Highlighter {
	return &Highlighter{out: termenv.NewOutput(w, termenv.WithProfile(p))}
}

func (h *Highlighter) color(tag string) string {
	switch tag {
	case turtle.TagForward:
		return "#a16207"
	case turtle.TagDiameter:
		return "#78716c"
	case turtle.TagRotate:
		return "#38bdf8"
	case turtle.TagPush, turtle.TagPop:
		return "#f472b6"
	default:
		return "#84cc16"
	}
}

// Symbol renders one symbol.
func (h *Highlighter) Symbol(s grammar.Symbol) string {
	st := h.out.String(s.String()).Foreground(h.out.Color(h.color(s.Tag)))
	if s.Tag == turtle.TagPush || s.Tag == turtle.TagPop {
		st = st.Bold()
	}
	return st.String()
}

// Sequence renders symbols separated by spaces.
func (h *Highlighter) Sequence(seq []grammar.Symbol) string {
	parts := make([]string, len(seq))
	for i, s := range seq {
		parts[i] = h.Symbol(s)
	}
	return strings.Join(parts, " ")
}
