package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the arbor banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{`                 _               `, "#a3e635"},
		{`   __ _ _ __ ___| |__   ___  _ __ `, "#84cc16"},
		{`  / _' | '__/ __| '_ \ / _ \| '__|`, "#65a30d"},
		{` | (_| | | | (__| |_) | (_) | |   `, "#4d7c0f"},
		{`  \__,_|_|  \___|_.__/ \___/|_|   `, "#a16207"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
