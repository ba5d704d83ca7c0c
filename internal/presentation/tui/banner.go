package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the formtree ASCII art banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	// Teal to blue, one step per line
	lines := []struct{ text, color string }{
		{"   __                      _                  ", "#2dd4bf"},
		{"  / _| ___  _ __ _ __ ___ | |_ _ __ ___  ___  ", "#22d3ee"},
		{" | |_ / _ \\| '__| '_ ` _ \\| __| '__/ _ \\/ _ \\ ", "#38bdf8"},
		{" |  _| (_) | |  | | | | | | |_| | |  __/  __/ ", "#60a5fa"},
		{" |_|  \\___/|_|  |_| |_| |_|\\__|_|  \\___|\\___| ", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
