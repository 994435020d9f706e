package tui

import (
	"fmt"
	"io"
)

// PrintBanner writes the Forge ASCII art banner to w.
// Colours follow the terminal's profile; plain text is written to non-terminals.
func PrintBanner(w io.Writer) {
	p := Profile(w)
	// Ember gradient (amber to red)
	lines := []struct{ text, color string }{
		{"   ___                    ", "#fbbf24"},
		{"  | __|__ _ _ __ _ ___    ", "#f59e0b"},
		{"  | _/ _ \\ '_/ _` / -_)   ", "#f97316"},
		{"  |_|\\___/_| \\__, \\___|   ", "#ef4444"},
		{"             |___/        ", "#dc2626"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
