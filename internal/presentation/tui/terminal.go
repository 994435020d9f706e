package tui

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsInteractive reports whether w is a terminal.
func IsInteractive(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// Profile returns the colour profile for w: the environment's profile on a
// terminal, plain ASCII otherwise (pipes, files, test buffers).
func Profile(w io.Writer) termenv.Profile {
	if !IsInteractive(w) {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
