package terminal

import (
	"os"

	"golang.org/x/term"
)

// Size returns the dimensions of f when it is a terminal
func Size(f *os.File) (cols, rows uint16, ok bool) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return 0, 0, false
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	return uint16(w), uint16(h), true
}

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
