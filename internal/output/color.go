package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/sys/unix"
)

// Styles holds the lipgloss styles for output formatting.
type Styles struct {
	Path      lipgloss.Style
	Line      lipgloss.Style
	Separator lipgloss.Style
	Match     lipgloss.Style
	Group     lipgloss.Style
}

// NewStyles creates the default color styles rendering for w. With force set
// ANSI colors are emitted even when w is not a terminal.
func NewStyles(w io.Writer, force bool) Styles {
	r := lipgloss.NewRenderer(w)
	if force {
		r.SetColorProfile(termenv.ANSI)
	}
	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return Styles{
		Path:      base.Foreground(lipgloss.Color("5")),            // magenta
		Line:      base.Foreground(lipgloss.Color("2")),            // green
		Separator: base.Foreground(lipgloss.Color("6")),            // cyan
		Match:     base.Foreground(lipgloss.Color("1")).Bold(true), // bold red
		Group:     base.Foreground(lipgloss.Color("3")).Bold(true).Underline(true),
	}
}

// IsTerminal checks if the given file descriptor is a terminal using ioctl.
func IsTerminal(fd uintptr) bool {
	_, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	return err == nil
}
