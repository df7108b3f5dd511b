package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Semantic status colors, grounded on codenerd's cmd/nerd/ui/styles.go
// palette (Success/Destructive lipgloss.Color constants); trimmed to the
// two states this CLI's plain stdout lines actually report.
var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#e53935")).Bold(true)
)

// stylize applies style only when stderr/stdout is a real terminal, so
// piped or redirected output stays plain text.
func stylize(style lipgloss.Style, fd *os.File, s string) string {
	if !term.IsTerminal(int(fd.Fd())) {
		return s
	}
	return style.Render(s)
}
