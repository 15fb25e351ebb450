// Package style holds the terminal styles shared by the commands.
package style

import "github.com/charmbracelet/lipgloss"

var (
	// Bold is used for headings and result markers.
	Bold = lipgloss.NewStyle().Bold(true)

	// Dim is used for secondary details.
	Dim = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	// Success marks completed operations.
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)

	// Warning marks skipped or partial operations.
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	// Error marks failures.
	Error = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	// Key renders tracker issue keys.
	Key = lipgloss.NewStyle().Foreground(lipgloss.Color("51"))
)

// Status glyphs.
var (
	SuccessPrefix = Success.Render("✓")
	WarningPrefix = Warning.Render("⚠")
	ErrorPrefix   = Error.Render("✗")
)
