package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/colsense/colsense/internal/session"
)

// Options configure Run.
type Options struct {
	Session *session.Session
	Rerun   RerunFunc
	// ExportDir overrides the saved export directory when set.
	ExportDir string
}

// Run opens the results browser on entry and blocks until the user quits.
func Run(entry session.Entry, opts Options) error {
	m := NewModel(entry, opts.Session, opts.Rerun)
	m.prefs = LoadPrefs()
	m.exportDirOverride = opts.ExportDir
	m.savePrefs = SavePrefs
	m.updateViewportContent()
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
