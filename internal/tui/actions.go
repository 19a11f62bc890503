package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/colsense/colsense/internal/report"
)

// writeClipboard is swapped in tests.
var writeClipboard = clipboard.WriteAll

func (m Model) exportDir() string {
	if m.exportDirOverride != "" {
		return m.exportDirOverride
	}
	if m.prefs.ExportDir != "" {
		return m.prefs.ExportDir
	}
	return "."
}

// copyReasoning copies the selected column's reasoning to the clipboard.
func (m Model) copyReasoning() tea.Cmd {
	r := m.selected()
	if r == nil {
		return func() tea.Msg { return statusMsg("No column selected") }
	}
	if err := writeClipboard(r.Reasoning); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	name := r.ColumnName
	return func() tea.Msg { return statusMsg(fmt.Sprintf("Copied reasoning for %s", name)) }
}

// copyResult copies the selected result as indented JSON.
func (m Model) copyResult() tea.Cmd {
	r := m.selected()
	if r == nil {
		return func() tea.Msg { return statusMsg("No column selected") }
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Copy error: %v", err)) }
	}
	if err := writeClipboard(string(data)); err != nil {
		return func() tea.Msg { return statusMsg(fmt.Sprintf("Clipboard error: %v", err)) }
	}
	return func() tea.Msg { return statusMsg("Copied result to clipboard") }
}

// export writes the whole analysis, not just the filtered view, into the
// export directory.
func (m Model) export(f report.Format) tea.Cmd {
	e := m.entry
	dir := m.exportDir()
	return func() tea.Msg {
		if f == report.FormatCSV && e.Table == nil {
			return statusMsg("CSV export needs tabular input")
		}
		now := time.Now()
		var buf bytes.Buffer
		if err := report.Export(&buf, f, e.Filename, e.Table, e.ColumnMetadata, e.ClassificationResults, now); err != nil {
			return statusMsg(fmt.Sprintf("Export error: %v", err))
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return statusMsg(fmt.Sprintf("Write error: %v", err))
		}
		path := filepath.Join(dir, f.Filename(e.Filename, now))
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return statusMsg(fmt.Sprintf("Write error: %v", err))
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		return statusMsg(fmt.Sprintf("Exported %s to %s", f, abs))
	}
}
