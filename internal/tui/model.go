package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/colsense/colsense/internal/report"
	"github.com/colsense/colsense/internal/session"
	"github.com/colsense/colsense/internal/types"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	detailPaneBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	emptyTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Align(lipgloss.Center)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)
)

const (
	defaultStatus = "q: quit | ?: help | j/k: navigate | /: search | e: export | y: copy | r: rerun | a: history"
	failedStatus  = "q: quit | r: rerun | a: history | e: export"
)

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// RerunFunc classifies the current input again and returns the new history
// entry.
type RerunFunc func(ctx context.Context) (session.Entry, error)

// Sort columns.
const (
	SortDefault    = ""
	SortLevel      = "level"
	SortColumn     = "column"
	SortConfidence = "confidence"
)

// levelKeys maps the number keys to level filters.
var levelKeys = map[string]types.SensitivityLevel{
	"1": types.LevelPII,
	"2": types.LevelFinanceCritical,
	"3": types.LevelConfidential,
	"4": types.LevelInternal,
	"5": types.LevelPublic,
}

// Model is the state of the results browser.
type Model struct {
	table    table.Model
	viewport viewport.Model
	spinner  spinner.Model

	entry             session.Entry
	results           []types.ClassificationResult // display order after sorting
	filtered          []types.ClassificationResult // nil = no filter
	session           *session.Session
	rerunFunc         RerunFunc
	prefs             Prefs
	savePrefs         func(Prefs) error
	exportDirOverride string
	quitting          bool
	ready             bool
	classifying       bool
	failed            bool
	height            int
	width             int

	statusMessage string
	statusTimeout *time.Time

	showHelp         bool
	showHistory      bool
	history          []session.Entry
	historySelection int
	showExportMenu   bool

	searchMode  bool
	searchInput textinput.Model
	searchQuery string
	levelFilter types.SensitivityLevel

	sortColumn  string
	sortReverse bool
}

// NewModel builds a browser over entry. sess backs the history popup and
// may be nil; so may rerun.
func NewModel(entry session.Entry, sess *session.Session, rerun RerunFunc) Model {
	columns := []table.Column{
		{Title: "Level", Width: 18},
		{Title: "Column", Width: 28},
		{Title: "Conf", Width: 6},
		{Title: "Reasoning", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Left)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)
	s.Cell = lipgloss.NewStyle().
		Padding(0, 1)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	ti := textinput.New()
	ti.Placeholder = "Search column, level, or reasoning..."
	ti.CharLimit = 100
	ti.Width = 50
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	m := Model{
		table:       t,
		spinner:     sp,
		session:     sess,
		rerunFunc:   rerun,
		searchInput: ti,
		prefs:       DefaultPrefs(),
		savePrefs:   func(Prefs) error { return nil },
	}
	m.load(entry)
	return m
}

// load replaces the displayed analysis, keeping filters and sort.
func (m *Model) load(e session.Entry) {
	m.entry = e
	m.failed = e.Failed()
	if m.failed {
		m.results = nil
		m.statusMessage = failedStatus
	} else {
		m.results = append([]types.ClassificationResult(nil), e.ClassificationResults...)
		m.statusMessage = defaultStatus
	}
	m.sortResults()
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

type entryMsg session.Entry

type statusMsg string

func (m *Model) rerun() tea.Cmd {
	fn := m.rerunFunc
	return func() tea.Msg {
		if fn == nil {
			return statusMsg("Rerun not available")
		}
		e, err := fn(context.Background())
		if err != nil {
			return statusMsg(fmt.Sprintf("Rerun error: %v", err))
		}
		return entryMsg(e)
	}
}

func (m *Model) displayResults() []types.ClassificationResult {
	if m.filtered != nil {
		return m.filtered
	}
	return m.results
}

func (m *Model) selected() *types.ClassificationResult {
	rs := m.displayResults()
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(rs) {
		return nil
	}
	return &rs[idx]
}

func (m *Model) applyFilters() {
	if m.searchQuery == "" && m.levelFilter == "" {
		m.filtered = nil
		m.rebuildTableRows()
		return
	}
	query := strings.ToLower(m.searchQuery)
	filtered := []types.ClassificationResult{}
	for _, r := range m.results {
		if m.levelFilter != "" && r.SensitivityLevel != m.levelFilter {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(r.ColumnName), query) &&
			!strings.Contains(strings.ToLower(string(r.SensitivityLevel)), query) &&
			!strings.Contains(strings.ToLower(r.Reasoning), query) {
			continue
		}
		filtered = append(filtered, r)
	}
	m.filtered = filtered
	m.rebuildTableRows()
}

func (m *Model) clearFilters() {
	m.searchQuery = ""
	m.levelFilter = ""
	m.filtered = nil
	m.rebuildTableRows()
}

func (m *Model) rebuildTableRows() {
	rs := m.displayResults()
	rows := make([]table.Row, len(rs))
	for i, r := range rs {
		rows[i] = table.Row{
			string(r.SensitivityLevel),
			r.ColumnName,
			fmt.Sprintf("%d/5", r.Confidence),
			strings.ReplaceAll(r.Reasoning, "\n", " "),
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rs) {
		m.table.SetCursor(0)
	}
	m.updateViewportContent()
}

func (m *Model) cycleSortColumn() {
	switch m.sortColumn {
	case SortDefault:
		m.sortColumn = SortLevel
	case SortLevel:
		m.sortColumn = SortColumn
	case SortColumn:
		m.sortColumn = SortConfidence
	case SortConfidence:
		m.sortColumn = SortDefault
	}
	m.sortReverse = false
	m.sortResults()
}

func (m *Model) toggleSortReverse() {
	m.sortReverse = !m.sortReverse
	m.sortResults()
}

// sortResults orders results; the default is model order. Level sorts put
// the most sensitive first.
func (m *Model) sortResults() {
	if m.sortColumn == SortDefault && !m.failed {
		m.results = append(m.results[:0:0], m.entry.ClassificationResults...)
	}
	sort.SliceStable(m.results, func(i, j int) bool {
		a, b := m.results[i], m.results[j]
		var less bool
		switch m.sortColumn {
		case SortLevel:
			less = a.SensitivityLevel.Rank() > b.SensitivityLevel.Rank()
		case SortColumn:
			less = strings.ToLower(a.ColumnName) < strings.ToLower(b.ColumnName)
		case SortConfidence:
			less = a.Confidence > b.Confidence
		default:
			return false
		}
		if m.sortReverse {
			return !less
		}
		return less
	})
	m.applyFilters()
}

func (m *Model) getSortIndicator() string {
	if m.sortColumn == SortDefault {
		return ""
	}
	arrow := "^"
	if m.sortReverse {
		arrow = "v"
	}
	return fmt.Sprintf(" [%s %s]", m.sortColumn, arrow)
}

// jumpToNextSensitive moves to the next PII, Finance-critical or
// Confidential row (direction: 1=forward, -1=backward).
func (m *Model) jumpToNextSensitive(direction int) bool {
	rs := m.displayResults()
	n := len(rs)
	if n == 0 {
		return false
	}
	current := m.table.Cursor()
	for i := 1; i <= n; i++ {
		idx := ((current+direction*i)%n + n) % n
		if rs[idx].SensitivityLevel.IsSensitive() {
			m.table.SetCursor(idx)
			m.updateViewportContent()
			return true
		}
	}
	return false
}

func (m *Model) metadataFor(name string) (types.ColumnMetadata, bool) {
	for _, c := range m.entry.ColumnMetadata {
		if c.Name == name {
			return c, true
		}
	}
	return types.ColumnMetadata{}, false
}

func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	if m.failed {
		m.viewport.SetContent(m.failureDetail())
		return
	}
	if m.prefs.ShowCharts {
		opts := report.ChartOptions{Width: max(10, m.viewport.Width-30)}
		m.viewport.SetContent(report.LevelChart(m.displayResults(), opts) + "\n" + report.ConfidenceChart(m.displayResults(), opts))
		return
	}
	r := m.selected()
	if r == nil {
		m.viewport.SetContent("")
		return
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s\n\n", titleStyle.Render("Column Details")))
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Column:"), r.ColumnName))
	b.WriteString(fmt.Sprintf("%s %s\n", keyStyle.Render("Level:"), report.Colorize(r.SensitivityLevel, string(r.SensitivityLevel))))
	b.WriteString(fmt.Sprintf("%s %d/5 %s\n", keyStyle.Render("Confidence:"), r.Confidence, confidenceBar(r.Confidence)))

	reasoning := r.Reasoning
	if w := m.viewport.Width - 4; w > 20 {
		reasoning = lipgloss.NewStyle().Width(w).Render(reasoning)
	}
	b.WriteString(fmt.Sprintf("\n%s\n%s\n", keyStyle.Render("Reasoning:"), reasoning))

	if meta, ok := m.metadataFor(r.ColumnName); ok {
		b.WriteString(fmt.Sprintf("\n%s %s\n", keyStyle.Render("Metadata sent:"), dimStyle.Render("(type "+meta.Type+")")))
		if js, err := json.MarshalIndent(meta, "", "  "); err == nil {
			b.WriteString(highlightJSON(string(js)))
		}
	} else {
		b.WriteString("\n" + dimStyle.Render("Column not in the submitted metadata.") + "\n")
	}
	m.viewport.SetContent(b.String())
}

func (m *Model) failureDetail() string {
	var b strings.Builder
	label := "Classification failed"
	if len(m.entry.ClassificationResults) > 0 && m.entry.ClassificationResults[0].SensitivityLevel == types.LevelBlocked {
		label = "Classification blocked"
	}
	b.WriteString(failureStyle.Render(label) + "\n\n")
	if len(m.entry.ClassificationResults) > 0 {
		reason := m.entry.ClassificationResults[0].Reasoning
		if w := m.viewport.Width - 4; w > 20 {
			reason = lipgloss.NewStyle().Width(w).Render(reason)
		}
		b.WriteString(reason + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("Press 'r' to try again") + "\n")
	return b.String()
}

func confidenceBar(c int) string {
	if c < 0 {
		c = 0
	}
	if c > 5 {
		c = 5
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8B5CF6")).Render(strings.Repeat("■", c)) +
		dimStyle.Render(strings.Repeat("□", 5-c))
}

func highlightJSON(code string) string {
	lexer := lexers.Get("json")
	if lexer == nil {
		return code
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n") + "\n"
}

func (m *Model) setStatus(msg string, d time.Duration) {
	timeout := time.Now().Add(d)
	m.statusTimeout = &timeout
	m.statusMessage = msg
}

func (m *Model) openHistory() {
	if m.session != nil {
		m.history = m.session.History()
	}
	m.historySelection = 0
	m.showHistory = true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}

		if m.showHistory {
			switch msg.String() {
			case "q", "esc", "a":
				m.showHistory = false
			case "up", "k":
				if m.historySelection > 0 {
					m.historySelection--
				}
			case "down", "j":
				if m.historySelection < len(m.history)-1 {
					m.historySelection++
				}
			case "enter":
				if m.historySelection >= 0 && m.historySelection < len(m.history) {
					e := m.history[m.historySelection]
					m.showHistory = false
					m.load(e)
					m.setStatus(fmt.Sprintf("Loaded %s from %s", e.Filename, e.Timestamp.Format("Jan 2, 15:04")), 5*time.Second)
				}
			case "X":
				if m.session != nil {
					m.session.Clear()
					m.history = nil
					m.historySelection = 0
				}
			}
			return m, nil
		}

		if m.showExportMenu {
			switch msg.String() {
			case "1", "j":
				m.showExportMenu = false
				return m, m.export(report.FormatJSON)
			case "2", "m":
				m.showExportMenu = false
				return m, m.export(report.FormatMarkdown)
			case "3", "c":
				m.showExportMenu = false
				return m, m.export(report.FormatCSV)
			case "esc", "q", "e":
				m.showExportMenu = false
			}
			return m, nil
		}

		if m.searchMode {
			switch msg.String() {
			case "enter":
				m.searchQuery = m.searchInput.Value()
				m.searchMode = false
				m.searchInput.Blur()
				return m, nil
			case "esc":
				m.searchMode = false
				m.searchInput.Blur()
				m.searchInput.SetValue(m.searchQuery)
				m.applyFilters()
				return m, nil
			default:
				m.searchInput, cmd = m.searchInput.Update(msg)
				m.searchQuery = m.searchInput.Value()
				m.applyFilters()
				return m, cmd
			}
		}

		key := msg.String()
		if lvl, ok := levelKeys[key]; ok && !m.failed {
			m.levelFilter = lvl
			m.applyFilters()
			m.setStatus(fmt.Sprintf("Showing %s only (Esc to clear)", lvl), 3*time.Second)
			return m, nil
		}

		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "/":
			if !m.failed {
				m.searchMode = true
				m.searchInput.SetValue(m.searchQuery)
				m.searchInput.Focus()
				return m, textinput.Blink
			}
		case "esc":
			if m.searchQuery != "" || m.levelFilter != "" {
				m.clearFilters()
				m.setStatus("Filters cleared", 3*time.Second)
			}
			return m, nil
		case "s":
			m.cycleSortColumn()
			return m, nil
		case "S":
			m.toggleSortReverse()
			return m, nil
		case "n":
			if !m.jumpToNextSensitive(1) {
				m.setStatus("No sensitive columns", 3*time.Second)
			}
			return m, nil
		case "N":
			if !m.jumpToNextSensitive(-1) {
				m.setStatus("No sensitive columns", 3*time.Second)
			}
			return m, nil
		case "c":
			m.prefs.ShowCharts = !m.prefs.ShowCharts
			_ = m.savePrefs(m.prefs)
			m.updateViewportContent()
			return m, nil
		case "e":
			m.showExportMenu = true
			return m, nil
		case "y":
			return m, m.copyReasoning()
		case "Y":
			return m, m.copyResult()
		case "r":
			if m.rerunFunc == nil {
				m.setStatus("Rerun not available", 3*time.Second)
				return m, nil
			}
			if !m.classifying {
				m.classifying = true
				m.statusMessage = "Classifying..."
				return m, m.rerun()
			}
		case "a":
			m.openHistory()
			return m, nil
		case "?", "h":
			m.showHelp = true
			return m, nil
		case "down", "j", "up", "k":
			m.table, cmd = m.table.Update(msg)
			m.updateViewportContent()
			return m, cmd
		case "ctrl+d":
			m.table.MoveDown(max(1, m.table.Height()/2))
			m.updateViewportContent()
			return m, nil
		case "ctrl+u":
			m.table.MoveUp(max(1, m.table.Height()/2))
			m.updateViewportContent()
			return m, nil
		case "g", "home":
			m.table.GotoTop()
			m.updateViewportContent()
			return m, nil
		case "G", "end":
			m.table.GotoBottom()
			m.updateViewportContent()
			return m, nil
		case "pgdown", "ctrl+f":
			m.viewport.HalfViewDown()
			return m, nil
		case "pgup", "ctrl+b":
			m.viewport.HalfViewUp()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		usable := m.width - 10
		levelWidth, confWidth := 18, 6
		nameWidth := max(16, usable/4)
		reasonWidth := max(20, usable-levelWidth-confWidth-nameWidth)
		cols := m.table.Columns()
		cols[0].Width = levelWidth
		cols[1].Width = nameWidth
		cols[2].Width = confWidth
		cols[3].Width = reasonWidth
		m.table.SetColumns(cols)

		available := m.height - lipgloss.Height(statusStyle.Render("")) - 1
		tableHeight := int(float64(available) * 0.45)
		viewportHeight := available - tableHeight - detailPaneBorderStyle.GetVerticalFrameSize() - 1

		m.table.SetWidth(m.width)
		m.table.SetHeight(tableHeight)
		if m.viewport.Height == 0 {
			m.viewport = viewport.New(m.width, viewportHeight)
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()

	case entryMsg:
		m.classifying = false
		m.load(session.Entry(msg))
		if m.failed {
			m.setStatus("Rerun finished with an error", 5*time.Second)
		} else {
			m.setStatus(fmt.Sprintf("Rerun complete - %d columns classified", len(m.results)), 5*time.Second)
		}

	case statusMsg:
		m.classifying = false
		m.setStatus(string(msg), 3*time.Second)

	case spinner.TickMsg:
		var spinCmd tea.Cmd
		m.spinner, spinCmd = m.spinner.Update(msg)
		if m.statusTimeout != nil && time.Now().After(*m.statusTimeout) {
			m.statusTimeout = nil
			if m.failed {
				m.statusMessage = failedStatus
			} else {
				m.statusMessage = defaultStatus
			}
		}
		return m, spinCmd
	}

	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	if m.classifying {
		content := fmt.Sprintf("%s  Classifying %s...\n\nPlease wait", m.spinner.View(), m.entry.Filename)
		box := popupStyle.Width(55).Align(lipgloss.Center).Render(content)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	if m.showHelp {
		return m.helpView()
	}
	if m.showExportMenu {
		return m.exportView()
	}
	if m.showHistory {
		return m.historyView()
	}

	rs := m.displayResults()
	var stats string
	if m.failed {
		stats = failureStyle.Render("[ERROR] ") + m.entry.Filename
	} else {
		sum := report.Summarize(rs)
		var filterInfo string
		if m.searchQuery != "" || m.levelFilter != "" {
			var parts []string
			if m.searchQuery != "" {
				parts = append(parts, fmt.Sprintf("search:'%s'", m.searchQuery))
			}
			if m.levelFilter != "" {
				parts = append(parts, fmt.Sprintf("level:%s", m.levelFilter))
			}
			filterInfo = fmt.Sprintf("  [FILTER: %s]", strings.Join(parts, ", "))
		}
		stats = fmt.Sprintf("%s  |  Showing: %d/%d  |  %s %d  |  %s %d  |  %s %d%s%s",
			m.entry.Filename,
			len(rs), len(m.results),
			report.Colorize(types.LevelPII, "Sensitive:"), sum.SensitiveColumnsCount,
			report.Colorize(types.LevelInternal, "Internal:"), sum.InternalColumnsCount,
			report.Colorize(types.LevelPublic, "Public:"), sum.PublicColumnsCount,
			filterInfo, m.getSortIndicator())
	}
	statsHeader := lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 2).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("237")).
		Render(stats)

	tableRender := tableBorderStyle.
		Width(m.width).
		Height(m.table.Height()).
		Render(m.table.View())

	var detail string
	if !m.failed && len(rs) == 0 {
		msg := "No columns to show.\n\nPress 'r' to rerun\nPress '?' for help"
		if len(m.results) > 0 {
			msg = "No columns match filter.\n\nPress 'Esc' to clear filter"
		}
		detail = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, emptyTextStyle.Render(msg))
	} else {
		detail = m.viewport.View()
	}
	detailRender := detailPaneBorderStyle.
		Width(m.width).
		Height(m.viewport.Height).
		Render(detail)

	var bottom string
	if m.searchMode {
		bottom = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("15")).
			Width(m.width).
			Padding(0, 1).
			Render(m.searchInput.View() + fmt.Sprintf(" (%d matches)", len(rs)))
	} else {
		right := ""
		if !m.entry.Timestamp.IsZero() {
			right = fmt.Sprintf("Classified: %s ago", formatDuration(time.Since(m.entry.Timestamp)))
		}
		spacer := max(1, m.width-4-lipgloss.Width(m.statusMessage)-lipgloss.Width(right))
		bottom = statusStyle.Width(m.width).Padding(0, 2).Render(m.statusMessage + strings.Repeat(" ", spacer) + right)
	}

	return lipgloss.JoinVertical(lipgloss.Left, statsHeader, tableRender, detailRender, bottom)
}

func (m Model) helpView() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	section := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	row := func(key, desc string) string {
		k := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(key)
		d := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Render(desc)
		return "  " + k + strings.Repeat(" ", max(1, 12-len(key))) + d
	}
	lines := []string{
		title.Render("Keyboard Shortcuts"),
		"",
		section.Render("Navigation"),
		row("j / k", "Move down / up"),
		row("Ctrl+d/u", "Half-page down / up"),
		row("g / G", "First / last row"),
		row("n / N", "Next / prev sensitive column"),
		row("PgDn/PgUp", "Scroll details"),
		"",
		section.Render("Search & Filter"),
		row("/", "Search columns"),
		row("1-5", "PII/Finance/Conf./Internal/Public"),
		row("s / S", "Sort / reverse sort"),
		row("Esc", "Clear filters"),
		"",
		section.Render("Actions"),
		row("e", "Export (JSON/Markdown/CSV)"),
		row("y / Y", "Copy reasoning / result"),
		row("c", "Toggle charts"),
		row("r", "Classify again"),
		row("a", "Analysis history"),
		"",
		row("?", "Toggle help"),
		row("q", "Quit"),
		"",
		dimStyle.Italic(true).Render("Press any key to close"),
	}
	box := popupStyle.Width(48).Padding(1, 3).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) exportView() string {
	keyRender := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true).Render
	csvNote := "(annotated data)"
	if m.entry.Table == nil {
		csvNote = "(not available)"
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Export Analysis"),
		"",
		fmt.Sprintf("  %s  JSON      (full report)", keyRender("1/j")),
		fmt.Sprintf("  %s  Markdown  (readable report)", keyRender("2/m")),
		fmt.Sprintf("  %s  CSV       %s", keyRender("3/c"), csvNote),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true).
			Render(fmt.Sprintf("Writing to %s", m.exportDir())),
		"",
		dimStyle.Italic(true).Render("Esc to cancel"),
	}
	box := popupStyle.Width(48).Padding(1, 3).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) historyView() string {
	var content string
	if len(m.history) == 0 {
		content = dimStyle.Render("No analysis history.\n\nClassify a file to build history.")
	} else {
		lines := []string{lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("ANALYSIS HISTORY"), ""}
		for i, e := range m.history {
			summary := fmt.Sprintf("%s - %s (%d columns)", e.Timestamp.Format("Jan 2, 15:04:05"), e.Filename, len(e.ColumnMetadata))
			style := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
			if e.Failed() {
				summary += " [failed]"
				style = style.Foreground(lipgloss.Color("9"))
			}
			if i == m.historySelection {
				lines = append(lines, lipgloss.NewStyle().
					Foreground(lipgloss.Color("232")).
					Background(lipgloss.Color("208")).
					Bold(true).
					Render("  > "+summary))
			} else {
				lines = append(lines, style.Render("    "+summary))
			}
		}
		lines = append(lines, "", "", dimStyle.Italic(true).Render("Enter: view | X: clear all | a: close"))
		content = lipgloss.JoinVertical(lipgloss.Left, lines...)
	}
	box := popupStyle.Width(70).Padding(2, 4).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
