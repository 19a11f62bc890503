package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/colsense/colsense/internal/types"
)

// LevelColors are the chart colors per level.
var LevelColors = map[types.SensitivityLevel]string{
	types.LevelPII:             "#EF4444",
	types.LevelFinanceCritical: "#F97316",
	types.LevelConfidential:    "#F59E0B",
	types.LevelInternal:        "#3B82F6",
	types.LevelPublic:          "#22C55E",
	types.LevelError:           "#6B7280",
	types.LevelBlocked:         "#4B5563",
	types.LevelUnknown:         "#9CA3AF",
}

const confidenceColor = "#8B5CF6"

// Colorize paints s in the level's color.
func Colorize(l types.SensitivityLevel, s string) string {
	c, ok := LevelColors[l]
	if !ok {
		c = LevelColors[types.LevelUnknown]
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render(s)
}

// ChartOptions control the terminal charts.
type ChartOptions struct {
	Width   int // bar area width in cells; defaults to 40
	NoColor bool
}

func (o ChartOptions) width() int {
	if o.Width <= 0 {
		return 40
	}
	return o.Width
}

// LevelChart draws a horizontal bar per level present in results.
func LevelChart(results []types.ClassificationResult, opts ChartOptions) string {
	counts := LevelCounts(results)
	if len(counts) == 0 {
		return "No classification results to chart.\n"
	}
	max := 0
	for _, lc := range counts {
		if lc.Count > max {
			max = lc.Count
		}
	}
	var b strings.Builder
	b.WriteString(title("Distribution of Data Sensitivity Levels", opts))
	for _, lc := range counts {
		bar := strings.Repeat("█", scale(lc.Count, max, opts.width()))
		if !opts.NoColor {
			bar = Colorize(lc.Level, bar)
		}
		fmt.Fprintf(&b, "%-16s %s %d\n", lc.Level, bar, lc.Count)
	}
	return b.String()
}

// ConfidenceChart draws the share of columns at each confidence score 1-5.
// Results outside that range, such as failures, are left out.
func ConfidenceChart(results []types.ClassificationResult, opts ChartOptions) string {
	var bins [5]int
	total := 0
	for _, r := range results {
		if r.Confidence < 1 || r.Confidence > 5 {
			continue
		}
		bins[r.Confidence-1]++
		total++
	}
	if total == 0 {
		return "No valid confidence scores to chart.\n"
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(confidenceColor))
	var b strings.Builder
	b.WriteString(title("Distribution of AI Confidence Scores", opts))
	for i, n := range bins {
		pct := float64(n) * 100 / float64(total)
		bar := strings.Repeat("█", scale(n, total, opts.width()))
		if !opts.NoColor {
			bar = style.Render(bar)
		}
		fmt.Fprintf(&b, "%d %s %5.1f%%\n", i+1, bar, pct)
	}
	return b.String()
}

func title(s string, opts ChartOptions) string {
	if opts.NoColor {
		return s + "\n"
	}
	return lipgloss.NewStyle().Bold(true).Render(s) + "\n"
}

func scale(n, max, width int) int {
	if max == 0 || n == 0 {
		return 0
	}
	w := n * width / max
	if w == 0 {
		w = 1
	}
	return w
}
