package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/colsense/colsense/internal/types"
)

type PrintOptions struct {
	NoColor  bool
	Wide     bool // do not shorten reasoning
	Filename string
	Duration time.Duration
}

const reasoningWidth = 72

// PrintTable renders one row per result followed by a per-level summary.
func PrintTable(w io.Writer, results []types.ClassificationResult, opts PrintOptions) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No classification results.")
		return nil
	}
	if types.Failed(results) {
		printFailure(w, results[0], opts)
		return nil
	}
	if opts.Filename != "" {
		fmt.Fprintf(w, "Classification of %s\n", opts.Filename)
	}

	table := tablewriter.NewWriter(w)
	table.Header("Column", "Sensitivity", "Confidence", "Reasoning")
	for _, r := range results {
		reasoning := r.Reasoning
		if !opts.Wide {
			reasoning = shorten(reasoning, reasoningWidth)
		}
		level := string(r.SensitivityLevel)
		if !opts.NoColor {
			level = Colorize(r.SensitivityLevel, level)
		}
		if err := table.Append([]string{r.ColumnName, level, confidenceCell(r.Confidence), reasoning}); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := PrintSummary(w, results); err != nil {
		return err
	}
	printFooter(w, results, opts)
	return nil
}

// PrintSummary renders the count of results per level, in level order.
func PrintSummary(w io.Writer, results []types.ClassificationResult) error {
	table := tablewriter.NewWriter(w)
	table.Header("Sensitivity Level", "Count")
	for _, lc := range LevelCounts(results) {
		if err := table.Append([]string{string(lc.Level), strconv.Itoa(lc.Count)}); err != nil {
			return err
		}
	}
	return table.Render()
}

// PrintText is the plain one-line-per-column rendering used when output is
// piped.
func PrintText(w io.Writer, results []types.ClassificationResult, opts PrintOptions) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No classification results.")
		return
	}
	if types.Failed(results) {
		printFailure(w, results[0], opts)
		return
	}
	maxName := 6
	for _, r := range results {
		if l := len(r.ColumnName); l > maxName {
			maxName = l
		}
	}
	for _, r := range results {
		level := string(r.SensitivityLevel)
		if !opts.NoColor {
			level = Colorize(r.SensitivityLevel, fmt.Sprintf("%-16s", level))
		} else {
			level = fmt.Sprintf("%-16s", level)
		}
		reasoning := r.Reasoning
		if !opts.Wide {
			reasoning = shorten(reasoning, reasoningWidth)
		}
		fmt.Fprintf(w, "%-*s %s %d/5  %s\n", maxName, r.ColumnName, level, r.Confidence, reasoning)
	}
	printFooter(w, results, opts)
}

// PrintJSON writes the raw result list.
func PrintJSON(w io.Writer, results []types.ClassificationResult) error {
	if results == nil {
		results = []types.ClassificationResult{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func printFailure(w io.Writer, r types.ClassificationResult, opts PrintOptions) {
	label := "Classification failed"
	if r.SensitivityLevel == types.LevelBlocked {
		label = "Classification blocked"
	}
	if !opts.NoColor {
		label = Colorize(r.SensitivityLevel, label)
	}
	fmt.Fprintf(w, "%s: %s\n", label, r.Reasoning)
}

func printFooter(w io.Writer, results []types.ClassificationResult, opts PrintOptions) {
	s := Summarize(results)
	fmt.Fprintf(w, "\nColumns: %d (sensitive: %d, internal: %d, public: %d)\n",
		s.TotalColumns, s.SensitiveColumnsCount, s.InternalColumnsCount, s.PublicColumnsCount)
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Classification took %.2fs\n", opts.Duration.Seconds())
	}
}

// LevelCount is the number of results at one level.
type LevelCount struct {
	Level types.SensitivityLevel `json:"sensitivity_level"`
	Count int                    `json:"count"`
}

// LevelCounts returns the levels present in results, in level order.
func LevelCounts(results []types.ClassificationResult) []LevelCount {
	counts := map[types.SensitivityLevel]int{}
	for _, r := range results {
		counts[r.SensitivityLevel]++
	}
	out := make([]LevelCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, LevelCount{Level: l, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level.Rank() == out[j].Level.Rank() {
			return out[i].Level < out[j].Level
		}
		return out[i].Level.Rank() < out[j].Level.Rank()
	})
	return out
}

func confidenceCell(c int) string {
	if c <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d/5", c)
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
