package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/colsense/colsense/internal/dataset"
	"github.com/colsense/colsense/internal/types"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts csv, json, md and markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or md)", s)
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "application/json; charset=utf-8"
	}
}

// Filename is the download name for an export of filename created at now.
func (f Format) Filename(filename string, now time.Time) string {
	switch f {
	case FormatCSV:
		return "classified_" + filename
	case FormatMarkdown:
		return "classification_report_" + now.Format("20060102_150405") + ".md"
	default:
		return "classification_report_" + now.Format("20060102_150405") + ".json"
	}
}

// Summary is the headline count block of the JSON report.
type Summary struct {
	TotalColumns          int `json:"total_columns"`
	SensitiveColumnsCount int `json:"sensitive_columns_count"`
	PublicColumnsCount    int `json:"public_columns_count"`
	InternalColumnsCount  int `json:"internal_columns_count"`
}

// Summarize counts results. Sensitive means PII, Finance-critical or
// Confidential.
func Summarize(results []types.ClassificationResult) Summary {
	s := Summary{TotalColumns: len(results)}
	for _, r := range results {
		switch {
		case r.SensitivityLevel.IsSensitive():
			s.SensitiveColumnsCount++
		case r.SensitivityLevel == types.LevelPublic:
			s.PublicColumnsCount++
		case r.SensitivityLevel == types.LevelInternal:
			s.InternalColumnsCount++
		}
	}
	return s
}

// JSONReport is the downloadable JSON document for one analysis.
type JSONReport struct {
	Timestamp             string                       `json:"timestamp"`
	OriginalFilename      string                       `json:"original_filename"`
	ColumnMetadata        []types.ColumnMetadata       `json:"column_metadata_sent_to_ai"`
	ClassificationResults []types.ClassificationResult `json:"classification_results"`
	Summary               Summary                      `json:"summary"`
}

// BuildJSONReport assembles the report; nil slices become empty arrays.
func BuildJSONReport(filename string, cols []types.ColumnMetadata, results []types.ClassificationResult, now time.Time) JSONReport {
	if cols == nil {
		cols = []types.ColumnMetadata{}
	}
	if results == nil {
		results = []types.ClassificationResult{}
	}
	return JSONReport{
		Timestamp:             now.Format("2006-01-02T15:04:05.000000"),
		OriginalFilename:      filename,
		ColumnMetadata:        cols,
		ClassificationResults: results,
		Summary:               Summarize(results),
	}
}

// WriteJSON writes r indented by four spaces.
func WriteJSON(w io.Writer, r JSONReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	return enc.Encode(r)
}

var markdownLevels = []types.SensitivityLevel{
	types.LevelPII,
	types.LevelFinanceCritical,
	types.LevelConfidential,
	types.LevelInternal,
	types.LevelPublic,
	types.LevelError,
	types.LevelBlocked,
}

// WriteMarkdown writes the human readable report.
func WriteMarkdown(w io.Writer, filename string, results []types.ClassificationResult, now time.Time) error {
	var b strings.Builder
	b.WriteString("# Data Sensitivity Classification Report\n\n")
	fmt.Fprintf(&b, "**Generated On:** %s\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Original File:** `%s`\n\n", filename)

	counts := map[types.SensitivityLevel]int{}
	for _, r := range results {
		counts[r.SensitivityLevel]++
	}
	b.WriteString("## 📊 Classification Summary\n\n")
	b.WriteString("| Sensitivity Level | Count |\n|-------------------|-------|\n")
	for _, l := range markdownLevels {
		fmt.Fprintf(&b, "| %s | %d |\n", l, counts[l])
	}
	b.WriteString("\n## 📈 Detailed Column Classification\n\n")
	for _, r := range results {
		fmt.Fprintf(&b, "### Column: `%s`\n", r.ColumnName)
		fmt.Fprintf(&b, "- **Sensitivity Level:** `%s`\n", r.SensitivityLevel)
		fmt.Fprintf(&b, "- **Confidence:** `%d/5`\n", r.Confidence)
		fmt.Fprintf(&b, "- **Reasoning:** %s\n\n", r.Reasoning)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Annotation column names appended by WriteAnnotatedCSV.
const (
	ColSensitivity = "sensitivity_level"
	ColConfidence  = "confidence"
	ColReasoning   = "reasoning"
)

// WriteAnnotatedCSV writes t with three annotation columns. The annotation
// for a result lands on the row whose index equals its column's position in
// the header; every other annotation cell stays empty. Results naming a
// column that is not in the header, or whose position is past the last row,
// are dropped.
func WriteAnnotatedCSV(w io.Writer, t *dataset.Table, results []types.ClassificationResult) error {
	if t == nil {
		return fmt.Errorf("annotated csv: no table data for this analysis")
	}
	cw := csv.NewWriter(w)
	header := append(append([]string(nil), t.Header...), ColSensitivity, ColConfidence, ColReasoning)
	if err := cw.Write(header); err != nil {
		return err
	}

	notes := make(map[int]types.ClassificationResult, len(results))
	if !types.Failed(results) {
		for _, r := range results {
			if i := t.ColumnIndex(r.ColumnName); i >= 0 {
				notes[i] = r
			}
		}
	}
	for i, row := range t.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, row...)
		for len(rec) < len(t.Header) {
			rec = append(rec, "")
		}
		if r, ok := notes[i]; ok {
			rec = append(rec, string(r.SensitivityLevel), strconv.Itoa(r.Confidence), r.Reasoning)
		} else {
			rec = append(rec, "", "", "")
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export writes one export of an analysis in format f.
func Export(w io.Writer, f Format, filename string, t *dataset.Table, cols []types.ColumnMetadata, results []types.ClassificationResult, now time.Time) error {
	switch f {
	case FormatCSV:
		return WriteAnnotatedCSV(w, t, results)
	case FormatMarkdown:
		return WriteMarkdown(w, filename, results, now)
	case FormatJSON:
		return WriteJSON(w, BuildJSONReport(filename, cols, results, now))
	}
	return fmt.Errorf("unknown export format %q", f)
}
