package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colsense/colsense/internal/dataset"
	"github.com/colsense/colsense/internal/types"
)

var when = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func TestSummarize(t *testing.T) {
	rs := append([]types.ClassificationResult{
		{ColumnName: "card", SensitivityLevel: types.LevelFinanceCritical, Confidence: 5},
		{ColumnName: "odd", SensitivityLevel: types.LevelUnknown, Confidence: 2},
	}, sample...)
	assert.Equal(t, Summary{
		TotalColumns:          6,
		SensitiveColumnsCount: 3,
		PublicColumnsCount:    1,
		InternalColumnsCount:  1,
	}, Summarize(rs))
}

func TestWriteJSON(t *testing.T) {
	cols := []types.ColumnMetadata{{Name: "email", Type: "object", SampleValues: []any{"a@b.c"}}}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, BuildJSONReport("people.csv", cols, sample, when)))

	assert.True(t, strings.HasPrefix(buf.String(), "{\n    \"timestamp\""), buf.String())

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "2025-03-04T05:06:07.000000", got["timestamp"])
	assert.Equal(t, "people.csv", got["original_filename"])
	assert.Len(t, got["column_metadata_sent_to_ai"], 1)
	assert.Len(t, got["classification_results"], 4)
	summary := got["summary"].(map[string]any)
	assert.EqualValues(t, 4, summary["total_columns"])
	assert.EqualValues(t, 2, summary["sensitive_columns_count"])
}

func TestBuildJSONReport_NilSlices(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, BuildJSONReport("x.csv", nil, nil, when)))
	assert.Contains(t, buf.String(), `"classification_results": []`)
	assert.Contains(t, buf.String(), `"column_metadata_sent_to_ai": []`)
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, "people.csv", sample, when))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Data Sensitivity Classification Report\n\n**Generated On:** 2025-03-04 05:06:07\n"))
	assert.Contains(t, out, "**Original File:** `people.csv`")
	for _, row := range []string{
		"| PII | 1 |",
		"| Finance-critical | 0 |",
		"| Confidential | 1 |",
		"| Internal | 1 |",
		"| Public | 1 |",
		"| Error | 0 |",
		"| Blocked | 0 |",
	} {
		assert.Contains(t, out, row)
	}
	assert.NotContains(t, out, "| Unknown |")
	assert.Contains(t, out, "### Column: `email`\n- **Sensitivity Level:** `PII`\n- **Confidence:** `5/5`\n- **Reasoning:** Email addresses identify a person.\n\n")
	assert.Less(t, strings.Index(out, "`email`"), strings.Index(out, "`salary`"))
}

func TestWriteAnnotatedCSV(t *testing.T) {
	tbl := &dataset.Table{
		Header: []string{"email", "salary", "product_id"},
		Rows: [][]string{
			{"a@x.com", "100", "P1"},
			{"b@x.com", "200", "P2"},
			{"c@x.com", "300"},
			{"d@x.com", "400", "P4"},
		},
	}
	rs := []types.ClassificationResult{
		{ColumnName: "email", SensitivityLevel: types.LevelPII, Confidence: 5, Reasoning: "email, personal"},
		{ColumnName: "product_id", SensitivityLevel: types.LevelInternal, Confidence: 3, Reasoning: "id"},
		{ColumnName: "ghost", SensitivityLevel: types.LevelPublic, Confidence: 1, Reasoning: "?"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteAnnotatedCSV(&buf, tbl, rs))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, []string{"email", "salary", "product_id", "sensitivity_level", "confidence", "reasoning"}, recs[0])
	assert.Equal(t, []string{"a@x.com", "100", "P1", "PII", "5", "email, personal"}, recs[1])
	assert.Equal(t, []string{"b@x.com", "200", "P2", "", "", ""}, recs[2])
	assert.Equal(t, []string{"c@x.com", "300", "", "Internal", "3", "id"}, recs[3])
	assert.Equal(t, []string{"d@x.com", "400", "P4", "", "", ""}, recs[4])
}

func TestWriteAnnotatedCSV_FailureAndNoTable(t *testing.T) {
	tbl := &dataset.Table{Header: []string{"a"}, Rows: [][]string{{"1"}}}
	var buf bytes.Buffer
	require.NoError(t, WriteAnnotatedCSV(&buf, tbl, types.FailureResult(types.LevelError, "boom")))
	assert.Equal(t, "a,sensitivity_level,confidence,reasoning\n1,,,\n", buf.String())

	assert.Error(t, WriteAnnotatedCSV(&buf, nil, sample))
}

func TestFormat(t *testing.T) {
	f, err := ParseFormat("Markdown")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)
	_, err = ParseFormat("xlsx")
	assert.Error(t, err)

	assert.Equal(t, "classified_people.csv", FormatCSV.Filename("people.csv", when))
	assert.Equal(t, "classification_report_20250304_050607.json", FormatJSON.Filename("people.csv", when))
	assert.Equal(t, "classification_report_20250304_050607.md", FormatMarkdown.Filename("people.csv", when))
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
}

func TestLevelChart(t *testing.T) {
	out := LevelChart(sample, ChartOptions{Width: 10, NoColor: true})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Distribution of Data Sensitivity Levels", lines[0])
	assert.Equal(t, "Public           "+strings.Repeat("█", 10)+" 1", lines[1])
	assert.Contains(t, LevelChart(nil, ChartOptions{}), "No classification results")
}

func TestConfidenceChart(t *testing.T) {
	rs := append(sample, types.FailureResult(types.LevelError, "x")...)
	out := ConfidenceChart(rs, ChartOptions{Width: 20, NoColor: true})
	assert.Contains(t, out, "4 "+strings.Repeat("█", 10)+"  50.0%")
	assert.Contains(t, out, "1    0.0%")
	assert.Contains(t, ConfidenceChart(types.FailureResult(types.LevelError, "x"), ChartOptions{}), "No valid confidence")
}
