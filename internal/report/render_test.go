package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/colsense/colsense/internal/types"
)

var sample = []types.ClassificationResult{
	{ColumnName: "email", SensitivityLevel: types.LevelPII, Confidence: 5, Reasoning: "Email addresses identify a person."},
	{ColumnName: "salary", SensitivityLevel: types.LevelConfidential, Confidence: 4, Reasoning: "Compensation data."},
	{ColumnName: "product_id", SensitivityLevel: types.LevelInternal, Confidence: 3, Reasoning: "Internal identifier."},
	{ColumnName: "country", SensitivityLevel: types.LevelPublic, Confidence: 4, Reasoning: strings.Repeat("x", 200)},
}

func TestPrintText_NoResults(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, nil, PrintOptions{NoColor: true})
	if !strings.Contains(buf.String(), "No classification results") {
		t.Fatalf("expected empty message; got: %q", buf.String())
	}
}

func TestPrintText_WithResults(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, sample, PrintOptions{NoColor: true, Duration: 1500 * time.Millisecond})
	out := buf.String()
	if !strings.Contains(out, "email") || !strings.Contains(out, "5/5") {
		t.Fatalf("expected result line; got: %q", out)
	}
	if !strings.Contains(out, "Columns: 4 (sensitive: 2, internal: 1, public: 1)") {
		t.Fatalf("expected summary footer; got: %q", out)
	}
	if !strings.Contains(out, "Classification took 1.50s") {
		t.Fatalf("expected duration footer; got: %q", out)
	}
	if strings.Contains(out, strings.Repeat("x", 200)) {
		t.Fatalf("expected long reasoning to be shortened")
	}
}

func TestPrintText_Wide(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, sample, PrintOptions{NoColor: true, Wide: true})
	if !strings.Contains(buf.String(), strings.Repeat("x", 200)) {
		t.Fatalf("expected full reasoning in wide mode")
	}
}

func TestPrintText_Failure(t *testing.T) {
	var buf bytes.Buffer
	PrintText(&buf, types.FailureResult(types.LevelBlocked, "AI Analysis Blocked: nope"), PrintOptions{NoColor: true})
	out := buf.String()
	if !strings.HasPrefix(out, "Classification blocked: AI Analysis Blocked") {
		t.Fatalf("expected blocked message; got: %q", out)
	}
	if strings.Contains(out, "Columns:") {
		t.Fatalf("failure output should not have a footer; got: %q", out)
	}
}

func TestPrintTable_WithResults(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintTable(&buf, sample, PrintOptions{NoColor: true, Filename: "people.csv"}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	upper := strings.ToUpper(out)
	if !strings.Contains(upper, "REASONING") || !strings.Contains(upper, "SENSITIVITY LEVEL") {
		t.Fatalf("expected result and summary headers; got: %q", out)
	}
	if !strings.Contains(out, "product_id") || !strings.Contains(out, "Confidential") {
		t.Fatalf("expected rows in table; got: %q", out)
	}
	if !strings.Contains(out, "│") {
		t.Fatalf("expected table borders; got: %q", out)
	}
	if !strings.Contains(out, "Classification of people.csv") {
		t.Fatalf("expected filename title; got: %q", out)
	}
}

func TestLevelCounts_Order(t *testing.T) {
	rs := append([]types.ClassificationResult{{ColumnName: "z", SensitivityLevel: types.LevelPII}}, sample...)
	got := LevelCounts(rs)
	want := []LevelCount{
		{types.LevelPublic, 1},
		{types.LevelInternal, 1},
		{types.LevelConfidential, 1},
		{types.LevelPII, 2},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestPrintJSON_Nil(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected empty array; got %q", buf.String())
	}
}
