package core

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/colsense/colsense/internal/gemini"
)

type fixedProvider struct{ text string }

func (fixedProvider) Ping(context.Context, string) error { return nil }

func (p fixedProvider) Generate(context.Context, string, string) (*gemini.Response, error) {
	return &gemini.Response{Candidates: []gemini.Candidate{{
		Content:      gemini.Content{Parts: []gemini.Part{{Text: p.text}}},
		FinishReason: "STOP",
	}}}, nil
}

func TestClassify_Smoke(t *testing.T) {
	cols, err := ReadCSV(strings.NewReader("email\na@b.com\n"), "x.csv")
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	cfg := Config{Provider: fixedProvider{text: `[{"column_name":"email","sensitivity_level":"PII","confidence":5,"reasoning":"Email."}]`}}
	results := Classify(context.Background(), cfg, cols, "AIzaCoreKey")
	if Failed(results) {
		t.Fatalf("unexpected failure: %+v", results)
	}
	if len(results) != 1 || results[0].SensitivityLevel != "PII" {
		t.Fatalf("unexpected results: %+v", results)
	}

	var buf bytes.Buffer
	if err := MarshalResults(&buf, results); err != nil {
		t.Fatal(err)
	}
	back, err := UnmarshalResults(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if back[0] != results[0] {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestClassify_MissingKey(t *testing.T) {
	results := Classify(context.Background(), Config{Provider: fixedProvider{}}, []ColumnMetadata{{Name: "a"}}, "")
	if !Failed(results) {
		t.Fatal("expected a failure result without a key")
	}
}
