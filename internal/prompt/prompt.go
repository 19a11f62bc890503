// Package prompt renders the classification instruction sent to the model.
package prompt

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/colsense/colsense/internal/taxonomy"
	"github.com/colsense/colsense/internal/types"
)

const (
	// MaxExamples caps the example column names shown per level.
	MaxExamples = 3
	// TokenWarnThreshold is the estimated size above which a prompt is flagged.
	TokenWarnThreshold = 4000
	logPreviewChars    = 500
)

// Prompt is a rendered instruction plus a rough size estimate.
type Prompt struct {
	Text            string
	EstimatedTokens int
	Oversized       bool
}

const header = `You are an expert data privacy and governance assistant. Your task is to classify the sensitivity level of each data column provided, based on its name, inferred type, and sample values.`

const contract = "For each column, return a JSON object with the following structure:\n" +
	"```json\n" +
	"[\n" +
	"  {\n" +
	"    \"column_name\": \"string\",\n" +
	"    \"sensitivity_level\": \"string (one of the levels listed above)\",\n" +
	"    \"confidence\": \"integer (1-5, 5 being highest confidence)\",\n" +
	"    \"reasoning\": \"string (a brief, 1-2 sentence explanation for the classification)\"\n" +
	"  }\n" +
	"]\n" +
	"```\n" +
	"Ensure your response is ONLY the JSON array. Do not include any conversational text, markdown outside the JSON, or extra characters."

// Build renders the prompt for cols using the given level order and guidance.
func Build(levels []types.SensitivityLevel, guidance taxonomy.Guidance, cols []types.ColumnMetadata) (Prompt, error) {
	if cols == nil {
		cols = []types.ColumnMetadata{}
	}
	meta, err := json.MarshalIndent(cols, "", "  ")
	if err != nil {
		return Prompt{}, fmt.Errorf("serialize column metadata: %w", err)
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(Guidance(levels, guidance))
	b.WriteString("\n")
	b.WriteString(contract)
	b.WriteString("\n\nColumn Metadata to Classify:\n```json\n")
	b.Write(meta)
	b.WriteString("\n```\n")

	p := Prompt{Text: b.String()}
	p.EstimatedTokens = len(p.Text) / 4
	p.Oversized = p.EstimatedTokens > TokenWarnThreshold
	return p, nil
}

// Guidance renders one bullet per level with its description and up to
// MaxExamples example names.
func Guidance(levels []types.SensitivityLevel, guidance taxonomy.Guidance) string {
	var b strings.Builder
	for _, l := range levels {
		e := guidance[l]
		ex := e.Examples
		if len(ex) > MaxExamples {
			ex = ex[:MaxExamples]
		}
		fmt.Fprintf(&b, "- **%s**: %s\n", l, e.Description)
		if len(ex) > 0 {
			fmt.Fprintf(&b, "  *Examples*: %s...\n", strings.Join(ex, ", "))
		}
	}
	return b.String()
}

// Log emits the size warning and a debug preview.
func (p Prompt) Log(log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}
	preview := p.Text
	if len(preview) > logPreviewChars {
		preview = preview[:logPreviewChars]
	}
	log.Debug("prompt preview", "chars", len(p.Text), "estimated_tokens", p.EstimatedTokens, "text", preview)
	if p.Oversized {
		log.Warn("estimated prompt tokens may exceed free tier limits", "estimated_tokens", p.EstimatedTokens)
	}
}
