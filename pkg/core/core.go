package core

import (
	"context"
	"io"

	"github.com/colsense/colsense/internal/classify"
	"github.com/colsense/colsense/internal/dataset"
	"github.com/colsense/colsense/internal/gemini"
	"github.com/colsense/colsense/internal/types"
)

// Re-export selected internal types as a stable public API surface.
type ColumnMetadata = types.ColumnMetadata
type ClassificationResult = types.ClassificationResult
type SensitivityLevel = types.SensitivityLevel

// Provider is the model backend; tests and alternative endpoints can supply
// their own.
type Provider = classify.Provider

// Config selects the model endpoint. The zero value talks to the default
// Gemini model.
type Config struct {
	Model   string
	BaseURL string
	// Provider replaces the Gemini client entirely when set.
	Provider Provider
	// Reconcile logs columns the model skipped or invented.
	Reconcile bool
}

// Classify labels cols. It never fails: problems are reported as a single
// Error or Blocked result, see Failed.
func Classify(ctx context.Context, cfg Config, cols []ColumnMetadata, apiKey string) []ClassificationResult {
	p := cfg.Provider
	if p == nil {
		p = gemini.New(gemini.WithModel(cfg.Model), gemini.WithBaseURL(cfg.BaseURL))
	}
	c := classify.New(
		classify.WithProvider(p),
		classify.WithModel(cfg.Model),
		classify.WithReconcile(cfg.Reconcile),
	)
	return c.Classify(ctx, cols, apiKey)
}

// Failed reports whether results describe a failed classification.
func Failed(results []ClassificationResult) bool { return types.Failed(results) }

// ReadCSV extracts column metadata from CSV data with the default sample cap.
func ReadCSV(r io.Reader, name string) ([]ColumnMetadata, error) {
	ds, err := dataset.ReadCSV(r, name, dataset.Options{})
	if err != nil {
		return nil, err
	}
	return ds.Columns, nil
}
