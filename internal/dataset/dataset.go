// Package dataset loads tabular inputs and extracts the per-column metadata
// sent for classification.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/colsense/colsense/internal/types"
)

// DefaultMaxSamples is the number of distinct values kept per column.
const DefaultMaxSamples = 5

// ErrNoColumns is returned when an input yields no usable column.
var ErrNoColumns = errors.New("dataset: no columns found")

// Kind tells where a dataset came from.
type Kind string

const (
	KindCSV       Kind = "csv"
	KindSchema    Kind = "json"
	KindGenerated Kind = "generated"
)

// Table is the raw grid of a CSV input. Cells keep their original text.
type Table struct {
	Header []string
	Rows   [][]string
}

// Dataset is a loaded input plus the metadata extracted from it.
type Dataset struct {
	Filename string
	Kind     Kind
	Table    *Table
	Columns  []types.ColumnMetadata
}

// Options control metadata extraction.
type Options struct {
	// MaxSamples caps sample_values; <= 0 means DefaultMaxSamples. Values
	// above DefaultMaxSamples are clamped to it.
	MaxSamples int
	// Columns keeps only columns whose name matches one of these doublestar
	// patterns. Empty keeps everything.
	Columns []string
}

func (o Options) maxSamples() int {
	if o.MaxSamples <= 0 || o.MaxSamples > DefaultMaxSamples {
		return DefaultMaxSamples
	}
	return o.MaxSamples
}

// Validate checks that every column pattern is well formed.
func (o Options) Validate() error {
	for _, p := range o.Columns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("dataset: invalid column pattern %q", p)
		}
	}
	return nil
}

func (o Options) keep(name string) bool {
	if len(o.Columns) == 0 {
		return true
	}
	for _, p := range o.Columns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

// LoadFile reads a .csv or .json file, choosing the parser by extension.
func LoadFile(path string, opts Options) (*Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadSchema(f, name, opts)
	case ".csv", ".tsv", ".txt", "":
		return ReadCSV(f, name, opts)
	default:
		return nil, fmt.Errorf("dataset: unsupported file type %q (want .csv or .json)", filepath.Ext(path))
	}
}

// Fingerprint hashes the metadata so repeated analyses of the same input can
// be recognized. Column order matters.
func Fingerprint(cols []types.ColumnMetadata) string {
	b, err := json.Marshal(cols)
	if err != nil {
		b = []byte(fmt.Sprint(cols))
	}
	return strconv.FormatUint(xxhash.Sum64(b), 16)
}

// ColumnIndex returns the position of name in the table header, or -1.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Head returns up to n rows for previews.
func (t *Table) Head(n int) [][]string {
	if t == nil {
		return nil
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return t.Rows[:n]
}
