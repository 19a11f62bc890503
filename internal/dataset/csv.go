package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/colsense/colsense/internal/types"
)

// Inferred column types, named the way dataframe libraries report them.
const (
	TypeInt    = "int64"
	TypeFloat  = "float64"
	TypeBool   = "bool"
	TypeObject = "object"
)

// Cell texts treated as missing values.
var nullTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

func isNull(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

// ReadCSV parses a headed CSV and extracts column metadata.
func ReadCSV(r io.Reader, name string, opts Options) (*Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoColumns
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	header = dedupeHeader(header)

	t := &Table{Header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: %s: %w", name, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" && len(header) > 1 {
			continue
		}
		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("dataset: %s line %d: expected %d fields, saw %d", name, line, len(header), len(rec))
		}
		row := make([]string, len(header))
		copy(row, rec)
		t.Rows = append(t.Rows, row)
	}

	cols := Extract(t, opts)
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	return &Dataset{Filename: name, Kind: KindCSV, Table: t, Columns: cols}, nil
}

// dedupeHeader renames repeated and empty header cells the way dataframe
// readers do ("a", "a.1", "Unnamed: 2").
func dedupeHeader(h []string) []string {
	out := make([]string, len(h))
	seen := make(map[string]bool, len(h))
	for i, name := range h {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		cand := name
		for n := 1; seen[cand]; n++ {
			cand = fmt.Sprintf("%s.%d", name, n)
		}
		seen[cand] = true
		out[i] = cand
	}
	return out
}

// Extract infers a type per column and collects up to MaxSamples distinct
// non-null values in order of first appearance.
func Extract(t *Table, opts Options) []types.ColumnMetadata {
	if t == nil {
		return nil
	}
	max := opts.maxSamples()
	var out []types.ColumnMetadata
	for ci, name := range t.Header {
		if !opts.keep(name) {
			continue
		}
		cells := make([]string, 0, len(t.Rows))
		nulls := 0
		for _, row := range t.Rows {
			v := row[ci]
			if isNull(v) {
				nulls++
				continue
			}
			cells = append(cells, v)
		}
		typ := InferType(cells, nulls > 0)
		out = append(out, types.ColumnMetadata{
			Name:         name,
			Type:         typ,
			SampleValues: samples(cells, typ, max),
		})
	}
	return out
}

// InferType picks the narrowest type that parses every non-null cell. A
// column with missing values cannot be int or bool, and an all-null column
// is float, matching dataframe conventions.
func InferType(cells []string, hasNulls bool) string {
	if len(cells) == 0 {
		return TypeFloat
	}
	allInt, allFloat, allBool := true, true, true
	for _, c := range cells {
		c = strings.TrimSpace(c)
		if allInt {
			if _, err := strconv.ParseInt(c, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(c, 64); err != nil {
				allFloat = false
			}
		}
		if allBool {
			if _, ok := parseBool(c); !ok {
				allBool = false
			}
		}
		if !allInt && !allFloat && !allBool {
			return TypeObject
		}
	}
	switch {
	case allInt && !hasNulls:
		return TypeInt
	case allInt || allFloat:
		return TypeFloat
	case allBool && !hasNulls:
		return TypeBool
	}
	return TypeObject
}

func samples(cells []string, typ string, max int) []any {
	out := make([]any, 0, max)
	seen := make(map[any]struct{}, max)
	for _, c := range cells {
		if len(out) >= max {
			break
		}
		v := typed(c, typ)
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func typed(c, typ string) any {
	s := strings.TrimSpace(c)
	switch typ {
	case TypeInt:
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
	case TypeFloat:
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
	case TypeBool:
		if v, ok := parseBool(s); ok {
			return v
		}
	}
	return c
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}
