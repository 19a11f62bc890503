package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/colsense/colsense/internal/sanitize"
	"github.com/colsense/colsense/internal/types"
)

type schemaColumn struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	SampleValues []any  `json:"sample_values"`
}

// ReadSchema parses a column schema: either a JSON array of
// {name, type, sample_values} objects or an object with such an array under
// "columns". Definitions without a name are skipped. A preview table is
// built from the samples, with placeholders for columns that have none.
func ReadSchema(r io.Reader, name string, opts Options) (*Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("dataset: %s: invalid JSON: %w", name, err)
	}

	var defs []schemaColumn
	if err := decodeNumbers(raw, &defs); err != nil {
		var wrapped struct {
			Columns []schemaColumn `json:"columns"`
		}
		if err2 := decodeNumbers(raw, &wrapped); err2 != nil || wrapped.Columns == nil {
			return nil, fmt.Errorf("dataset: %s: expected a list of column definitions or an object with a \"columns\" list", name)
		}
		defs = wrapped.Columns
	}

	cols := make([]types.ColumnMetadata, 0, len(defs))
	for _, d := range defs {
		cols = append(cols, types.ColumnMetadata{Name: d.Name, Type: d.Type, SampleValues: d.SampleValues})
	}
	return FromColumns(name, cols, opts)
}

// FromColumns builds a schema dataset from metadata supplied directly, such
// as an API request body. Samples are sanitized and capped like ReadSchema.
func FromColumns(name string, defs []types.ColumnMetadata, opts Options) (*Dataset, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	max := opts.maxSamples()
	var cols []types.ColumnMetadata
	for _, d := range defs {
		if d.Name == "" || !opts.keep(d.Name) {
			continue
		}
		samples := make([]any, 0, len(d.SampleValues))
		for _, v := range d.SampleValues {
			samples = append(samples, sanitize.Value(v))
		}
		if len(samples) > max {
			samples = samples[:max]
		}
		cols = append(cols, types.ColumnMetadata{Name: d.Name, Type: d.Type, SampleValues: samples})
	}
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	return &Dataset{Filename: name, Kind: KindSchema, Table: previewTable(cols), Columns: cols}, nil
}

// previewTable lays the samples out column-wise, padding short columns with
// empty cells.
func previewTable(cols []types.ColumnMetadata) *Table {
	t := &Table{}
	grid := make([][]string, len(cols))
	rows := 0
	for i, c := range cols {
		t.Header = append(t.Header, c.Name)
		vals := c.SampleValues
		if len(vals) == 0 {
			vals = placeholder(c.Type)
		}
		for _, v := range vals {
			grid[i] = append(grid[i], cell(v))
		}
		if len(grid[i]) > rows {
			rows = len(grid[i])
		}
	}
	for r := 0; r < rows; r++ {
		row := make([]string, len(cols))
		for i := range cols {
			if r < len(grid[i]) {
				row[i] = grid[i][r]
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func placeholder(typ string) []any {
	switch typ {
	case "integer", "int", TypeInt:
		return []any{int64(1), int64(2)}
	case "float", "number", TypeFloat:
		return []any{1.0, 2.0}
	case "boolean", TypeBool:
		return []any{true, false}
	}
	return []any{"sample_val_1", "sample_val_2"}
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float64:
		return formatFloat(x)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// decodeNumbers keeps integer samples integral instead of widening them to
// float64.
func decodeNumbers(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	return dec.Decode(v)
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) && f < 1e15 && f > -1e15 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
