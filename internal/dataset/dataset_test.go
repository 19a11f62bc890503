package dataset

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colsense/colsense/internal/types"
)

const peopleCSV = `name,age,email,salary,product_id,is_active,score
Alice,30,alice@example.com,60000,P101,True,1.5
Bob,24,bob.s@domain.com,45000,P102,False,
Charlie,35,charlie@web.org,75000,P103,True,2
David,29,david@mail.net,50000,P104,False,NaN
Eve,40,eve@test.com,90000,P105,True,3.25
Frank,30,frank@test.com,90000,P106,True,4
`

func byName(cols []types.ColumnMetadata) map[string]types.ColumnMetadata {
	m := map[string]types.ColumnMetadata{}
	for _, c := range cols {
		m[c.Name] = c
	}
	return m
}

func TestReadCSV_Inference(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(peopleCSV), "people.csv", Options{})
	require.NoError(t, err)
	assert.Equal(t, KindCSV, ds.Kind)
	assert.Len(t, ds.Table.Rows, 6)

	cols := byName(ds.Columns)
	assert.Equal(t, TypeObject, cols["name"].Type)
	assert.Equal(t, TypeInt, cols["age"].Type)
	assert.Equal(t, TypeBool, cols["is_active"].Type)
	assert.Equal(t, TypeFloat, cols["score"].Type)

	// five distinct values in order of appearance
	assert.Equal(t, []any{int64(30), int64(24), int64(35), int64(29), int64(40)}, cols["age"].SampleValues)
	assert.Equal(t, []any{true, false}, cols["is_active"].SampleValues)
	assert.Equal(t, []any{1.5, 2.0, 3.25, 4.0}, cols["score"].SampleValues)
	assert.Len(t, cols["name"].SampleValues, 5)
}

func TestReadCSV_ColumnOrderAndGlobs(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(peopleCSV), "people.csv", Options{Columns: []string{"*a*", "email"}})
	require.NoError(t, err)
	var names []string
	for _, c := range ds.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"name", "age", "email", "salary", "is_active"}, names)
}

func TestReadCSV_SampleCap(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(peopleCSV), "p.csv", Options{MaxSamples: 2})
	require.NoError(t, err)
	for _, c := range ds.Columns {
		assert.LessOrEqual(t, len(c.SampleValues), 2, c.Name)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), "empty.csv", Options{})
	assert.ErrorIs(t, err, ErrNoColumns)

	_, err = ReadCSV(strings.NewReader("a,b\n1,2,3\n"), "wide.csv", Options{})
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("a,b\n1,2\n"), "x.csv", Options{Columns: []string{"["}})
	assert.Error(t, err)
}

func TestDedupeHeader(t *testing.T) {
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.2"}, dedupeHeader([]string{"\ufeffa", "a", "", "a"}))
}

func TestInferType(t *testing.T) {
	assert.Equal(t, TypeFloat, InferType(nil, true))
	assert.Equal(t, TypeFloat, InferType([]string{"1", "2"}, true))
	assert.Equal(t, TypeObject, InferType([]string{"True", "x"}, false))
	assert.Equal(t, TypeObject, InferType([]string{"True"}, true))
	assert.Equal(t, TypeInt, InferType([]string{"-3", "7"}, false))
}

func TestReadSchema(t *testing.T) {
	src := `[
  {"name": "customer_name", "type": "string", "sample_values": ["John Doe", "Jane Smith"]},
  {"name": "order_value", "type": "float", "sample_values": [123.45, 99.99]},
  {"name": "is_vip", "type": "boolean", "sample_values": [true, false]},
  {"name": "internal_id", "type": "integer"},
  {"type": "string"}
]`
	ds, err := ReadSchema(strings.NewReader(src), "schema.json", Options{})
	require.NoError(t, err)
	require.Len(t, ds.Columns, 4)
	assert.Equal(t, KindSchema, ds.Kind)
	assert.Equal(t, []any{123.45, 99.99}, ds.Columns[1].SampleValues)
	assert.Empty(t, ds.Columns[3].SampleValues)

	assert.Equal(t, []string{"customer_name", "order_value", "is_vip", "internal_id"}, ds.Table.Header)
	assert.Equal(t, []string{"John Doe", "123.45", "True", "1"}, ds.Table.Rows[0])
}

func TestReadSchema_Wrapped(t *testing.T) {
	ds, err := ReadSchema(strings.NewReader(`{"columns":[{"name":"id","type":"integer","sample_values":[1,2,3,4,5,6,7]}]}`), "s.json", Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2), int64(3), int64(4), int64(5)}, ds.Columns[0].SampleValues)

	_, err = ReadSchema(strings.NewReader(`{"tables":[]}`), "s.json", Options{})
	assert.Error(t, err)
	_, err = ReadSchema(strings.NewReader(`[]`), "s.json", Options{})
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(p, []byte(peopleCSV), 0o644))
	ds, err := LoadFile(p, Options{})
	require.NoError(t, err)
	assert.Equal(t, "people.csv", ds.Filename)

	bad := filepath.Join(dir, "x.parquet")
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0o644))
	_, err = LoadFile(bad, Options{})
	assert.Error(t, err)
}

func TestFingerprint(t *testing.T) {
	a := []types.ColumnMetadata{{Name: "a", Type: "int64", SampleValues: []any{int64(1)}}}
	b := []types.ColumnMetadata{{Name: "a", Type: "int64", SampleValues: []any{int64(2)}}}
	assert.Equal(t, Fingerprint(a), Fingerprint(a))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestGenerate(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ds, err := Generate(GenerateOptions{Rows: 20, Seed: 7, Now: now}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "fake_data_20_rows.csv", ds.Filename)
	assert.Len(t, ds.Table.Rows, 20)
	assert.Len(t, ds.Columns, len(generatedColumns))

	cols := byName(ds.Columns)
	assert.Equal(t, TypeInt, cols["user_id"].Type)
	assert.Equal(t, TypeFloat, cols["revenue_usd"].Type)
	assert.Equal(t, TypeBool, cols["is_active_customer"].Type)

	card := ds.Table.Rows[0][ds.Table.ColumnIndex("credit_card_number_masked")]
	assert.Len(t, card, 16)
	assert.True(t, strings.HasPrefix(card, "************"))

	again, err := Generate(GenerateOptions{Rows: 20, Seed: 7, Now: now}, Options{})
	require.NoError(t, err)
	assert.Equal(t, ds.Table.Rows, again.Table.Rows)

	var buf bytes.Buffer
	require.NoError(t, ds.Table.WriteCSV(&buf))
	back, err := ReadCSV(&buf, ds.Filename, Options{})
	require.NoError(t, err)
	assert.Equal(t, ds.Columns, back.Columns)

	_, err = Generate(GenerateOptions{Rows: 0}, Options{})
	assert.Error(t, err)
}

func TestFromColumns(t *testing.T) {
	ds, err := FromColumns("api", []types.ColumnMetadata{
		{Name: "id", Type: "integer", SampleValues: []any{json.Number("1"), json.Number("2")}},
		{Name: "", Type: "string"},
		{Name: "note", Type: "string", SampleValues: []any{"a", "b", "c"}},
	}, Options{MaxSamples: 2, Columns: []string{"id", "no*"}})
	require.NoError(t, err)
	require.Len(t, ds.Columns, 2)
	assert.Equal(t, []any{int64(1), int64(2)}, ds.Columns[0].SampleValues)
	assert.Equal(t, []any{"a", "b"}, ds.Columns[1].SampleValues)
	assert.Equal(t, []string{"id", "note"}, ds.Table.Header)

	_, err = FromColumns("api", nil, Options{})
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestMaxSamplesClamped(t *testing.T) {
	var samples []any
	for _, v := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		samples = append(samples, v)
	}
	ds, err := FromColumns("api", []types.ColumnMetadata{
		{Name: "note", Type: "string", SampleValues: samples},
	}, Options{MaxSamples: 50})
	require.NoError(t, err)
	assert.Len(t, ds.Columns[0].SampleValues, DefaultMaxSamples)

	var b strings.Builder
	b.WriteString("code\n")
	for i := 0; i < 20; i++ {
		b.WriteString(string(rune('a'+i)) + "\n")
	}
	ds, err = ReadCSV(strings.NewReader(b.String()), "codes.csv", Options{MaxSamples: 12})
	require.NoError(t, err)
	assert.Len(t, ds.Columns[0].SampleValues, DefaultMaxSamples)
}
