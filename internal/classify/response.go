package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/colsense/colsense/internal/types"
)

// PlaceholderKey is the value shipped in sample .env files.
const PlaceholderKey = "your_google_gemini_api_key_here"

const keyPrefix = "AIza"

var (
	ErrMissingCredential   = errors.New("gemini API key is missing or is a placeholder")
	ErrMalformedCredential = errors.New("gemini API key format appears invalid; it should start with " + keyPrefix)
)

// ValidateCredential checks the key's shape without any network call.
func ValidateCredential(key string) error {
	key = strings.TrimSpace(key)
	if key == "" || key == PlaceholderKey {
		return ErrMissingCredential
	}
	if !strings.HasPrefix(key, keyPrefix) {
		return ErrMalformedCredential
	}
	return nil
}

// StripFence removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		tag := strings.TrimSpace(s[:nl])
		if tag == "" || !strings.ContainsAny(tag, "[{\"") {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "json"), "JSON")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// SchemaError is a well-formed JSON answer with the wrong shape.
type SchemaError struct{ Err error }

func (e *SchemaError) Error() string { return "invalid response structure: " + e.Err.Error() }
func (e *SchemaError) Unwrap() error { return e.Err }

const responseSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["column_name", "sensitivity_level", "confidence", "reasoning"],
    "properties": {
      "column_name": {"type": "string"},
      "sensitivity_level": {"type": "string"},
      "confidence": {
        "anyOf": [
          {"type": "number"},
          {"type": "string", "pattern": "^\\s*-?[0-9]+(\\.[0-9]+)?\\s*$"}
        ]
      },
      "reasoning": {"type": ["string", "null"]}
    }
  }
}`

var schema = mustCompile(responseSchema)

func mustCompile(src string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
	if err != nil {
		panic(err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("response.json", doc); err != nil {
		panic(err)
	}
	s, err := c.Compile("response.json")
	if err != nil {
		panic(err)
	}
	return s
}

// ParseResponse strips any fence, parses the JSON and validates its shape.
// Parse failures are returned as is; shape failures as *SchemaError. An
// empty array is a shape failure.
func ParseResponse(raw string) ([]types.ClassificationResult, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(StripFence(raw)))
	if err != nil {
		return nil, err
	}
	if err := schema.Validate(doc); err != nil {
		return nil, &SchemaError{Err: flatten(err)}
	}
	items := doc.([]any)
	if len(items) == 0 {
		return nil, &SchemaError{Err: errors.New("expected at least one classification result")}
	}
	out := make([]types.ClassificationResult, 0, len(items))
	for i, it := range items {
		m := it.(map[string]any)
		conf, err := confidence(m["confidence"])
		if err != nil {
			return nil, &SchemaError{Err: fmt.Errorf("item %d: %w", i, err)}
		}
		reasoning, _ := m["reasoning"].(string)
		out = append(out, types.ClassificationResult{
			ColumnName:       m["column_name"].(string),
			SensitivityLevel: types.ParseLevel(m["sensitivity_level"].(string)),
			Confidence:       conf,
			Reasoning:        reasoning,
		})
	}
	return out, nil
}

func confidence(v any) (int, error) {
	var f float64
	switch x := v.(type) {
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("confidence %q: %w", x, err)
		}
		f = n
	case float64:
		f = x
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("confidence %q: %w", x, err)
		}
		f = n
	default:
		return 0, fmt.Errorf("confidence has type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("confidence %v is not finite", f)
	}
	return int(f), nil
}

// flatten collapses the multi-line validation report into one line.
func flatten(err error) error {
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(lines[i]), "- "))
	}
	return errors.New(strings.Join(lines, "; "))
}
