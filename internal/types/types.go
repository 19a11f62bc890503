package types

import (
	"encoding/json"
	"strings"
)

// SensitivityLevel is the classification tag for a column. The five
// classifiable levels are ordered from least to most restricted; Error,
// Blocked and Unknown are reserved for failure paths and unrecognized labels.
type SensitivityLevel string

const (
	LevelPublic          SensitivityLevel = "Public"
	LevelInternal        SensitivityLevel = "Internal"
	LevelConfidential    SensitivityLevel = "Confidential"
	LevelPII             SensitivityLevel = "PII"
	LevelFinanceCritical SensitivityLevel = "Finance-critical"

	LevelError   SensitivityLevel = "Error"
	LevelBlocked SensitivityLevel = "Blocked"
	LevelUnknown SensitivityLevel = "Unknown"
)

// allLevels is the display order used for stable sorting and summaries.
var allLevels = []SensitivityLevel{
	LevelPublic,
	LevelInternal,
	LevelConfidential,
	LevelPII,
	LevelFinanceCritical,
	LevelError,
	LevelBlocked,
	LevelUnknown,
}

// ClassifiableLevels returns the taxonomy levels a model may assign, in order.
func ClassifiableLevels() []SensitivityLevel {
	out := make([]SensitivityLevel, 5)
	copy(out, allLevels[:5])
	return out
}

// AllLevels returns every level including the failure sentinels, in display order.
func AllLevels() []SensitivityLevel {
	out := make([]SensitivityLevel, len(allLevels))
	copy(out, allLevels)
	return out
}

// Rank returns the position of l in display order. Unrecognized values rank
// with Unknown.
func (l SensitivityLevel) Rank() int {
	for i, v := range allLevels {
		if v == l {
			return i
		}
	}
	return len(allLevels) - 1
}

// IsSensitive reports whether the level counts as sensitive in summaries.
func (l SensitivityLevel) IsSensitive() bool {
	switch l {
	case LevelConfidential, LevelPII, LevelFinanceCritical:
		return true
	}
	return false
}

// IsFailure reports whether the level marks a failed classification.
func (l SensitivityLevel) IsFailure() bool {
	return l == LevelError || l == LevelBlocked
}

// ParseLevel maps a label to a SensitivityLevel, tolerating case and
// separator differences ("finance critical", "pii"). Unrecognized labels
// yield LevelUnknown.
func ParseLevel(s string) SensitivityLevel {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "-", " ", "-").Replace(key)
	for _, l := range allLevels {
		if strings.ToLower(string(l)) == key {
			return l
		}
	}
	return LevelUnknown
}

// UnmarshalJSON decodes any string label; unknown labels become LevelUnknown.
func (l *SensitivityLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*l = ParseLevel(s)
	return nil
}

// ColumnMetadata is the per-column input sent to the model.
type ColumnMetadata struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	SampleValues []any  `json:"sample_values"`
}

// ClassificationResult is the per-column output of a classification call.
// Failure-path results carry column "N/A" and confidence 0.
type ClassificationResult struct {
	ColumnName       string           `json:"column_name"`
	SensitivityLevel SensitivityLevel `json:"sensitivity_level"`
	Confidence       int              `json:"confidence"`
	Reasoning        string           `json:"reasoning"`
}

// NotApplicable is the column name used on synthetic failure results.
const NotApplicable = "N/A"

// FailureResult builds the single-element list returned on failure paths.
func FailureResult(level SensitivityLevel, reasoning string) []ClassificationResult {
	return []ClassificationResult{{
		ColumnName:       NotApplicable,
		SensitivityLevel: level,
		Confidence:       0,
		Reasoning:        reasoning,
	}}
}

// Failed reports whether a result list signals a failed call, judged by its
// first element the same way display code does.
func Failed(results []ClassificationResult) bool {
	return len(results) > 0 && results[0].SensitivityLevel.IsFailure()
}
