package classify

import "github.com/colsense/colsense/internal/types"

// Mismatch lists the differences between a batch and the model's answer.
type Mismatch struct {
	Missing    []string `json:"missing,omitempty"`    // in the batch, absent from results
	Unexpected []string `json:"unexpected,omitempty"` // in results, absent from the batch
}

// Empty reports whether the results cover exactly the batch.
func (m Mismatch) Empty() bool { return len(m.Missing) == 0 && len(m.Unexpected) == 0 }

// Reconcile compares column names in cols against results. Failure results
// are ignored.
func Reconcile(cols []types.ColumnMetadata, results []types.ClassificationResult) Mismatch {
	var m Mismatch
	if types.Failed(results) {
		return m
	}
	want := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		want[c.Name] = struct{}{}
	}
	got := make(map[string]struct{}, len(results))
	for _, r := range results {
		got[r.ColumnName] = struct{}{}
		if _, ok := want[r.ColumnName]; !ok {
			m.Unexpected = append(m.Unexpected, r.ColumnName)
		}
	}
	for _, c := range cols {
		if _, ok := got[c.Name]; !ok {
			m.Missing = append(m.Missing, c.Name)
		}
	}
	return m
}
