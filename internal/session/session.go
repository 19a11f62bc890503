// Package session holds the in-memory state of one colsense process: the
// rolling history of recent analyses shared by the CLI, the TUI and the
// HTTP server.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/colsense/colsense/internal/dataset"
	"github.com/colsense/colsense/internal/metrics"
	"github.com/colsense/colsense/internal/types"
)

// DefaultLimit is the number of analyses kept before the oldest is evicted.
const DefaultLimit = 5

// ErrNotFound is returned for unknown or evicted entry ids.
var ErrNotFound = errors.New("session: analysis not found")

// Entry is one completed analysis.
type Entry struct {
	ID                    string                         `json:"id"`
	Timestamp             time.Time                      `json:"timestamp"`
	Filename              string                         `json:"original_filename"`
	Kind                  dataset.Kind                   `json:"input_type,omitempty"`
	Fingerprint           string                         `json:"fingerprint"`
	ColumnMetadata        []types.ColumnMetadata         `json:"column_metadata_sent_to_ai"`
	ClassificationResults []types.ClassificationResult   `json:"classification_results"`
	LevelCounts           map[types.SensitivityLevel]int `json:"level_counts"`
	// PreviousID points at an older entry with the same fingerprint, if one
	// is still in the history.
	PreviousID string `json:"previous_id,omitempty"`

	// Table is the uploaded grid, kept for annotated CSV export. Nil for
	// schema inputs.
	Table *dataset.Table `json:"-"`
}

// Failed reports whether the analysis produced an Error or Blocked result.
func (e Entry) Failed() bool { return types.Failed(e.ClassificationResults) }

// Session is safe for concurrent use.
type Session struct {
	mu      sync.RWMutex
	limit   int
	entries []Entry // oldest first
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns an empty session keeping at most limit entries; limit <= 0
// means DefaultLimit.
func New(limit int, opts ...Option) *Session {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &Session{limit: limit, now: time.Now, log: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Add records an analysis of ds and returns the stored entry. Failed
// analyses are recorded too; the results carry the reason.
func (s *Session) Add(ds *dataset.Dataset, results []types.ClassificationResult) Entry {
	e := Entry{
		ID:                    uuid.NewString(),
		Fingerprint:           dataset.Fingerprint(ds.Columns),
		Filename:              ds.Filename,
		Kind:                  ds.Kind,
		ColumnMetadata:        append([]types.ColumnMetadata(nil), ds.Columns...),
		ClassificationResults: append([]types.ClassificationResult(nil), results...),
		LevelCounts:           CountLevels(results),
		Table:                 ds.Table,
	}

	s.mu.Lock()
	e.Timestamp = s.now()
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].Fingerprint == e.Fingerprint {
			e.PreviousID = s.entries[i].ID
			break
		}
	}
	s.entries = append(s.entries, e)
	if over := len(s.entries) - s.limit; over > 0 {
		s.entries = append([]Entry(nil), s.entries[over:]...)
	}
	n := len(s.entries)
	s.mu.Unlock()

	metrics.HistoryEntries.Set(float64(n))
	s.log.Info("analysis added to history", "file", e.Filename, "id", e.ID, "history_size", n)
	return e
}

// History returns the entries, most recent first.
func (s *Session) History() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for i := len(s.entries) - 1; i >= 0; i-- {
		out = append(out, s.entries[i])
	}
	return out
}

// Get returns the entry with the given id.
func (s *Session) Get(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// Latest returns the most recent entry.
func (s *Session) Latest() (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// Len is the number of stored entries.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear drops every entry.
func (s *Session) Clear() {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
	metrics.HistoryEntries.Set(0)
	s.log.Info("analysis history cleared")
}

// CountLevels tallies results per level.
func CountLevels(results []types.ClassificationResult) map[types.SensitivityLevel]int {
	m := make(map[types.SensitivityLevel]int)
	for _, r := range results {
		m[r.SensitivityLevel]++
	}
	return m
}
