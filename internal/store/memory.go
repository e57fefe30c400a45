package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/i474232898/climate-data-aggregation/internal/climate"
)

var (
	// ErrNotFound is returned when no probe results exist for a source.
	ErrNotFound = errors.New("no status data for source")
)

// StatusHistory holds a time-ordered list of probe results for a source.
type StatusHistory struct {
	Statuses []climate.SourceStatus
}

// MemoryStore is a concurrency-safe in-memory store of upstream probe results.
type MemoryStore struct {
	mu sync.RWMutex

	// key: source name, value: history
	data map[string]*StatusHistory

	// retention configuration
	maxHistory int           // max number of probes per source
	maxAge     time.Duration // optional max age for probes

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*StatusHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveStatus appends a probe result and enforces retention.
func (s *MemoryStore) SaveStatus(status climate.SourceStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[status.Name]
	if !ok {
		history = &StatusHistory{}
		s.data[status.Name] = history
	}

	history.Statuses = append(history.Statuses, status)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Statuses) > s.maxHistory {
		over := len(history.Statuses) - s.maxHistory
		history.Statuses = history.Statuses[over:]
	}

	// Enforce retention by age. The newest probe is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Statuses)-1; i++ {
			if !history.Statuses[i].CheckedAt.Before(cutoff) {
				break
			}
		}
		history.Statuses = history.Statuses[i:]
	}
}

// GetLatest returns the most recent probe result for a source.
func (s *MemoryStore) GetLatest(name string) (climate.SourceStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[name]
	if !ok || len(history.Statuses) == 0 {
		return climate.SourceStatus{}, ErrNotFound
	}
	return history.Statuses[len(history.Statuses)-1], nil
}

// GetAllLatest returns the most recent probe of every source, sorted by name.
func (s *MemoryStore) GetAllLatest() []climate.SourceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]climate.SourceStatus, 0, len(s.data))
	for _, history := range s.data {
		if n := len(history.Statuses); n > 0 {
			out = append(out, history.Statuses[n-1])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetRange returns all probes for a source between from and to (inclusive).
func (s *MemoryStore) GetRange(name string, from, to time.Time) ([]climate.SourceStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[name]
	if !ok || len(history.Statuses) == 0 {
		return nil, ErrNotFound
	}

	var result []climate.SourceStatus
	for _, st := range history.Statuses {
		if !st.CheckedAt.Before(from) && !st.CheckedAt.After(to) {
			result = append(result, st)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
