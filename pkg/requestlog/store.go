package requestlog

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/qumplus/simuserver/internal/ring"
)

// DefaultCapacity is the number of records retained when none is configured.
const DefaultCapacity = 1000

// Logger is the minimal interface for recording exchanges.
type Logger interface {
	Log(rec Record) Record
}

// Store is a bounded, append-only history of Records. It is safe for
// concurrent use.
type Store struct {
	mu      sync.Mutex
	records *ring.Buffer[Record]
	nextID  int64
	total   int64
}

var _ Logger = (*Store)(nil)

// NewStore creates a Store retaining at most capacity records.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{records: ring.New[Record](capacity)}
}

// Log assigns the next sequence id, fills in a missing timestamp, rounds the
// latency and appends the record, evicting the oldest one when full. The
// stored record is returned.
func (s *Store) Log(rec Record) Record {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	rec.ResponseTimeMs = roundMs(rec.ResponseTimeMs)
	if rec.Headers != nil {
		headers := make(map[string]string, len(rec.Headers))
		for k, v := range rec.Headers {
			headers[k] = v
		}
		rec.Headers = headers
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec.ID = s.nextID
	s.records.Push(rec)
	s.total++
	return rec
}

// Recent returns up to limit of the newest records, most recent last.
// limit <= 0 returns every retained record.
func (s *Store) Recent(limit int) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Last(limit)
}

// ByMethod returns retained records with the given method (case-insensitive),
// in original order.
func (s *Store) ByMethod(method string) []Record {
	return s.filter(func(r Record) bool {
		return strings.EqualFold(r.Method, method)
	})
}

// ByStatus returns retained records with the given status code, in original order.
func (s *Store) ByStatus(code int) []Record {
	return s.filter(func(r Record) bool {
		return r.StatusCode == code
	})
}

func (s *Store) filter(keep func(Record) bool) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0)
	s.records.Each(func(r Record) bool {
		if keep(r) {
			out = append(out, r)
		}
		return true
	})
	return out
}

// AverageResponseTimeMs returns the mean latency over the retained records,
// or 0 when there are none.
func (s *Store) AverageResponseTimeMs() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.records.Len()
	if n == 0 {
		return 0.0
	}
	var sum float64
	s.records.Each(func(r Record) bool {
		sum += r.ResponseTimeMs
		return true
	})
	return sum / float64(n)
}

// TotalCount returns how many records were logged since creation or the last
// Clear, including evicted ones.
func (s *Store) TotalCount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Len returns the number of retained records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Len()
}

// Capacity returns the maximum number of retained records.
func (s *Store) Capacity() int {
	return s.records.Cap()
}

// Clear drops every retained record and resets TotalCount. Sequence ids keep
// increasing.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records.Clear()
	s.total = 0
}

func roundMs(v float64) float64 {
	return math.Round(v*100) / 100
}
