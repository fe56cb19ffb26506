package history

import (
	"errors"
	"sync"
	"time"

	"github.com/kilianp07/evroute/core/clock"
)

const (
	// DefaultCapacity is the number of records kept before eviction starts.
	DefaultCapacity = 500
	// DefaultLimit bounds Query results when no positive limit is given.
	DefaultLimit = 100
)

// ErrNotFound is returned by SetActual for an unknown id.
var ErrNotFound = errors.New("prediction not found")

// Filter selects records for Query.
type Filter struct {
	StationID string
	Limit     int
	TimeRange TimeRange
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity overrides DefaultCapacity. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithClock sets the time source used for timestamps and windows.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithPublisher attaches a publisher notified after each mutation.
func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.pub = p
		}
	}
}

// WithLocation sets the zone used to bucket usage patterns by hour.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Store is a fixed capacity FIFO ledger of prediction records.
type Store struct {
	mu       sync.RWMutex
	buf      []Record
	head     int // position of the oldest record
	size     int
	capacity int
	nextID   int64
	index    map[int64]int

	clock clock.Clock
	pub   Publisher
	loc   *time.Location
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		capacity: DefaultCapacity,
		clock:    clock.System{},
		pub:      nopPublisher{},
		loc:      time.Local,
	}
	for _, o := range opts {
		o(s)
	}
	s.buf = make([]Record, s.capacity)
	s.index = make(map[int64]int, s.capacity)
	return s
}

// Capacity returns the maximum number of records held.
func (s *Store) Capacity() int { return s.capacity }

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Record appends a new record built from e and returns a copy of it. When the
// store is full the oldest record is evicted.
func (s *Store) Record(e Entry) Record {
	s.mu.Lock()
	s.nextID++
	rec := Record{
		ID:             s.nextID,
		Timestamp:      s.clock.Now(),
		Type:           e.Type,
		PredictedValue: clonePtr(e.PredictedValue),
		ActualValue:    clonePtr(e.ActualValue),
		Confidence:     clonePtr(e.Confidence),
		Meta:           e.Meta,
	}
	if e.StationID != "" {
		id := e.StationID
		rec.StationID = &id
	}
	rec.ErrorValue = absError(rec.PredictedValue, rec.ActualValue)
	rec = rec.clone()

	pos := (s.head + s.size) % s.capacity
	if s.size == s.capacity {
		delete(s.index, s.buf[s.head].ID)
		pos = s.head
		s.head = (s.head + 1) % s.capacity
	} else {
		s.size++
	}
	s.buf[pos] = rec
	s.index[rec.ID] = pos
	size := s.size
	s.mu.Unlock()

	out := rec.clone()
	s.pub.Publish(Event{Kind: EventRecorded, Record: rec.clone(), Size: size})
	return out
}

// SetActual stores the observed outcome for id and recomputes its error when
// a prediction is present. Repeated calls overwrite the previous outcome.
func (s *Store) SetActual(id int64, actual float64) (Record, error) {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return Record{}, ErrNotFound
	}
	rec := &s.buf[pos]
	v := actual
	rec.ActualValue = &v
	if e := absError(rec.PredictedValue, rec.ActualValue); e != nil {
		rec.ErrorValue = e
	}
	out := rec.clone()
	size := s.size
	s.mu.Unlock()

	s.pub.Publish(Event{Kind: EventActual, Record: out.clone(), Size: size})
	return out, nil
}

// Query returns the most recent Limit records matching f, oldest first.
func (s *Store) Query(f Filter) []Record {
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	matched := s.collect(f.StationID, f.TimeRange)
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched
}

// collect returns copies of every record matching station and window in
// insertion order. An empty station matches all records.
func (s *Store) collect(station string, tr TimeRange) []Record {
	cutoff, bounded := tr.Cutoff(s.clock.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, s.size)
	for i := 0; i < s.size; i++ {
		r := &s.buf[(s.head+i)%s.capacity]
		if station != "" && r.Station() != station {
			continue
		}
		if bounded && r.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, r.clone())
	}
	return out
}
