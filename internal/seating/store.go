package seating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"
)

// Store owns the table collection and the seat map.  Every mutation is
// written through the Persister before the method returns.
type Store struct {
	mu        sync.RWMutex
	persister Persister
	logger    *slog.Logger
	newID     func() string

	tables  []Table
	seating Seating
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithIDGenerator replaces the uuid generator used for new tables.
func WithIDGenerator(f func() string) StoreOption {
	return func(s *Store) { s.newID = f }
}

// NewStore returns an empty store writing through p.
func NewStore(p Persister, logger *slog.Logger, opts ...StoreOption) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		persister: p,
		logger:    logger,
		newID:     uuid.NewString,
		tables:    []Table{},
		seating:   Seating{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadStore reads both blobs from p.  Missing or unparsable blobs fall
// back to an empty collection with a warning; only a storage failure is
// returned, so an unreachable backend is never mistaken for an empty
// layout and overwritten.
func LoadStore(ctx context.Context, p Persister, logger *slog.Logger, opts ...StoreOption) (*Store, error) {
	s := NewStore(p, logger, opts...)

	raw, err := p.Load(ctx, TablesKey)
	switch {
	case errors.Is(err, ErrBlobNotFound):
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", TablesKey, err)
	default:
		tables, perr := ParseTables(raw)
		if perr != nil {
			s.logger.Warn("stored tables are unreadable, starting empty", "key", TablesKey, "error", perr)
		}
		s.tables = tables
	}

	raw, err = p.Load(ctx, SeatingKey)
	switch {
	case errors.Is(err, ErrBlobNotFound):
	case err != nil:
		return nil, fmt.Errorf("load %s: %w", SeatingKey, err)
	default:
		seating, perr := ParseSeating(raw)
		if perr != nil {
			s.logger.Warn("stored seating is unreadable, starting empty", "key", SeatingKey, "error", perr)
		}
		s.seating = seating
	}
	s.seating = conformSeating(s.tables, s.seating, s.logger)
	return s, nil
}

// Tables returns a copy of the table collection in creation order.
func (s *Store) Tables() []Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Table{}, s.tables...)
}

// Table looks a table up by id.
func (s *Store) Table(id string) (Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return Table{}, false
	}
	return s.tables[i], true
}

// TableByNumber returns the first table using number.
func (s *Store) TableByNumber(number int) (Table, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tableByNumberLocked(number)
}

// Seating returns a deep copy of the seat map.
func (s *Store) Seating() Seating {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seating.Clone()
}

// Bucket returns a copy of one table's seats and whether it exists.
func (s *Store) Bucket(tableNumber int) ([]Seat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.seating[tableNumber]
	if !ok {
		return nil, false
	}
	return append([]Seat(nil), b...), true
}

// FirstFreeSeats runs the first-fit scan against the current seat map.
func (s *Store) FirstFreeSeats(tableNumber, needed, capacity int) ([]int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seating.FirstFreeSeats(tableNumber, needed, capacity)
}

// NextTableNumber suggests max(number)+1, or 1 for an empty layout.
func (s *Store) NextTableNumber() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	next := 1
	for _, t := range s.tables {
		if t.Number >= next {
			next = t.Number + 1
		}
	}
	return next
}

// CreateTable appends a new table built from d.  Number uniqueness is not
// checked here.
func (s *Store) CreateTable(ctx context.Context, d TableDraft) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.Number < 0 || d.Capacity < 0 {
		return Table{}, fmt.Errorf("%w: number and seats must be positive", ErrInvalidTable)
	}
	if d.Shape == "" {
		d.Shape = ShapeRound
	}
	if !d.Shape.Valid() {
		return Table{}, fmt.Errorf("%w: unknown shape %q", ErrInvalidTable, d.Shape)
	}
	if d.Number == 0 {
		d.Number = 1
		for _, t := range s.tables {
			if t.Number >= d.Number {
				d.Number = t.Number + 1
			}
		}
	}
	if d.Capacity == 0 {
		d.Capacity = DefaultCapacity
	}
	if d.Name == "" {
		d.Name = DefaultTableName(d.Number)
	}
	if d.X == 0 && d.Y == 0 {
		d.X, d.Y = DefaultX, DefaultY
	}

	t := Table{
		ID:       s.newID(),
		Number:   d.Number,
		Name:     d.Name,
		Shape:    d.Shape,
		Capacity: d.Capacity,
		X:        d.X,
		Y:        d.Y,
		Rotation: d.Rotation,
	}
	s.tables = append(append([]Table{}, s.tables...), t)
	return t, s.persistLocked(ctx)
}

// UpdateTable applies an RFC 7396 merge patch to the table.  Field values
// that cannot be read as the right type keep their previous value.  A
// capacity change resizes the table's bucket; a number change moves it.
func (s *Store) UpdateTable(ctx context.Context, id string, patch []byte) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Table{}, ErrTableNotFound
	}
	cur := s.tables[i]
	next, err := s.applyPatch(cur, patch)
	if err != nil {
		return Table{}, err
	}

	if next.Number != cur.Number {
		for _, t := range s.tables {
			if t.ID != cur.ID && t.Number == next.Number {
				return Table{}, fmt.Errorf("%w: %d (%s)", ErrTableNumberInUse, next.Number, t.Name)
			}
		}
		if _, taken := s.seating[next.Number]; taken {
			return Table{}, fmt.Errorf("%w: seats already recorded under %d", ErrTableNumberInUse, next.Number)
		}
	}

	seating := s.seating
	if bucket, ok := seating[cur.Number]; ok && (next.Capacity != cur.Capacity || next.Number != cur.Number) {
		seating = seating.Clone()
		delete(seating, cur.Number)
		seating[next.Number] = ResizeBucket(bucket, next.Capacity)
	}

	tables := append([]Table{}, s.tables...)
	tables[i] = next
	s.tables = tables
	s.seating = seating
	return next, s.persistLocked(ctx)
}

// DeleteTable removes the table and its whole bucket.  Guests seated there
// keep their table number in the directory.
func (s *Store) DeleteTable(ctx context.Context, id string) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Table{}, ErrTableNotFound
	}
	gone := s.tables[i]
	tables := make([]Table, 0, len(s.tables)-1)
	tables = append(tables, s.tables[:i]...)
	tables = append(tables, s.tables[i+1:]...)
	s.tables = tables

	if _, ok := s.seating[gone.Number]; ok {
		seating := s.seating.Clone()
		delete(seating, gone.Number)
		s.seating = seating
	}
	return gone, s.persistLocked(ctx)
}

// Snapshot captures the current layout.
func (s *Store) Snapshot(now time.Time) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Version: SnapshotVersion,
		SavedAt: now.UTC(),
		Tables:  append([]Table{}, s.tables...),
		Seating: s.seating.Clone(),
	}
}

// Restore replaces tables and seating wholesale.  Buckets are fitted to
// their table's capacity and buckets with no table are dropped.
func (s *Store) Restore(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tables := append([]Table{}, snap.Tables...)
	s.tables = tables
	s.seating = conformSeating(tables, snap.Seating, s.logger)
	return s.persistLocked(ctx)
}

// mutateBucket hands fn the table numbered tableNumber and a private copy
// of its bucket (built empty at capacity when missing), then stores
// whatever fn leaves in it.  Nothing is written when the table is gone.
func (s *Store) mutateBucket(ctx context.Context, tableNumber int, fn func(Table, []Seat) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tableByNumberLocked(tableNumber)
	if !ok {
		return fmt.Errorf("%w: number %d", ErrTableNotFound, tableNumber)
	}
	bucket := s.seating.BucketOrEmpty(tableNumber, t.Capacity)
	if err := fn(t, bucket); err != nil {
		return err
	}
	seating := s.seating.Clone()
	seating[tableNumber] = bucket
	s.seating = seating
	return s.persistLocked(ctx)
}

// clearGuest frees every seat owned by guestID and returns how many.
func (s *Store) clearGuest(ctx context.Context, guestID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seating := s.seating.Clone()
	cleared := 0
	for n, bucket := range seating {
		for i, seat := range bucket {
			if seat.Occupant != nil && seat.Occupant.OwnerID() == guestID {
				bucket[i] = Seat{Number: seat.Number}
				cleared++
			}
		}
		seating[n] = bucket
	}
	if cleared == 0 {
		return 0, nil
	}
	s.seating = seating
	return cleared, s.persistLocked(ctx)
}

func (s *Store) tableByNumberLocked(number int) (Table, bool) {
	for _, t := range s.tables {
		if t.Number == number {
			return t, true
		}
	}
	return Table{}, false
}

// conformSeating returns a copy of seating where every bucket holds exactly
// its table's capacity and buckets whose number has no table are dropped.
// With duplicate numbers the first table wins, as in TableByNumber.
func conformSeating(tables []Table, seating Seating, logger *slog.Logger) Seating {
	capacity := make(map[int]int, len(tables))
	for _, t := range tables {
		if _, seen := capacity[t.Number]; !seen {
			capacity[t.Number] = t.Capacity
		}
	}
	out := make(Seating, len(seating))
	for n, bucket := range seating {
		c, ok := capacity[n]
		if !ok {
			logger.Warn("seat list without a table dropped", "table", n, "occupied", seating.Occupied(n))
			continue
		}
		if len(bucket) != c {
			logger.Warn("seat list resized to table capacity", "table", n, "seats", len(bucket), "capacity", c, "occupied", seating.Occupied(n))
		}
		out[n] = ResizeBucket(bucket, c)
	}
	return out
}

func (s *Store) indexOf(id string) int {
	for i, t := range s.tables {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) applyPatch(cur Table, patch []byte) (Table, error) {
	orig, err := json.Marshal(cur)
	if err != nil {
		return Table{}, err
	}
	merged, err := jsonpatch.MergePatch(orig, patch)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(merged, &fields); err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	next := cur
	if raw, ok := fields["name"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			next.Name = name
		} else {
			s.fieldFallback(cur.ID, "name", raw, err)
		}
	}
	if raw, ok := fields["type"]; ok {
		var shape Shape
		err := json.Unmarshal(raw, &shape)
		if err == nil && !shape.Valid() {
			err = fmt.Errorf("unknown shape %q", shape)
		}
		if err == nil {
			next.Shape = shape
		} else {
			s.fieldFallback(cur.ID, "type", raw, err)
		}
	}
	next.Number = s.positiveInt(cur.ID, "number", fields, cur.Number)
	next.Capacity = s.positiveInt(cur.ID, "seats", fields, cur.Capacity)
	if raw, ok := fields["rotation"]; ok {
		if v, err := CoerceInt(raw); err == nil {
			next.Rotation = v
		} else {
			s.fieldFallback(cur.ID, "rotation", raw, err)
		}
	}
	for key, dst := range map[string]*float64{"x": &next.X, "y": &next.Y} {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if v, err := coerceFloat(raw); err == nil {
			*dst = v
		} else {
			s.fieldFallback(cur.ID, key, raw, err)
		}
	}
	return next, nil
}

func (s *Store) positiveInt(id, key string, fields map[string]json.RawMessage, prev int) int {
	raw, ok := fields[key]
	if !ok {
		return prev
	}
	v, err := CoerceInt(raw)
	if err == nil && v < 1 {
		err = errors.New("must be positive")
	}
	if err != nil {
		s.fieldFallback(id, key, raw, err)
		return prev
	}
	return v
}

func (s *Store) fieldFallback(id, key string, raw json.RawMessage, err error) {
	s.logger.Warn("table patch value ignored, keeping previous", "table_id", id, "field", key, "value", string(raw), "error", err)
}

func (s *Store) persistLocked(ctx context.Context) error {
	tables, err := json.Marshal(s.tables)
	if err != nil {
		return fmt.Errorf("encode tables: %w", err)
	}
	seating, err := json.Marshal(s.seating)
	if err != nil {
		return fmt.Errorf("encode seating: %w", err)
	}
	if err := s.persister.Save(ctx, TablesKey, tables); err != nil {
		return fmt.Errorf("save %s: %w", TablesKey, err)
	}
	if err := s.persister.Save(ctx, SeatingKey, seating); err != nil {
		return fmt.Errorf("save %s: %w", SeatingKey, err)
	}
	return nil
}
