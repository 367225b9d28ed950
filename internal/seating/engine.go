package seating

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/wedding-seating/internal/metrics"
	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/queue"
)

// GuestDirectory is the remote guest store.  The engine only reads the
// guest list and writes single table_number updates.
type GuestDirectory interface {
	ListGuests(ctx context.Context) ([]model.Guest, error)
	SetTableNumber(ctx context.Context, guestID string, tableNumber *int) error
}

// EventPublisher receives seating events.  Failures are logged and never
// undo a seating change.
type EventPublisher interface {
	PublishSeating(ctx context.Context, ev queue.SeatingEvent) error
}

// Placement describes a seated bundle.
type Placement struct {
	GuestID     string `json:"guest_id"`
	TableNumber int    `json:"table_number"`
	TableName   string `json:"table_name"`
	Seats       []int  `json:"seats"`
}

// Orphan is a guest whose directory table number has no matching seat.
type Orphan struct {
	GuestID     string `json:"guest_id"`
	Name        string `json:"name"`
	TableNumber int    `json:"table_number"`
	Reason      string `json:"reason"`
}

const (
	OrphanTableMissing = "table_missing"
	OrphanSeatMissing  = "seat_missing"
)

// Engine seats guest bundles.  For every change the directory is written
// first and the local seat map only after it succeeded, so local state
// may lag behind the directory but never claims more than it.
type Engine struct {
	mu            sync.Mutex
	store         *Store
	dir           GuestDirectory
	guests        *GuestCache
	events        EventPublisher
	metrics       *metrics.Seating
	logger        *slog.Logger
	rotationAware bool
	now           func() time.Time
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

func WithPublisher(p EventPublisher) EngineOption  { return func(e *Engine) { e.events = p } }
func WithMetrics(m *metrics.Seating) EngineOption  { return func(e *Engine) { e.metrics = m } }
func WithLogger(l *slog.Logger) EngineOption       { return func(e *Engine) { e.logger = l } }
func WithClock(now func() time.Time) EngineOption { return func(e *Engine) { e.now = now } }

// WithRotationAwareHitTest makes drops honour table rotation.
func WithRotationAwareHitTest(on bool) EngineOption {
	return func(e *Engine) { e.rotationAware = on }
}

// NewEngine wires a placement engine over store and dir.
func NewEngine(store *Store, dir GuestDirectory, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  store,
		dir:    dir,
		guests: &GuestCache{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the layout store the engine writes to.
func (e *Engine) Store() *Store { return e.store }

// Guests returns the cached guest list.
func (e *Engine) Guests() *GuestCache { return e.guests }

// RefreshGuests reloads the guest cache from the directory, sorted by
// name.  On failure the previous cache is kept.
func (e *Engine) RefreshGuests(ctx context.Context) error {
	guests, err := e.dir.ListGuests(ctx)
	if err != nil {
		e.logger.Error("guest list refresh failed", "error", err)
		return fmt.Errorf("list guests: %w", err)
	}
	sortByName(guests)
	e.guests.Replace(guests)
	return nil
}

// PlaceGuestBundle seats guest and its companions on table using the
// first free seats.  The table must hold the whole bundle; the party is
// never split and no other table is tried.
func (e *Engine) PlaceGuestBundle(ctx context.Context, guest model.Guest, table Table) (Placement, error) {
	e.mu.Lock()
	p, err := e.place(ctx, guest, table)
	e.mu.Unlock()
	if err != nil {
		return Placement{}, err
	}
	e.publish(ctx, queue.SeatingEvent{
		Type:        queue.EventGuestSeated,
		GuestID:     guest.ID,
		GuestName:   guest.DisplayName(DefaultGuestName),
		TableNumber: table.Number,
		TableName:   table.Name,
		Seats:       p.Seats,
	})
	return p, nil
}

func (e *Engine) place(ctx context.Context, guest model.Guest, table Table) (Placement, error) {
	if cur, ok := e.store.Table(table.ID); !ok || cur.Number != table.Number {
		return Placement{}, ErrTableNotFound
	}
	needed := guest.SeatsNeeded()
	free, ok := e.store.FirstFreeSeats(table.Number, needed, table.Capacity)
	if !ok {
		e.metrics.Placement(metrics.ResultInsufficient)
		return Placement{}, fmt.Errorf("%w: %s cannot seat %d", ErrInsufficientSeats, table.Name, needed)
	}

	number := table.Number
	if err := e.dir.SetTableNumber(ctx, guest.ID, &number); err != nil {
		e.metrics.Placement(metrics.ResultDirectory)
		e.logger.Error("assign table in directory failed", "guest_id", guest.ID, "table", number, "error", err)
		return Placement{}, fmt.Errorf("%w: %w", ErrDirectoryUpdate, err)
	}
	e.guests.setTableNumber(guest.ID, &number)

	err := e.store.mutateBucket(ctx, number, func(cur Table, bucket []Seat) error {
		if cur.ID != table.ID || cur.Capacity != table.Capacity {
			return fmt.Errorf("%w: %s was edited", ErrLayoutChanged, table.Name)
		}
		for _, seatNo := range free {
			if seatNo > len(bucket) || !bucket[seatNo-1].Free() {
				return fmt.Errorf("%w: seat %d of %s is taken", ErrLayoutChanged, seatNo, table.Name)
			}
		}
		for i, seatNo := range free {
			var occ Occupant = Companion{GuestID: guest.ID, Index: i, Name: CompanionName(i)}
			if i == 0 {
				occ = Primary{GuestID: guest.ID, Name: guest.DisplayName(DefaultGuestName)}
			}
			bucket[seatNo-1] = Seat{Number: seatNo, Occupant: occ}
		}
		return nil
	})
	if errors.Is(err, ErrTableNotFound) {
		err = fmt.Errorf("%w: %s was removed", ErrLayoutChanged, table.Name)
	}
	switch {
	case errors.Is(err, ErrLayoutChanged):
		e.metrics.Placement(metrics.ResultConflict)
		e.logger.Warn("seats not written, layout changed after directory update", "guest_id", guest.ID, "table", number, "error", err)
		return Placement{}, err
	case err != nil:
		e.metrics.Placement(metrics.ResultStorage)
		return Placement{}, fmt.Errorf("persist seating: %w", err)
	}
	e.metrics.Placement(metrics.ResultOK)
	e.logger.Info("guest bundle seated", "guest_id", guest.ID, "table", number, "seats", free)
	return Placement{GuestID: guest.ID, TableNumber: number, TableName: table.Name, Seats: free}, nil
}

// Place looks up the cached guest and the table by id and seats the bundle.
func (e *Engine) Place(ctx context.Context, guestID, tableID string) (Placement, error) {
	guest, ok := e.guests.Get(guestID)
	if !ok {
		return Placement{}, ErrGuestNotFound
	}
	table, ok := e.store.Table(tableID)
	if !ok {
		return Placement{}, ErrTableNotFound
	}
	return e.PlaceGuestBundle(ctx, guest, table)
}

// DropGuest is the drag-and-drop entry point: the drop point picks the
// table, then the bundle is placed on it.
func (e *Engine) DropGuest(ctx context.Context, guestID string, at Point) (Placement, error) {
	guest, ok := e.guests.Get(guestID)
	if !ok {
		return Placement{}, ErrGuestNotFound
	}
	table, ok := HitTest(e.store.Tables(), at, e.rotationAware)
	if !ok {
		return Placement{}, ErrNoTableAtPoint
	}
	return e.PlaceGuestBundle(ctx, guest, table)
}

// RemoveOccupant frees one seat.  For a primary occupant the directory
// table number is cleared first; the guest's companion seats are left as
// they are.  Removing from a free seat is a no-op.
func (e *Engine) RemoveOccupant(ctx context.Context, tableNumber, seatNumber int) (Seat, error) {
	e.mu.Lock()
	removed, err := e.removeOccupant(ctx, tableNumber, seatNumber)
	e.mu.Unlock()
	if err != nil || removed.Free() {
		return removed, err
	}
	ev := queue.SeatingEvent{
		GuestID:     removed.Occupant.OwnerID(),
		GuestName:   removed.Occupant.DisplayName(),
		TableNumber: tableNumber,
		Seats:       []int{seatNumber},
	}
	switch removed.Occupant.(type) {
	case Primary:
		ev.Type = queue.EventGuestUnseated
	case Companion:
		ev.Type = queue.EventCompanionRemoved
	}
	e.publish(ctx, ev)
	return removed, nil
}

func (e *Engine) removeOccupant(ctx context.Context, tableNumber, seatNumber int) (Seat, error) {
	bucket, ok := e.store.Bucket(tableNumber)
	if !ok || seatNumber < 1 || seatNumber > len(bucket) {
		return Seat{}, ErrSeatNotFound
	}
	seat := bucket[seatNumber-1]
	switch occ := seat.Occupant.(type) {
	case nil:
		return seat, nil
	case Primary:
		if err := e.dir.SetTableNumber(ctx, occ.GuestID, nil); err != nil {
			e.logger.Error("clear table in directory failed", "guest_id", occ.GuestID, "error", err)
			return Seat{}, fmt.Errorf("%w: %w", ErrDirectoryUpdate, err)
		}
		e.guests.setTableNumber(occ.GuestID, nil)
	case Companion:
	default:
		return Seat{}, fmt.Errorf("unknown occupant type %T", occ)
	}

	err := e.store.mutateBucket(ctx, tableNumber, func(_ Table, b []Seat) error {
		if seatNumber > len(b) || b[seatNumber-1].Occupant != seat.Occupant {
			return fmt.Errorf("%w: seat %d of table %d", ErrLayoutChanged, seatNumber, tableNumber)
		}
		b[seatNumber-1] = Seat{Number: seatNumber}
		return nil
	})
	if err != nil {
		return Seat{}, fmt.Errorf("persist seating: %w", err)
	}
	e.metrics.Removal(seat.Occupant.Kind())
	return seat, nil
}

// RemoveBundle unseats a guest completely: the directory table number is
// cleared, then every seat the guest or its companions hold is freed.
func (e *Engine) RemoveBundle(ctx context.Context, guestID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.dir.SetTableNumber(ctx, guestID, nil); err != nil {
		e.logger.Error("clear table in directory failed", "guest_id", guestID, "error", err)
		return 0, fmt.Errorf("%w: %w", ErrDirectoryUpdate, err)
	}
	e.guests.setTableNumber(guestID, nil)
	cleared, err := e.store.clearGuest(ctx, guestID)
	if err != nil {
		return cleared, fmt.Errorf("persist seating: %w", err)
	}
	e.metrics.Removal("bundle")
	e.publish(ctx, queue.SeatingEvent{Type: queue.EventBundleCleared, GuestID: guestID})
	return cleared, nil
}

// ForgetGuest drops a guest that was deleted from the directory: every seat
// it or its companions hold is freed and it leaves the guest cache.  The
// directory is not written.
func (e *Engine) ForgetGuest(ctx context.Context, guestID string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.guests.remove(guestID)
	cleared, err := e.store.clearGuest(ctx, guestID)
	if err != nil {
		return cleared, fmt.Errorf("persist seating: %w", err)
	}
	if cleared > 0 {
		e.metrics.Removal("bundle")
		e.publish(ctx, queue.SeatingEvent{Type: queue.EventBundleCleared, GuestID: guestID})
	}
	return cleared, nil
}

// RenameCompanion changes a companion's display name.  An empty name
// keeps the current one.
func (e *Engine) RenameCompanion(ctx context.Context, tableNumber, seatNumber int, name string) (Seat, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	bucket, ok := e.store.Bucket(tableNumber)
	if !ok || seatNumber < 1 || seatNumber > len(bucket) {
		return Seat{}, ErrSeatNotFound
	}
	var renamed Seat
	err := e.store.mutateBucket(ctx, tableNumber, func(_ Table, b []Seat) error {
		if seatNumber > len(b) {
			return ErrSeatNotFound
		}
		c, ok := b[seatNumber-1].Occupant.(Companion)
		if !ok {
			return ErrNotCompanion
		}
		if name != "" {
			c.Name = name
		}
		renamed = Seat{Number: seatNumber, Occupant: c}
		b[seatNumber-1] = renamed
		return nil
	})
	if err != nil {
		return Seat{}, err
	}
	e.publish(ctx, queue.SeatingEvent{
		Type:        queue.EventCompanionRenamed,
		GuestID:     renamed.Occupant.OwnerID(),
		GuestName:   renamed.Occupant.DisplayName(),
		TableNumber: tableNumber,
		Seats:       []int{seatNumber},
	})
	return renamed, nil
}

// Orphans reports guests whose directory table number is not backed by
// the local layout.  Nothing is repaired.
func (e *Engine) Orphans() []Orphan {
	seating := e.store.Seating()
	tables := map[int]bool{}
	for _, t := range e.store.Tables() {
		tables[t.Number] = true
	}
	out := []Orphan{}
	for _, g := range e.guests.All() {
		n, seated := g.AssignedTable()
		if !seated {
			continue
		}
		o := Orphan{GuestID: g.ID, Name: g.DisplayName(DefaultGuestName), TableNumber: n}
		switch {
		case !tables[n]:
			o.Reason = OrphanTableMissing
		case !seating.HasPrimary(n, g.ID):
			o.Reason = OrphanSeatMissing
		default:
			continue
		}
		out = append(out, o)
	}
	return out
}

// CountAssigned returns the occupied seats of a table.
func (e *Engine) CountAssigned(tableNumber int) int {
	bucket, _ := e.store.Bucket(tableNumber)
	n := 0
	for _, s := range bucket {
		if !s.Free() {
			n++
		}
	}
	return n
}

func (e *Engine) publish(ctx context.Context, ev queue.SeatingEvent) {
	if e.events == nil {
		return
	}
	ev.OccurredAt = e.now().UTC().Format(time.RFC3339)
	if err := e.events.PublishSeating(ctx, ev); err != nil && !errors.Is(err, context.Canceled) {
		e.logger.Warn("seating event not published", "type", ev.Type, "error", err)
	}
}
