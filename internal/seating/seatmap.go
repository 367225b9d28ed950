package seating

// Seating maps a table number to that table's seats.  Buckets are always
// replaced as a whole, never mutated in place.
type Seating map[int][]Seat

// EmptyBucket returns capacity free seats numbered from 1.
func EmptyBucket(capacity int) []Seat {
	if capacity < 0 {
		capacity = 0
	}
	out := make([]Seat, capacity)
	for i := range out {
		out[i] = Seat{Number: i + 1}
	}
	return out
}

// ResizeBucket returns a copy of bucket holding exactly capacity seats,
// numbered by position.  Seats up to the new size keep their occupants;
// extra seats are dropped and missing ones are padded as free.
func ResizeBucket(bucket []Seat, capacity int) []Seat {
	out := EmptyBucket(capacity)
	for i := range out {
		if i < len(bucket) {
			out[i].Occupant = bucket[i].Occupant
		}
	}
	return out
}

// Clone copies the map and every bucket.  Occupants are immutable values
// so copying the slices is enough.
func (s Seating) Clone() Seating {
	out := make(Seating, len(s))
	for n, b := range s {
		out[n] = append([]Seat(nil), b...)
	}
	return out
}

// BucketOrEmpty returns a copy of the bucket for tableNumber, or an empty
// bucket of capacity when the table has none yet.
func (s Seating) BucketOrEmpty(tableNumber, capacity int) []Seat {
	if b, ok := s[tableNumber]; ok {
		return append([]Seat(nil), b...)
	}
	return EmptyBucket(capacity)
}

// FirstFreeSeats returns the lowest-numbered needed free seats of the
// table, scanning in seat order.  It reports false when fewer than needed
// seats are free.  needed below 1 is treated as 1.
func (s Seating) FirstFreeSeats(tableNumber, needed, capacity int) ([]int, bool) {
	if needed < 1 {
		needed = 1
	}
	bucket, ok := s[tableNumber]
	if !ok {
		bucket = EmptyBucket(capacity)
	}
	free := make([]int, 0, needed)
	for _, seat := range bucket {
		if !seat.Free() {
			continue
		}
		free = append(free, seat.Number)
		if len(free) == needed {
			return free, true
		}
	}
	return nil, false
}

// Occupied counts the taken seats of a table.
func (s Seating) Occupied(tableNumber int) int {
	n := 0
	for _, seat := range s[tableNumber] {
		if !seat.Free() {
			n++
		}
	}
	return n
}

// SeatsOf returns the seat numbers the guest holds at a table.
func (s Seating) SeatsOf(tableNumber int, guestID string) []int {
	var out []int
	for _, seat := range s[tableNumber] {
		if seat.Occupant != nil && seat.Occupant.OwnerID() == guestID {
			out = append(out, seat.Number)
		}
	}
	return out
}

// HasPrimary reports whether the guest sits in person at the table.
func (s Seating) HasPrimary(tableNumber int, guestID string) bool {
	for _, seat := range s[tableNumber] {
		switch o := seat.Occupant.(type) {
		case Primary:
			if o.GuestID == guestID {
				return true
			}
		case Companion, nil:
		}
	}
	return false
}
