package seating

import (
	"encoding/json"
	"fmt"
)

// DefaultGuestName labels a primary occupant whose guest has no name.
const DefaultGuestName = "Invitado"

// Occupant is whoever sits on a seat.  It is either a Primary (the invited
// guest) or a Companion counted in that guest's party; no other type
// implements it.
type Occupant interface {
	OwnerID() string
	DisplayName() string
	Kind() string
	occupant()
}

// Primary is the invited guest in person.
type Primary struct {
	GuestID string
	Name    string
}

func (p Primary) OwnerID() string     { return p.GuestID }
func (p Primary) DisplayName() string { return p.Name }
func (Primary) Kind() string          { return "guest" }
func (Primary) occupant()             {}

// Companion is the Index-th additional person of a guest's party.
type Companion struct {
	GuestID string
	Index   int
	Name    string
}

func (c Companion) OwnerID() string     { return c.GuestID }
func (c Companion) DisplayName() string { return c.Name }
func (Companion) Kind() string          { return "companion" }
func (Companion) occupant()             {}

// CompanionName is the default display name of the i-th companion.
func CompanionName(i int) string {
	return fmt.Sprintf("+%d", i)
}

// Seat is one 1-based position around a table.
type Seat struct {
	Number   int
	Occupant Occupant
}

// Free reports whether nobody sits on the seat.
func (s Seat) Free() bool { return s.Occupant == nil }

type occupantJSON struct {
	Kind    string `json:"kind"`
	GuestID string `json:"guestId"`
	Name    string `json:"name"`
	Idx     int    `json:"idx,omitempty"`
}

type seatJSON struct {
	SeatNo   int           `json:"seatNo"`
	Occupant *occupantJSON `json:"occupant,omitempty"`
}

// MarshalJSON writes the seat as {seatNo, occupant?}.
func (s Seat) MarshalJSON() ([]byte, error) {
	out := seatJSON{SeatNo: s.Number}
	switch o := s.Occupant.(type) {
	case nil:
	case Primary:
		out.Occupant = &occupantJSON{Kind: o.Kind(), GuestID: o.GuestID, Name: o.Name}
	case Companion:
		out.Occupant = &occupantJSON{Kind: o.Kind(), GuestID: o.GuestID, Name: o.Name, Idx: o.Index}
	default:
		return nil, fmt.Errorf("unknown occupant type %T", o)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads {seatNo, occupant?}.  A JSON null leaves the seat
// untouched so sparse arrays decode into empty seats.
func (s *Seat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var in seatJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	s.Number = in.SeatNo
	s.Occupant = nil
	if in.Occupant == nil {
		return nil
	}
	switch in.Occupant.Kind {
	case "guest":
		s.Occupant = Primary{GuestID: in.Occupant.GuestID, Name: in.Occupant.Name}
	case "companion":
		if in.Occupant.Idx < 1 {
			return fmt.Errorf("seat %d: companion index %d out of range", in.SeatNo, in.Occupant.Idx)
		}
		s.Occupant = Companion{GuestID: in.Occupant.GuestID, Index: in.Occupant.Idx, Name: in.Occupant.Name}
	default:
		return fmt.Errorf("seat %d: unknown occupant kind %q", in.SeatNo, in.Occupant.Kind)
	}
	return nil
}
