package model

// Guest mirrors a row of the external `guests` table.  The directory owns
// these records; this service keeps a cached copy and only ever writes the
// table_number column (seating) and the RSVP columns.
//
// Fields:
//  ID             – opaque identifier assigned by the directory.
//  Name           – display name (nullable).
//  PartySize      – people covered by the invitation (guest_count).
//  ConfirmedCount – people confirmed attending (number_confirmations).
//  TableNumber    – assigned table number; nil or 0 means unassigned.
//  Confirmed      – did_confirm: true confirmed, false declined, nil pending.
//  InviteToken    – token embedded in the RSVP link.
//  Email          – optional contact address.
//  Phone          – optional phone number.
type Guest struct {
	ID             string  `json:"id"`                   // guests.id
	Name           *string `json:"name"`                 // guests.name (nullable)
	PartySize      int     `json:"guest_count"`          // guests.guest_count
	ConfirmedCount int     `json:"number_confirmations"` // guests.number_confirmations
	TableNumber    *int    `json:"table_number"`         // guests.table_number (nullable)
	Confirmed      *bool   `json:"did_confirm"`          // guests.did_confirm (nullable)
	InviteToken    string  `json:"-"`                    // guests.invite_token
	Email          *string `json:"email,omitempty"`      // guests.email (nullable)
	Phone          *string `json:"phone_number,omitempty"`
}

// ConfirmationStatus is the tri-state RSVP answer of a guest.
type ConfirmationStatus string

const (
	StatusPending   ConfirmationStatus = "pending"
	StatusConfirmed ConfirmationStatus = "confirmed"
	StatusDeclined  ConfirmationStatus = "declined"
)

// Status maps did_confirm onto a ConfirmationStatus.
func (g Guest) Status() ConfirmationStatus {
	switch {
	case g.Confirmed == nil:
		return StatusPending
	case *g.Confirmed:
		return StatusConfirmed
	default:
		return StatusDeclined
	}
}

// SeatsNeeded is the number of seats the guest's bundle occupies: the
// confirmed head count when there is one, the invited party size otherwise,
// and never less than one.
func (g Guest) SeatsNeeded() int {
	n := g.PartySize
	if g.ConfirmedCount > 0 {
		n = g.ConfirmedCount
	}
	if n < 1 {
		return 1
	}
	return n
}

// DisplayName returns the guest's name or fallback when it is unset.
func (g Guest) DisplayName(fallback string) string {
	if g.Name == nil || *g.Name == "" {
		return fallback
	}
	return *g.Name
}

// AssignedTable returns the table number and whether the guest is seated.
// A zero table number counts as unassigned.
func (g Guest) AssignedTable() (int, bool) {
	if g.TableNumber == nil || *g.TableNumber == 0 {
		return 0, false
	}
	return *g.TableNumber, true
}

// GuestDraft holds the fields an admin fills in for a new guest.  The id
// and invite token are generated on insert.
type GuestDraft struct {
	Name      string `json:"name"`
	PartySize int    `json:"guest_count"`
	Phone     string `json:"phone_number"`
	Email     string `json:"email"`
}

// GuestUpdate lists the editable columns; nil fields are left unchanged.
// The table number is not here: seating goes through the placement engine.
type GuestUpdate struct {
	Name           *string             `json:"name"`
	PartySize      *int                `json:"guest_count"`
	Phone          *string             `json:"phone_number"`
	Email          *string             `json:"email"`
	ConfirmedCount *int                `json:"number_confirmations"`
	Status         *ConfirmationStatus `json:"status"`
}

// Empty reports whether the update changes nothing.
func (u GuestUpdate) Empty() bool {
	return u.Name == nil && u.PartySize == nil && u.Phone == nil && u.Email == nil &&
		u.ConfirmedCount == nil && u.Status == nil
}
