// Package queue defines message payloads exchanged over the message broker.
package queue

// Seating event types.
const (
	EventGuestSeated       = "guest.seated"
	EventGuestUnseated     = "guest.unseated"
	EventCompanionRemoved  = "companion.removed"
	EventCompanionRenamed  = "companion.renamed"
	EventBundleCleared     = "bundle.cleared"
	EventSnapshotPublished = "snapshot.published"
)

// SeatingEvent is published after a seating change has reached both the
// guest directory and the local seat map.  It carries enough context for
// downstream consumers to log or notify without reading the layout.
type SeatingEvent struct {
	Type        string `json:"type"`
	GuestID     string `json:"guest_id,omitempty"`
	GuestName   string `json:"guest_name,omitempty"`
	TableNumber int    `json:"table_number,omitempty"`
	TableName   string `json:"table_name,omitempty"`
	Seats       []int  `json:"seats,omitempty"`
	Path        string `json:"path,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}
