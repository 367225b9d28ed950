package seating

import "time"

// SnapshotVersion is written into every exported layout.
const SnapshotVersion = 1

// Snapshot is the full reconstructible layout: tables plus seat map.
type Snapshot struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Tables  []Table   `json:"tables"`
	Seating Seating   `json:"seating"`
}
