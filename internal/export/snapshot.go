package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iliyamo/wedding-seating/internal/seating"
)

// EncodeSnapshot writes snap as indented JSON.
func EncodeSnapshot(w io.Writer, snap seating.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

type snapshotJSON struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Tables  json.RawMessage `json:"tables"`
	Seating json.RawMessage `json:"seating"`
}

// DecodeSnapshot reads and validates a layout file.  Any malformed table,
// seat or an unknown newer version rejects the whole file.
func DecodeSnapshot(r io.Reader) (seating.Snapshot, error) {
	var raw snapshotJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return seating.Snapshot{}, fmt.Errorf("decode layout: %w", err)
	}
	if raw.Version > seating.SnapshotVersion {
		return seating.Snapshot{}, fmt.Errorf("layout version %d is newer than supported %d", raw.Version, seating.SnapshotVersion)
	}
	tables, err := seating.ParseTables(raw.Tables)
	if err != nil {
		return seating.Snapshot{}, err
	}
	seats, err := seating.ParseSeating(raw.Seating)
	if err != nil {
		return seating.Snapshot{}, err
	}
	return seating.Snapshot{
		Version: raw.Version,
		SavedAt: raw.SavedAt,
		Tables:  tables,
		Seating: seats,
	}, nil
}
