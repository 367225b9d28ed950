// Package export turns the seating layout into files: CSV and XLSX
// rosters, a PNG floor plan and the JSON snapshot.
package export

import "github.com/iliyamo/wedding-seating/internal/seating"

// Row is one occupied seat.
type Row struct {
	Table     int
	TableName string
	Seat      int
	Kind      string
	Name      string
	GuestID   string
}

// Roster lists occupied seats, tables in collection order and seats
// ascending.  Buckets of deleted tables are not listed.
func Roster(tables []seating.Table, seats seating.Seating) []Row {
	var rows []Row
	for _, t := range tables {
		for _, s := range seats[t.Number] {
			if s.Free() {
				continue
			}
			rows = append(rows, Row{
				Table:     t.Number,
				TableName: t.Name,
				Seat:      s.Number,
				Kind:      s.Occupant.Kind(),
				Name:      s.Occupant.DisplayName(),
				GuestID:   s.Occupant.OwnerID(),
			})
		}
	}
	return rows
}
