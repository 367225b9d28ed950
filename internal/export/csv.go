package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/iliyamo/wedding-seating/internal/seating"
)

var csvHeader = []string{"table", "seat", "kind", "name", "guest_id"}

// WriteCSV writes the seat roster with a header row.
func WriteCSV(w io.Writer, tables []seating.Table, seats seating.Seating) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range Roster(tables, seats) {
		rec := []string{strconv.Itoa(r.Table), strconv.Itoa(r.Seat), r.Kind, r.Name, r.GuestID}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
