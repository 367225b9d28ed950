package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/wedding-seating/internal/seating"
)

const (
	rosterSheet = "Asientos"
	tablesSheet = "Mesas"
)

// WriteXLSX writes a workbook with the seat roster and a per-table
// occupancy summary.
func WriteXLSX(w io.Writer, tables []seating.Table, seats seating.Seating) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(tablesSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	roster := [][]any{{"table", "table_name", "seat", "kind", "name", "guest_id"}}
	for _, r := range Roster(tables, seats) {
		roster = append(roster, []any{r.Table, r.TableName, r.Seat, r.Kind, r.Name, r.GuestID})
	}
	if err := writeRows(f, rosterSheet, roster); err != nil {
		return err
	}

	summary := [][]any{{"number", "name", "type", "seats", "assigned"}}
	for _, t := range tables {
		summary = append(summary, []any{t.Number, t.Name, string(t.Shape), t.Capacity, seats.Occupied(t.Number)})
	}
	if err := writeRows(f, tablesSheet, summary); err != nil {
		return err
	}

	return f.Write(w)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, idx+1, err)
		}
	}
	return nil
}
