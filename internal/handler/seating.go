package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/seating"
)

// SeatingHandler serves the planner's admin API: guests, tables and seat
// assignments.
type SeatingHandler struct {
	Engine *seating.Engine
}

func NewSeatingHandler(engine *seating.Engine) *SeatingHandler {
	if engine == nil {
		panic("nil engine passed to NewSeatingHandler")
	}
	return &SeatingHandler{Engine: engine}
}

// guestView adds the derived RSVP fields to a directory row.
type guestView struct {
	model.Guest
	Status      model.ConfirmationStatus `json:"status"`
	SeatsNeeded int                      `json:"seats_needed"`
}

func viewGuests(guests []model.Guest) []guestView {
	out := make([]guestView, 0, len(guests))
	for _, g := range guests {
		out = append(out, guestView{Guest: g, Status: g.Status(), SeatsNeeded: g.SeatsNeeded()})
	}
	return out
}

// tableView is a table with its occupied seat count.
type tableView struct {
	seating.Table
	Assigned int `json:"assigned"`
}

// ListGuests returns the cached guest list, sorted by name.
// GET /v1/admin/guests
func (h *SeatingHandler) ListGuests(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": viewGuests(h.Engine.Guests().All())})
}

// UnassignedGuests lists guests without a table, filtered by ?search=.
// GET /v1/admin/guests/unassigned
func (h *SeatingHandler) UnassignedGuests(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": viewGuests(h.Engine.Guests().Unassigned(c.QueryParam("search")))})
}

// GuestsByTable groups seated guests under their table number.
// GET /v1/admin/guests/by-table
func (h *SeatingHandler) GuestsByTable(c echo.Context) error {
	grouped := h.Engine.Guests().ByTable()
	out := make(map[string][]guestView, len(grouped))
	for n, guests := range grouped {
		out[strconv.Itoa(n)] = viewGuests(guests)
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": out})
}

// RefreshGuests reloads the cache from the directory.
// POST /v1/admin/guests/refresh
func (h *SeatingHandler) RefreshGuests(c echo.Context) error {
	if err := h.Engine.RefreshGuests(c.Request().Context()); err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": len(h.Engine.Guests().All())})
}

// ListTables returns the layout with assigned/capacity counters.
// GET /v1/admin/tables
func (h *SeatingHandler) ListTables(c echo.Context) error {
	tables := h.Engine.Store().Tables()
	out := make([]tableView, 0, len(tables))
	for _, t := range tables {
		out = append(out, tableView{Table: t, Assigned: h.Engine.CountAssigned(t.Number)})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// NextTableNumber suggests the number for a new table.
// GET /v1/admin/tables/next-number
func (h *SeatingHandler) NextTableNumber(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"number": h.Engine.Store().NextTableNumber()})
}

// CreateTable adds a table; omitted fields take the dialog defaults.
// POST /v1/admin/tables
func (h *SeatingHandler) CreateTable(c echo.Context) error {
	var d seating.TableDraft
	if err := c.Bind(&d); err != nil {
		return badRequest(c, "invalid body")
	}
	t, err := h.Engine.Store().CreateTable(c.Request().Context(), d)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// UpdateTable applies a JSON merge patch to a table.
// PATCH /v1/admin/tables/:id
func (h *SeatingHandler) UpdateTable(c echo.Context) error {
	patch, err := io.ReadAll(io.LimitReader(c.Request().Body, 64<<10))
	if err != nil || len(patch) == 0 {
		return badRequest(c, "invalid body")
	}
	t, err := h.Engine.Store().UpdateTable(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// DeleteTable removes a table and its seats.  Guests seated there keep
// their table number and show up in the orphan report.
// DELETE /v1/admin/tables/:id
func (h *SeatingHandler) DeleteTable(c echo.Context) error {
	if _, err := h.Engine.Store().DeleteTable(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SeatMap returns every bucket keyed by table number.
// GET /v1/admin/seating
func (h *SeatingHandler) SeatMap(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Engine.Store().Seating())
}

// TableSeats returns one table's seats, empty seats included.
// GET /v1/admin/seating/:table
func (h *SeatingHandler) TableSeats(c echo.Context) error {
	n, err := strconv.Atoi(c.Param("table"))
	if err != nil || n < 1 {
		return badRequest(c, "invalid table number")
	}
	t, ok := h.Engine.Store().TableByNumber(n)
	if !ok {
		return writeError(c, seating.ErrTableNotFound)
	}
	bucket, ok := h.Engine.Store().Bucket(n)
	if !ok {
		bucket = seating.EmptyBucket(t.Capacity)
	}
	return c.JSON(http.StatusOK, echo.Map{"table": t, "seats": bucket})
}

type placeRequest struct {
	GuestID string `json:"guest_id"`
	TableID string `json:"table_id"`
}

// Place seats a guest bundle on a table picked by id.
// POST /v1/admin/seating/place
func (h *SeatingHandler) Place(c echo.Context) error {
	var req placeRequest
	if err := c.Bind(&req); err != nil || req.GuestID == "" || req.TableID == "" {
		return badRequest(c, "guest_id and table_id are required")
	}
	p, err := h.Engine.Place(c.Request().Context(), req.GuestID, req.TableID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

type dropRequest struct {
	GuestID string   `json:"guest_id"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
}

// Drop seats a guest on whichever table contains the canvas point.
// POST /v1/admin/seating/drop
func (h *SeatingHandler) Drop(c echo.Context) error {
	var req dropRequest
	if err := c.Bind(&req); err != nil || req.GuestID == "" || req.X == nil || req.Y == nil {
		return badRequest(c, "guest_id, x and y are required")
	}
	p, err := h.Engine.DropGuest(c.Request().Context(), req.GuestID, seating.Point{X: *req.X, Y: *req.Y})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func seatParams(c echo.Context) (table, seat int, ok bool) {
	table, err1 := strconv.Atoi(c.Param("table"))
	seat, err2 := strconv.Atoi(c.Param("seat"))
	return table, seat, err1 == nil && err2 == nil && table > 0 && seat > 0
}

// RemoveOccupant frees one seat.  Removing a primary unassigns the guest
// in the directory; companions are only cleared locally.
// DELETE /v1/admin/seating/:table/:seat
func (h *SeatingHandler) RemoveOccupant(c echo.Context) error {
	table, seat, ok := seatParams(c)
	if !ok {
		return badRequest(c, "invalid table or seat number")
	}
	removed, err := h.Engine.RemoveOccupant(c.Request().Context(), table, seat)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, removed)
}

type renameRequest struct {
	Name string `json:"name"`
}

// RenameCompanion changes a companion seat's display name.
// PATCH /v1/admin/seating/:table/:seat
func (h *SeatingHandler) RenameCompanion(c echo.Context) error {
	table, seat, ok := seatParams(c)
	if !ok {
		return badRequest(c, "invalid table or seat number")
	}
	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	renamed, err := h.Engine.RenameCompanion(c.Request().Context(), table, seat, req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, renamed)
}

// RemoveBundle unassigns a guest and clears every seat they own.
// DELETE /v1/admin/guests/:id/seats
func (h *SeatingHandler) RemoveBundle(c echo.Context) error {
	n, err := h.Engine.RemoveBundle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cleared": n})
}

// Orphans reports guests whose table assignment is not reflected in the
// layout.
// GET /v1/admin/orphans
func (h *SeatingHandler) Orphans(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"items": h.Engine.Orphans()})
}
