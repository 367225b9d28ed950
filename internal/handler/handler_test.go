package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/wedding-seating/internal/blob"
	"github.com/iliyamo/wedding-seating/internal/export"
	"github.com/iliyamo/wedding-seating/internal/logger"
	"github.com/iliyamo/wedding-seating/internal/model"
	"github.com/iliyamo/wedding-seating/internal/repository"
	"github.com/iliyamo/wedding-seating/internal/seating"
)

type directory struct {
	mu      sync.Mutex
	guests  []model.Guest
	failSet error
}

func (d *directory) ListGuests(context.Context) ([]model.Guest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Guest{}, d.guests...), nil
}

func (d *directory) SetTableNumber(_ context.Context, id string, n *int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failSet != nil {
		return d.failSet
	}
	for i := range d.guests {
		if d.guests[i].ID == id {
			d.guests[i].TableNumber = n
			return nil
		}
	}
	return repository.ErrGuestNotFound
}

func named(id, name string, party int) model.Guest {
	return model.Guest{ID: id, Name: &name, PartySize: party}
}

type fixture struct {
	e      *echo.Echo
	dir    *directory
	engine *seating.Engine
	mem    *blob.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	n := 0
	store := seating.NewStore(seating.NewMemoryPersister(), logger.Nop(), seating.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}))
	dir := &directory{guests: []model.Guest{
		named("g-ana", "Ana", 3),
		named("g-luis", "Luis", 1),
		named("g-big", "Familia Grande", 9),
	}}
	engine := seating.NewEngine(store, dir, seating.WithLogger(logger.Nop()))
	require.NoError(t, engine.RefreshGuests(context.Background()))

	mem := blob.NewMemory()
	sh := NewSeatingHandler(engine)
	xh := NewExportHandler(store, export.NewUploader(mem, "layouts", nil, nil, logger.Nop()))
	xh.Now = func() time.Time { return time.UnixMilli(1757698200000) }

	e := echo.New()
	g := e.Group("/v1/admin")
	g.GET("/guests", sh.ListGuests)
	g.GET("/guests/unassigned", sh.UnassignedGuests)
	g.GET("/guests/by-table", sh.GuestsByTable)
	g.DELETE("/guests/:id/seats", sh.RemoveBundle)
	g.GET("/tables", sh.ListTables)
	g.GET("/tables/next-number", sh.NextTableNumber)
	g.POST("/tables", sh.CreateTable)
	g.PATCH("/tables/:id", sh.UpdateTable)
	g.DELETE("/tables/:id", sh.DeleteTable)
	g.GET("/seating", sh.SeatMap)
	g.GET("/seating/:table", sh.TableSeats)
	g.POST("/seating/place", sh.Place)
	g.POST("/seating/drop", sh.Drop)
	g.DELETE("/seating/:table/:seat", sh.RemoveOccupant)
	g.PATCH("/seating/:table/:seat", sh.RenameCompanion)
	g.GET("/orphans", sh.Orphans)
	g.GET("/export/layout.json", xh.LayoutJSON)
	g.GET("/export/roster.csv", xh.RosterCSV)
	g.GET("/export/plan.png", xh.PlanPNG)
	g.POST("/import/layout", xh.ImportLayout)
	g.POST("/snapshots", xh.PublishSnapshot)

	return &fixture{e: e, dir: dir, engine: engine, mem: mem}
}

func (f *fixture) call(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestTablesCRUD(t *testing.T) {
	f := newFixture(t)

	rec := f.call(http.MethodPost, "/v1/admin/tables", `{}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[seating.Table](t, rec)
	assert.Equal(t, seating.Table{ID: "t1", Number: 1, Name: "Mesa 1", Shape: seating.ShapeRound, Capacity: 8, X: 220, Y: 160}, first)

	rec = f.call(http.MethodGet, "/v1/admin/tables/next-number", "")
	assert.JSONEq(t, `{"number":2}`, rec.Body.String())

	rec = f.call(http.MethodPost, "/v1/admin/tables", `{"number":2,"type":"rect","seats":4}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.call(http.MethodPatch, "/v1/admin/tables/t2", `{"number":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.call(http.MethodPatch, "/v1/admin/tables/t2", `{"name":"Novios","seats":"6"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decode[seating.Table](t, rec).Capacity)

	rec = f.call(http.MethodPost, "/v1/admin/tables", `{"type":"hexagon"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, http.StatusNotFound, f.call(http.MethodDelete, "/v1/admin/tables/nope", "").Code)
	assert.Equal(t, http.StatusNoContent, f.call(http.MethodDelete, "/v1/admin/tables/t1", "").Code)

	rec = f.call(http.MethodGet, "/v1/admin/tables", "")
	list := decode[struct {
		Items []tableView `json:"items"`
	}](t, rec)
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Novios", list.Items[0].Name)
	assert.Equal(t, 0, list.Items[0].Assigned)
}

func TestPlaceAndRemove(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.call(http.MethodPost, "/v1/admin/tables", `{"number":5}`).Code)

	rec := f.call(http.MethodPost, "/v1/admin/seating/place", `{"guest_id":"g-ana","table_id":"t1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []int{1, 2, 3}, decode[seating.Placement](t, rec).Seats)

	rec = f.call(http.MethodPost, "/v1/admin/seating/place", `{"guest_id":"g-big","table_id":"t1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.call(http.MethodGet, "/v1/admin/tables", "")
	assert.Contains(t, rec.Body.String(), `"assigned":3`)

	rec = f.call(http.MethodGet, "/v1/admin/guests/unassigned?search=LU", "")
	assert.Contains(t, rec.Body.String(), `"g-luis"`)
	assert.NotContains(t, rec.Body.String(), `"g-ana"`)

	rec = f.call(http.MethodGet, "/v1/admin/guests/by-table", "")
	assert.Contains(t, rec.Body.String(), `"5":[`)

	rec = f.call(http.MethodPatch, "/v1/admin/seating/5/2", `{"name":"Pedro"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Pedro"`)
	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodPatch, "/v1/admin/seating/5/1", `{"name":"x"}`).Code)

	rec = f.call(http.MethodDelete, "/v1/admin/seating/5/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodDelete, "/v1/admin/seating/x/3", "").Code)
	assert.Equal(t, http.StatusNotFound, f.call(http.MethodDelete, "/v1/admin/seating/5/99", "").Code)

	rec = f.call(http.MethodDelete, "/v1/admin/guests/g-ana/seats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cleared":2}`, rec.Body.String())

	rec = f.call(http.MethodGet, "/v1/admin/seating/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "occupant")
}

func TestPlace_DirectoryFailure(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.call(http.MethodPost, "/v1/admin/tables", `{}`).Code)
	f.dir.failSet = errors.New("connection reset")

	rec := f.call(http.MethodPost, "/v1/admin/seating/place", `{"guest_id":"g-luis","table_id":"t1"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection reset")

	rec = f.call(http.MethodGet, "/v1/admin/seating", "")
	assert.NotContains(t, rec.Body.String(), "g-luis")
}

func TestPlace_BadRequests(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodPost, "/v1/admin/seating/place", `{"guest_id":"g-ana"}`).Code)
	assert.Equal(t, http.StatusNotFound, f.call(http.MethodPost, "/v1/admin/seating/place", `{"guest_id":"g-ana","table_id":"t9"}`).Code)
	assert.Equal(t, http.StatusNotFound, f.call(http.MethodPost, "/v1/admin/seating/place", `{"guest_id":"ghost","table_id":"t9"}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodPost, "/v1/admin/seating/drop", `{"guest_id":"g-ana","x":1}`).Code)
}

func TestDrop(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.call(http.MethodPost, "/v1/admin/tables", `{"x":300,"y":300}`).Code)

	assert.Equal(t, http.StatusNotFound, f.call(http.MethodPost, "/v1/admin/seating/drop", `{"guest_id":"g-luis","x":0,"y":0}`).Code)

	rec := f.call(http.MethodPost, "/v1/admin/seating/drop", `{"guest_id":"g-luis","x":320,"y":290}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[seating.Placement](t, rec).TableNumber)
}

func TestOrphansAfterDelete(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.call(http.MethodPost, "/v1/admin/tables", `{}`).Code)
	require.Equal(t, http.StatusOK, f.call(http.MethodPost, "/v1/admin/seating/place", `{"guest_id":"g-luis","table_id":"t1"}`).Code)
	require.Equal(t, http.StatusNoContent, f.call(http.MethodDelete, "/v1/admin/tables/t1", "").Code)

	rec := f.call(http.MethodGet, "/v1/admin/orphans", "")
	orphans := decode[struct {
		Items []seating.Orphan `json:"items"`
	}](t, rec)
	require.Len(t, orphans.Items, 1)
	assert.Equal(t, "g-luis", orphans.Items[0].GuestID)
	assert.Equal(t, seating.OrphanTableMissing, orphans.Items[0].Reason)
}

func TestExports(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.call(http.MethodPost, "/v1/admin/tables", `{}`).Code)
	require.Equal(t, http.StatusOK, f.call(http.MethodPost, "/v1/admin/seating/place", `{"guest_id":"g-luis","table_id":"t1"}`).Code)

	rec := f.call(http.MethodGet, "/v1/admin/export/roster.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "table,seat,kind,name,guest_id\n1,1,guest,Luis,g-luis\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "roster.csv")

	rec = f.call(http.MethodGet, "/v1/admin/export/plan.png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	rec = f.call(http.MethodGet, "/v1/admin/export/layout.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap, err := export.DecodeSnapshot(rec.Body)
	require.NoError(t, err)
	assert.Len(t, snap.Tables, 1)
	assert.Equal(t, 1, snap.Seating.Occupied(1))
}

func TestImportLayout(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusCreated, f.call(http.MethodPost, "/v1/admin/tables", `{}`).Code)

	rec := f.call(http.MethodPost, "/v1/admin/import/layout", `{"tables": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, f.engine.Store().Tables(), 1)

	doc := `{"version":1,"saved_at":"2026-09-12T17:30:00Z","tables":[
		{"id":"a","number":3,"name":"Mesa 3","type":"round","seats":2,"x":100,"y":100,"rotation":0},
		{"id":"b","number":4,"name":"Mesa 4","type":"rect","seats":2,"x":400,"y":100,"rotation":0}],
		"seating":{"3":[{"seatNo":1,"occupant":{"kind":"guest","guestId":"g-luis","name":"Luis"}},{"seatNo":2},{"seatNo":3},{"seatNo":4}],
		"9":[{"seatNo":1}]}}`
	rec = f.call(http.MethodPost, "/v1/admin/import/layout", doc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"tables":2,"buckets":1}`, rec.Body.String())

	tables := f.engine.Store().Tables()
	require.Len(t, tables, 2)
	assert.Equal(t, "a", tables[0].ID)
	assert.Equal(t, 1, f.engine.CountAssigned(3))
	bucket, _ := f.engine.Store().Bucket(3)
	assert.Len(t, bucket, 2)
}

type failingBlob struct {
	blob.Store
	suffix string
}

func (s failingBlob) Put(ctx context.Context, path, contentType string, r io.Reader, size int64) error {
	if strings.HasSuffix(path, s.suffix) {
		return errors.New("bucket unavailable")
	}
	return s.Store.Put(ctx, path, contentType, r, size)
}

func TestPublishSnapshot(t *testing.T) {
	f := newFixture(t)

	rec := f.call(http.MethodPost, "/v1/admin/snapshots", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"json_path":"layouts/1757698200000_layout.json","png_path":"layouts/1757698200000_layout.png"}`, rec.Body.String())
	assert.Len(t, f.mem.Paths(), 2)

	store := f.engine.Store()
	xh := NewExportHandler(store, export.NewUploader(failingBlob{Store: blob.NewMemory(), suffix: ".png"}, "", nil, nil, logger.Nop()))
	e := echo.New()
	e.POST("/snap", xh.PublishSnapshot)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/snap", nil))
	assert.Equal(t, http.StatusMultiStatus, rec.Code)
	assert.Contains(t, rec.Body.String(), "_layout.json")

	xh = NewExportHandler(store, export.NewUploader(failingBlob{Store: blob.NewMemory(), suffix: ".json"}, "", nil, nil, logger.Nop()))
	e = echo.New()
	e.POST("/snap", xh.PublishSnapshot)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/snap", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	xh = NewExportHandler(store, nil)
	e = echo.New()
	e.POST("/snap", xh.PublishSnapshot)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/snap", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	e.GET("/healthz", Health)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
