package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/wedding-seating/internal/export"
	"github.com/iliyamo/wedding-seating/internal/seating"
)

// maxImportBytes bounds an uploaded layout document.
const maxImportBytes = 8 << 20

// ExportHandler serves layout downloads, JSON import and snapshot
// publishing.  Uploader may be nil when no blob store is configured.
type ExportHandler struct {
	Store    *seating.Store
	Uploader *export.Uploader
	Now      func() time.Time
}

func NewExportHandler(store *seating.Store, uploader *export.Uploader) *ExportHandler {
	if store == nil {
		panic("nil store passed to NewExportHandler")
	}
	return &ExportHandler{Store: store, Uploader: uploader, Now: time.Now}
}

func (h *ExportHandler) snapshot() seating.Snapshot {
	return h.Store.Snapshot(h.Now())
}

func attachment(c echo.Context, name string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
}

// LayoutJSON downloads the full layout as a snapshot document.
// GET /v1/admin/export/layout.json
func (h *ExportHandler) LayoutJSON(c echo.Context) error {
	var buf bytes.Buffer
	if err := export.EncodeSnapshot(&buf, h.snapshot()); err != nil {
		return writeError(c, err)
	}
	attachment(c, "layout.json")
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, buf.Bytes())
}

// RosterCSV downloads one row per occupied seat.
// GET /v1/admin/export/roster.csv
func (h *ExportHandler) RosterCSV(c echo.Context) error {
	snap := h.snapshot()
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, snap.Tables, snap.Seating); err != nil {
		return writeError(c, err)
	}
	attachment(c, "roster.csv")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// RosterXLSX downloads the roster and table summary as a workbook.
// GET /v1/admin/export/roster.xlsx
func (h *ExportHandler) RosterXLSX(c echo.Context) error {
	snap := h.snapshot()
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, snap.Tables, snap.Seating); err != nil {
		return writeError(c, err)
	}
	attachment(c, "roster.xlsx")
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// PlanPNG downloads the rendered floor plan.
// GET /v1/admin/export/plan.png
func (h *ExportHandler) PlanPNG(c echo.Context) error {
	snap := h.snapshot()
	var buf bytes.Buffer
	if err := export.RenderPNG(&buf, snap.Tables, snap.Seating); err != nil {
		return writeError(c, err)
	}
	attachment(c, "plan.png")
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// ImportLayout replaces tables and seating with an uploaded snapshot.  An
// unreadable document is rejected and the current layout is kept.
// POST /v1/admin/import/layout
func (h *ExportHandler) ImportLayout(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxImportBytes+1))
	if err != nil {
		return badRequest(c, "invalid body")
	}
	if len(body) > maxImportBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": "layout too large"})
	}
	snap, err := export.DecodeSnapshot(bytes.NewReader(body))
	if err != nil {
		return badRequest(c, err.Error())
	}
	if err := h.Store.Restore(c.Request().Context(), snap); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": len(snap.Tables), "buckets": len(h.Store.Seating())})
}

// PublishSnapshot uploads the current layout and plan to the blob store.
// A stored layout without its plan image is reported with 207.
// POST /v1/admin/snapshots
func (h *ExportHandler) PublishSnapshot(c echo.Context) error {
	if h.Uploader == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "blob store not configured"})
	}
	up, err := h.Uploader.Upload(c.Request().Context(), h.snapshot())
	switch {
	case errors.Is(err, export.ErrPartialUpload):
		return c.JSON(http.StatusMultiStatus, echo.Map{"json_path": up.JSONPath, "error": err.Error()})
	case err != nil:
		return c.JSON(http.StatusBadGateway, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, up)
}
