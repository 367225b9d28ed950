package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"time"

	"github.com/iliyamo/wedding-seating/internal/blob"
	"github.com/iliyamo/wedding-seating/internal/metrics"
	"github.com/iliyamo/wedding-seating/internal/queue"
	"github.com/iliyamo/wedding-seating/internal/seating"
)

// ErrPartialUpload means the JSON layout was stored but the PNG was not.
var ErrPartialUpload = errors.New("layout saved without plan image")

// Upload is where a snapshot ended up.  PNGPath is empty on a partial save.
type Upload struct {
	JSONPath string `json:"json_path"`
	PNGPath  string `json:"png_path,omitempty"`
}

// Uploader publishes layout snapshots to a blob store as
// <prefix>/<unix-ms>_layout.json and <prefix>/<unix-ms>_layout.png.
type Uploader struct {
	store   blob.Store
	prefix  string
	events  seating.EventPublisher
	metrics *metrics.Seating
	logger  *slog.Logger
}

func NewUploader(store blob.Store, prefix string, events seating.EventPublisher, m *metrics.Seating, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = "layouts"
	}
	return &Uploader{store: store, prefix: prefix, events: events, metrics: m, logger: logger}
}

// Upload stores the JSON snapshot and then the rendered plan.  A JSON
// failure aborts; a PNG failure returns the stored JSON path together
// with ErrPartialUpload.
func (u *Uploader) Upload(ctx context.Context, snap seating.Snapshot) (Upload, error) {
	stamp := strconv.FormatInt(snap.SavedAt.UnixMilli(), 10)
	jsonPath := path.Join(u.prefix, stamp+"_layout.json")
	pngPath := path.Join(u.prefix, stamp+"_layout.png")

	var doc bytes.Buffer
	if err := EncodeSnapshot(&doc, snap); err != nil {
		u.metrics.Snapshot(metrics.ResultStorage)
		return Upload{}, fmt.Errorf("encode layout: %w", err)
	}
	if err := u.store.Put(ctx, jsonPath, "application/json", &doc, int64(doc.Len())); err != nil {
		u.metrics.Snapshot(metrics.ResultStorage)
		u.logger.Error("layout upload failed", "path", jsonPath, "error", err)
		return Upload{}, fmt.Errorf("upload %s: %w", jsonPath, err)
	}
	out := Upload{JSONPath: jsonPath}

	var img bytes.Buffer
	err := RenderPNG(&img, snap.Tables, snap.Seating)
	if err == nil {
		err = u.store.Put(ctx, pngPath, "image/png", &img, int64(img.Len()))
	}
	if err != nil {
		u.metrics.Snapshot(metrics.ResultPartial)
		u.logger.Warn("layout saved, plan image failed", "json_path", jsonPath, "error", err)
		return out, fmt.Errorf("%w: %w", ErrPartialUpload, err)
	}
	out.PNGPath = pngPath

	u.metrics.Snapshot(metrics.ResultOK)
	u.logger.Info("layout published", "json_path", jsonPath, "png_path", pngPath)
	if u.events != nil {
		ev := queue.SeatingEvent{Type: queue.EventSnapshotPublished, Path: jsonPath, OccurredAt: snap.SavedAt.UTC().Format(time.RFC3339)}
		if err := u.events.PublishSeating(ctx, ev); err != nil {
			u.logger.Warn("seating event not published", "type", ev.Type, "error", err)
		}
	}
	return out, nil
}
