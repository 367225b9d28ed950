// Package metrics exposes Prometheus counters for the seating service.
// A nil *Seating is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Seating groups the counters touched by the placement engine and the
// snapshot uploader.
type Seating struct {
	placements *prometheus.CounterVec
	removals   *prometheus.CounterVec
	snapshots  *prometheus.CounterVec
}

// NewSeating registers the seating counters on reg.
func NewSeating(reg prometheus.Registerer) *Seating {
	m := &Seating{
		placements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wedding",
			Subsystem: "seating",
			Name:      "placements_total",
			Help:      "Guest bundle placements by result.",
		}, []string{"result"}),
		removals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wedding",
			Subsystem: "seating",
			Name:      "removals_total",
			Help:      "Seat occupants removed, by occupant kind.",
		}, []string{"kind"}),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wedding",
			Subsystem: "seating",
			Name:      "snapshots_total",
			Help:      "Layout snapshot uploads by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.placements, m.removals, m.snapshots)
	return m
}

// Placement results.
const (
	ResultOK           = "ok"
	ResultInsufficient = "insufficient_seats"
	ResultDirectory    = "directory_error"
	ResultStorage      = "storage_error"
	ResultPartial      = "partial"
	ResultConflict     = "layout_changed"
)

func (m *Seating) Placement(result string) {
	if m == nil {
		return
	}
	m.placements.WithLabelValues(result).Inc()
}

func (m *Seating) Removal(kind string) {
	if m == nil {
		return
	}
	m.removals.WithLabelValues(kind).Inc()
}

func (m *Seating) Snapshot(result string) {
	if m == nil {
		return
	}
	m.snapshots.WithLabelValues(result).Inc()
}
