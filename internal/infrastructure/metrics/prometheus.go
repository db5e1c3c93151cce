package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
)

var _ inventory.Metrics = (*Inventory)(nil)

// Inventory colectores Prometheus del motor de inventario.
type Inventory struct {
	recorded   *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	mismatches prometheus.Counter
	replay     prometheus.Histogram
}

// NewInventory registra los colectores. Con registerer nil se usa el registro por defecto.
func NewInventory(registerer prometheus.Registerer) *Inventory {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Inventory{
		recorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kardex",
			Name:      "movements_recorded_total",
			Help:      "Movimientos de inventario confirmados por tipo.",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kardex",
			Name:      "movements_rejected_total",
			Help:      "Movimientos rechazados por tipo y motivo.",
		}, []string{"kind", "reason"}),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kardex",
			Name:      "integrity_mismatches_total",
			Help:      "Inconsistencias entre la proyección de stock y el ledger.",
		}),
		replay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kardex",
			Name:      "replay_duration_seconds",
			Help:      "Duración de la reconstrucción del kardex.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	registerer.MustRegister(m.recorded, m.rejected, m.mismatches, m.replay)
	return m
}

func (m *Inventory) MovementRecorded(kind string) {
	m.recorded.WithLabelValues(kind).Inc()
}

func (m *Inventory) MovementRejected(kind, reason string) {
	m.rejected.WithLabelValues(kind, reason).Inc()
}

func (m *Inventory) IntegrityMismatch() {
	m.mismatches.Inc()
}

func (m *Inventory) ObserveReplay(d time.Duration) {
	m.replay.Observe(d.Seconds())
}
