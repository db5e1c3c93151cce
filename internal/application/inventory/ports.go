package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el motor de inventario: el movimiento y la proyección de stock
// se confirman juntos o ninguno.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ctx context.Context,
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
	) error) error
}

// SnapshotCache guarda reportes derivados del ledger. Invalidate se llama después de cada commit.
type SnapshotCache interface {
	// Fetch devuelve el valor cacheado en dest o ejecuta loader y lo guarda.
	Fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Invalidate(ctx context.Context) error
}

// Metrics registra contadores del motor de inventario.
type Metrics interface {
	MovementRecorded(kind string)
	MovementRejected(kind, reason string)
	IntegrityMismatch()
	ObserveReplay(d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) MovementRecorded(string)         {}
func (noopMetrics) MovementRejected(string, string) {}
func (noopMetrics) IntegrityMismatch()              {}
func (noopMetrics) ObserveReplay(time.Duration)     {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

// KardexRenderer exporta un kardex a un formato de archivo (pdf, xml).
type KardexRenderer interface {
	Render(ctx context.Context, report *dto.KardexReportDTO) ([]byte, error)
	ContentType() string
	Extension() string
}
