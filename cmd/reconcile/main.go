// Comando reconcile compara el stock cacheado de cada producto con la reconstrucción desde el
// ledger. Termina con código 1 si encuentra alguna inconsistencia; nunca corrige datos.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/infrastructure/postgres"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name + "-reconcile",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("conexión a PostgreSQL")
		return 2
	}
	defer pool.Close()

	projector := inventory.NewStockProjector(
		postgres.NewTxRunner(pool),
		postgres.NewProductRepository(pool),
		postgres.NewReconciliationRepository(pool),
		nil,
		log.Component("reconcile"),
		cfg.Reconcile.Concurrency,
	)

	summary, err := projector.ReconcileAll(ctx)
	switch {
	case errors.Is(err, domain.ErrIntegrityMismatch):
		for _, m := range summary.Mismatches {
			log.Error().
				Str("correlation_id", summary.CorrelationID).
				Int64("product_id", m.ProductID).
				Str("cached_qty", m.CachedQty.String()).
				Str("replayed_qty", m.ReplayedQty.String()).
				Msg("producto inconsistente")
		}
		return 1
	case err != nil:
		log.Error().Err(err).Msg("reconciliación interrumpida")
		return 2
	}
	log.Info().
		Str("correlation_id", summary.CorrelationID).
		Int("checked", summary.Checked).
		Msg("inventario consistente")
	return 0
}
