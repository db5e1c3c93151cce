package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
	"github.com/jhoicas/kardex-api/internal/infrastructure/cache"
	"github.com/jhoicas/kardex-api/internal/infrastructure/export"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/kardex-api/internal/infrastructure/pdf"
	"github.com/jhoicas/kardex-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/kardex-api/internal/interfaces/http"
	"github.com/jhoicas/kardex-api/pkg/config"
	"github.com/jhoicas/kardex-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner    inventory.TxRunner
		productRepo repository.ProductRepository
		movRepo     repository.InventoryMovementRepository
		reportRepo  repository.ReconciliationReportRepository
	)
	switch cfg.App.Storage {
	case config.StorageMemory:
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		txRunner, productRepo, movRepo, reportRepo = store, store.Products(), store.Movements(), store.Reports()
	default:
		if cfg.DB.AutoMigrate {
			migrator, err := postgres.NewMigrator(cfg.DB.ConnectionString(), log.Component("migrate"))
			if err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			if err := migrator.Up(); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
			if err := migrator.Close(); err != nil {
				log.Warn().Err(err).Msg("cerrar migrador")
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner = postgres.NewTxRunner(pool)
		productRepo = postgres.NewProductRepository(pool)
		movRepo = postgres.NewInventoryMovementRepository(pool)
		reportRepo = postgres.NewReconciliationRepository(pool)
	}

	// Caché de reportes: opcional, sin Redis se calcula en cada petición.
	var snapshotCache inventory.SnapshotCache
	if cfg.Redis.Enabled() {
		client, err := cache.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Msg("Redis no disponible, se continúa sin caché")
		} else {
			defer client.Close()
			snapshotCache = cache.NewRedisCache(client, cfg.Redis.TTL)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	invMetrics := metrics.NewInventory(registry)

	report := inventory.NewReportConfig(cfg.Report.UTCOffsetHours)
	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, movRepo, snapshotCache, invMetrics, log.Component("ledger"))
	projector := inventory.NewStockProjector(txRunner, productRepo, reportRepo, invMetrics, log.Component("reconcile"), cfg.Reconcile.Concurrency)
	kardexUC := inventory.NewKardexUseCase(productRepo, movRepo, invMetrics, log.Component("kardex"), report)
	snapshotUC := inventory.NewSnapshotUseCase(productRepo, snapshotCache, log.Component("snapshot"), report)
	productUC := usecase.NewProductUseCase(productRepo, snapshotCache, log.Component("products"))

	// Kardex exportable: PDF con maroto y XML con etree.
	pdfGenerator := infrapdf.NewKardexPDFGenerator()
	xmlBuilder := export.NewKardexXMLBuilder()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:        productUC,
		RegisterMovement: registerMovementUC,
		StockProjector:   projector,
		Kardex:           kardexUC,
		Snapshot:         snapshotUC,
		Renderers: map[string]inventory.KardexRenderer{
			pdfGenerator.Extension(): pdfGenerator,
			xmlBuilder.Extension():   xmlBuilder,
		},
		Report:      report,
		Gatherer:    registry,
		DocsPath:    cfg.App.DocsPath,
		ServiceName: cfg.App.Name,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log.Component("http"),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
