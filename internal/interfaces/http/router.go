package http

import (
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC        *usecase.ProductUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	StockProjector   *inventory.StockProjector
	Kardex           *inventory.KardexUseCase
	Snapshot         *inventory.SnapshotUseCase
	Renderers        map[string]inventory.KardexRenderer
	Report           inventory.ReportConfig
	Gatherer         prometheus.Gatherer // nil = sin /metrics
	DocsPath         string              // swagger.json; vacío o inexistente = sin /docs
	ServiceName      string
	JWTSecret        string
	Log              zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestLogger(deps.Log))

	// Swagger UI en local: http://localhost:<port>/docs
	if deps.DocsPath != "" {
		if _, err := os.Stat(deps.DocsPath); err == nil {
			app.Use(swagger.New(swagger.Config{
				BasePath: "/",
				FilePath: deps.DocsPath,
				Path:     "docs",
				Title:    "Kardex API",
			}))
		}
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	canWrite := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, deps.Log)
	products.Post("/", canWrite, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id/min-stock", canWrite, productHandler.SetMinStock)

	// Inventory: ledger, kardex, reconciliación
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(
		deps.RegisterMovement, deps.StockProjector, deps.Kardex, deps.Snapshot,
		deps.Renderers, deps.Report, deps.Log,
	)
	invGroup.Post("/movements", canWrite, inventoryHandler.RegisterMovement)
	invGroup.Post("/movements/batch", canWrite, inventoryHandler.RegisterBatch)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/products/:id/stock", inventoryHandler.GetStock)
	invGroup.Get("/products/:id/kardex", inventoryHandler.GetKardex)
	invGroup.Post("/products/:id/reconcile", adminOnly, inventoryHandler.Reconcile)
	invGroup.Post("/reconcile", adminOnly, inventoryHandler.ReconcileAll)
	invGroup.Get("/snapshot", inventoryHandler.Snapshot)
	invGroup.Get("/alerts/low-stock", inventoryHandler.LowStock)
}
