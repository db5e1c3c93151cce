package http

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// InventoryHandler maneja las peticiones HTTP de movimientos, kardex y stock (protegido).
type InventoryHandler struct {
	ledger    *inventory.RegisterMovementUseCase
	projector *inventory.StockProjector
	kardex    *inventory.KardexUseCase
	snapshot  *inventory.SnapshotUseCase
	renderers map[string]inventory.KardexRenderer
	report    inventory.ReportConfig
	log       zerolog.Logger
}

// NewInventoryHandler construye el handler. renderers se indexa por formato (pdf, xml).
func NewInventoryHandler(
	ledger *inventory.RegisterMovementUseCase,
	projector *inventory.StockProjector,
	kardex *inventory.KardexUseCase,
	snapshot *inventory.SnapshotUseCase,
	renderers map[string]inventory.KardexRenderer,
	report inventory.ReportConfig,
	log zerolog.Logger,
) *InventoryHandler {
	return &InventoryHandler{
		ledger:    ledger,
		projector: projector,
		kardex:    kardex,
		snapshot:  snapshot,
		renderers: renderers,
		report:    report,
		log:       log,
	}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, kind (entrada|salida|ajuste), quantity, unit_cost"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	mov, err := h.ledger.RecordMovement(c.UserContext(), inventory.MovementInput{
		ProductID: in.ProductID,
		Kind:      in.Kind,
		Quantity:  in.Quantity,
		UnitCost:  in.UnitCost,
		Reason:    in.Reason,
		Reference: in.Reference,
		Note:      in.Note,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// RegisterBatch godoc
// @Summary      Registrar varios movimientos en una sola transacción
// @Description  Todas las líneas se aplican o ninguna. Las líneas de servicios se omiten.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BatchMovementRequest  true  "Líneas del lote"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/batch [post]
func (h *InventoryHandler) RegisterBatch(c *fiber.Ctx) error {
	var in dto.BatchMovementRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	lines := make([]inventory.BatchLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, inventory.BatchLine{
			ProductID: l.ProductID,
			Kind:      l.Kind,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		})
	}
	movs, err := h.ledger.RecordBatch(c.UserContext(), inventory.BatchInput{
		Reason:    in.Reason,
		Reference: in.Reference,
		Note:      in.Note,
		Lines:     lines,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		out = append(out, toMovementResponse(m))
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListMovements godoc
// @Summary      Listar últimos movimientos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  int  false  "Filtrar por producto"
// @Param        limit       query  int  false  "Máximo 100"
// @Success      200   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	var productID *int64
	if raw := c.Query("product_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id inválido"})
		}
		productID = &id
	}
	movs, err := h.ledger.ListMovements(c.UserContext(), productID, c.QueryInt("limit", 0))
	if err != nil {
		return writeError(c, h.log, err)
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for i := range movs {
		out = append(out, toMovementResponse(&movs[i]))
	}
	return c.JSON(out)
}

// GetStock godoc
// @Summary      Stock actual de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	id, ok := productIDParam(c)
	if !ok {
		return badProductID(c)
	}
	qty, err := h.projector.CurrentQuantity(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.StockResponse{ProductID: id, Quantity: qty})
}

// GetKardex godoc
// @Summary      Kardex valorizado (costo promedio ponderado)
// @Description  from/to aceptan RFC3339 o YYYY-MM-DD (día completo en la zona del reporte).
// @Tags         inventory
// @Security     Bearer
// @Produce      json,application/pdf,application/xml
// @Param        id      path   int     true   "ID del producto"
// @Param        from    query  string  false  "Desde (inclusive)"
// @Param        to      query  string  false  "Hasta (inclusive)"
// @Param        format  query  string  false  "json (por defecto), pdf o xml"
// @Success      200  {object}  dto.KardexReportDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/kardex [get]
func (h *InventoryHandler) GetKardex(c *fiber.Ctx) error {
	id, ok := productIDParam(c)
	if !ok {
		return badProductID(c)
	}
	from, err := h.report.ParseBound(c.Query("from"), false)
	if err != nil {
		return writeError(c, h.log, err)
	}
	to, err := h.report.ParseBound(c.Query("to"), true)
	if err != nil {
		return writeError(c, h.log, err)
	}
	format := strings.ToLower(c.Query("format", "json"))
	var renderer inventory.KardexRenderer
	if format != "json" {
		renderer, ok = h.renderers[format]
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "formato no soportado: use json, pdf o xml"})
		}
	}

	report, err := h.kardex.ComputeKardex(c.UserContext(), id, from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if renderer == nil {
		return c.JSON(report)
	}
	body, err := renderer.Render(c.UserContext(), report)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, renderer.ContentType())
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="kardex-%d.%s"`, id, renderer.Extension()))
	return c.Send(body)
}

// Reconcile godoc
// @Summary      Reconciliar el stock de un producto contra el ledger
// @Description  Nunca corrige el stock; una diferencia responde 409 y queda registrada para auditoría.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del producto"
// @Success      200  {object}  dto.ReconciliationResultDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/reconcile [post]
func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	id, ok := productIDParam(c)
	if !ok {
		return badProductID(c)
	}
	res, err := h.projector.Reconcile(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(res)
}

// ReconcileAll godoc
// @Summary      Reconciliar todos los productos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ReconciliationSummaryDTO
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/reconcile [post]
func (h *InventoryHandler) ReconcileAll(c *fiber.Ctx) error {
	summary, err := h.projector.ReconcileAll(c.UserContext())
	if err != nil {
		if summary != nil && errors.Is(err, domain.ErrIntegrityMismatch) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Code:    "INTEGRITY_MISMATCH",
				Message: err.Error(),
				Details: summary,
			})
		}
		return writeError(c, h.log, err)
	}
	return c.JSON(summary)
}

// Snapshot godoc
// @Summary      Inventario valorizado (costo y venta)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.InventorySnapshotDTO
// @Router       /api/inventory/snapshot [get]
func (h *InventoryHandler) Snapshot(c *fiber.Ctx) error {
	snap, err := h.snapshot.BuildInventorySnapshot(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(snap)
}

// LowStock godoc
// @Summary      Productos por debajo del stock mínimo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.LowStockAlertDTO
// @Router       /api/inventory/alerts/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	alerts, err := h.projector.LowStock(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(alerts)
}

func productIDParam(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func badProductID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de producto inválido"})
}

func toMovementResponse(m *entity.InventoryMovement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:        m.ID,
		ProductID: m.ProductID,
		Kind:      string(m.Kind),
		Quantity:  m.Quantity,
		UnitCost:  m.UnitCost,
		Reason:    m.Reason,
		Reference: m.Reference,
		Note:      m.Note,
		BatchID:   m.BatchID,
		CreatedAt: m.CreatedAt,
	}
}
