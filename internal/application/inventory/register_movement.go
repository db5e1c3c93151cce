package inventory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

const defaultRecentLimit = 100

// RegisterMovementUseCase es el ledger: registra movimientos de forma transaccional con
// bloqueo de fila (SELECT FOR UPDATE) sobre el producto y Commit/Rollback.
type RegisterMovementUseCase struct {
	txRunner TxRunner
	movRepo  repository.InventoryMovementRepository
	cache    SnapshotCache
	metrics  Metrics
	log      zerolog.Logger
	now      func() time.Time
}

// NewRegisterMovementUseCase construye el caso de uso. cache y metrics pueden ser nil.
func NewRegisterMovementUseCase(
	txRunner TxRunner,
	movRepo repository.InventoryMovementRepository,
	cache SnapshotCache,
	metrics Metrics,
	log zerolog.Logger,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner: txRunner,
		movRepo:  movRepo,
		cache:    cache,
		metrics:  metricsOrNoop(metrics),
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock reemplaza el reloj usado para created_at.
func (uc *RegisterMovementUseCase) SetClock(now func() time.Time) {
	uc.now = now
}

// MovementInput entrada para registrar un movimiento.
// Quantity es magnitud positiva en entrada/salida y delta con signo en ajuste.
// UnitCost es opcional; sin valor se registra 0.
type MovementInput struct {
	ProductID int64
	Kind      string
	Quantity  decimal.Decimal
	UnitCost  *decimal.Decimal
	Reason    string
	Reference string
	Note      string
}

// BatchInput varias líneas que se registran en una sola transacción con el mismo BatchID.
type BatchInput struct {
	Reason    string
	Reference string
	Note      string
	Lines     []BatchLine
}

// BatchLine una línea del lote.
type BatchLine struct {
	ProductID int64
	Kind      string
	Quantity  decimal.Decimal
	UnitCost  *decimal.Decimal
}

type validLine struct {
	productID int64
	kind      entity.MovementKind
	quantity  decimal.Decimal
	unitCost  decimal.Decimal
}

func validate(productID int64, rawKind string, quantity decimal.Decimal, unitCost *decimal.Decimal) (validLine, error) {
	kind, ok := entity.ParseMovementKind(rawKind)
	if !ok {
		return validLine{}, domain.ErrInvalidMovementKind
	}
	if productID <= 0 || quantity.IsZero() || !entity.FitsStorage(quantity) {
		return validLine{}, domain.ErrInvalidInput
	}
	if kind != entity.MovementKindAdjustment && quantity.IsNegative() {
		return validLine{}, domain.ErrInvalidInput
	}
	cost := decimal.Zero
	if unitCost != nil {
		if unitCost.IsNegative() || !entity.FitsStorage(*unitCost) {
			return validLine{}, domain.ErrInvalidInput
		}
		cost = *unitCost
	}
	return validLine{productID: productID, kind: kind, quantity: quantity, unitCost: cost}, nil
}

// RecordMovement valida, bloquea el producto, verifica que el stock no quede negativo,
// inserta el movimiento y actualiza la proyección de stock en la misma transacción.
// Ante cualquier error no queda nada escrito.
func (uc *RegisterMovementUseCase) RecordMovement(ctx context.Context, input MovementInput) (*entity.InventoryMovement, error) {
	line, err := validate(input.ProductID, input.Kind, input.Quantity, input.UnitCost)
	if err != nil {
		uc.reject(input.Kind, err)
		return nil, err
	}

	var recorded *entity.InventoryMovement
	err = uc.txRunner.Run(ctx, func(
		ctx context.Context,
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		product, err := lockProduct(ctx, productRepo, line.productID)
		if err != nil {
			return err
		}
		if product.IsService {
			return domain.ErrNotStockable
		}
		mov := &entity.InventoryMovement{
			ProductID: line.productID,
			Kind:      line.kind,
			Quantity:  line.quantity,
			UnitCost:  line.unitCost,
			Reason:    input.Reason,
			Reference: input.Reference,
			Note:      input.Note,
		}
		if err := uc.apply(ctx, movRepo, productRepo, product, mov); err != nil {
			return err
		}
		recorded = mov
		return nil
	})
	if err != nil {
		uc.reject(string(line.kind), err)
		return nil, err
	}

	uc.metrics.MovementRecorded(string(recorded.Kind))
	uc.afterCommit(ctx)
	uc.log.Info().
		Int64("movement_id", recorded.ID).
		Int64("product_id", recorded.ProductID).
		Str("kind", string(recorded.Kind)).
		Str("quantity", recorded.Quantity.String()).
		Msg("movimiento registrado")
	return recorded, nil
}

// RecordBatch registra todas las líneas en una transacción. Los productos se bloquean en orden
// ascendente de ID para evitar interbloqueos entre lotes concurrentes. Las líneas de servicios
// se omiten. Si una línea falla no se registra ninguna.
func (uc *RegisterMovementUseCase) RecordBatch(ctx context.Context, input BatchInput) ([]*entity.InventoryMovement, error) {
	if len(input.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	lines := make([]validLine, 0, len(input.Lines))
	for _, l := range input.Lines {
		v, err := validate(l.ProductID, l.Kind, l.Quantity, l.UnitCost)
		if err != nil {
			uc.reject(l.Kind, err)
			return nil, err
		}
		lines = append(lines, v)
	}

	ids := make([]int64, 0, len(lines))
	seen := make(map[int64]bool, len(lines))
	for _, l := range lines {
		if !seen[l.productID] {
			seen[l.productID] = true
			ids = append(ids, l.productID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	batchID := uuid.New().String()
	var recorded []*entity.InventoryMovement
	err := uc.txRunner.Run(ctx, func(
		ctx context.Context,
		movRepo repository.InventoryMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		recorded = recorded[:0]
		products := make(map[int64]*entity.Product, len(ids))
		for _, id := range ids {
			p, err := lockProduct(ctx, productRepo, id)
			if err != nil {
				return err
			}
			products[id] = p
		}
		for _, l := range lines {
			product := products[l.productID]
			if product.IsService {
				continue
			}
			mov := &entity.InventoryMovement{
				ProductID: l.productID,
				Kind:      l.kind,
				Quantity:  l.quantity,
				UnitCost:  l.unitCost,
				Reason:    input.Reason,
				Reference: input.Reference,
				Note:      input.Note,
				BatchID:   batchID,
			}
			if err := uc.apply(ctx, movRepo, productRepo, product, mov); err != nil {
				return err
			}
			recorded = append(recorded, mov)
		}
		return nil
	})
	if err != nil {
		uc.reject("lote", err)
		return nil, err
	}

	for _, m := range recorded {
		uc.metrics.MovementRecorded(string(m.Kind))
	}
	if len(recorded) > 0 {
		uc.afterCommit(ctx)
	}
	uc.log.Info().
		Str("batch_id", batchID).
		Int("lines", len(input.Lines)).
		Int("recorded", len(recorded)).
		Msg("lote de movimientos registrado")
	return recorded, nil
}

// ListMovements devuelve los movimientos más recientes primero; productID nil lista todos.
func (uc *RegisterMovementUseCase) ListMovements(ctx context.Context, productID *int64, limit int) ([]entity.InventoryMovement, error) {
	if limit <= 0 || limit > defaultRecentLimit {
		limit = defaultRecentLimit
	}
	return uc.movRepo.ListRecent(ctx, productID, limit)
}

// lockProduct bloquea la fila del producto. Eliminado cuenta como inexistente.
func lockProduct(ctx context.Context, productRepo repository.ProductRepository, id int64) (*entity.Product, error) {
	product, err := productRepo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.DeletedAt != nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

// apply asume la fila del producto bloqueada. Sella created_at después del bloqueo y nunca
// antes del último movimiento del producto, así el orden (created_at, id) coincide con el
// orden de commit.
func (uc *RegisterMovementUseCase) apply(
	ctx context.Context,
	movRepo repository.InventoryMovementRepository,
	productRepo repository.ProductRepository,
	product *entity.Product,
	mov *entity.InventoryMovement,
) error {
	delta := mov.Delta()
	newQty := product.StockQuantity.Add(delta)
	if newQty.IsNegative() {
		return &domain.InsufficientStockError{
			ProductID: product.ID,
			Available: product.StockQuantity,
			Requested: delta.Abs(),
		}
	}

	last, err := movRepo.LastCreatedAt(ctx, product.ID)
	if err != nil {
		return err
	}
	createdAt := uc.now().Truncate(time.Microsecond)
	if createdAt.Before(last) {
		createdAt = last
	}
	mov.CreatedAt = createdAt

	if err := movRepo.Create(ctx, mov); err != nil {
		return err
	}
	if err := productRepo.UpdateStock(ctx, product.ID, newQty); err != nil {
		return err
	}
	product.StockQuantity = newQty
	return nil
}

func (uc *RegisterMovementUseCase) afterCommit(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.log.Warn().Err(err).Msg("no se pudo invalidar la caché de inventario")
	}
}

func (uc *RegisterMovementUseCase) reject(kind string, err error) {
	if k, ok := entity.ParseMovementKind(kind); ok {
		kind = string(k)
	} else if kind != "lote" {
		kind = "desconocido"
	}
	reason := "internal"
	switch {
	case errors.Is(err, domain.ErrInvalidMovementKind):
		reason = "invalid_kind"
	case errors.Is(err, domain.ErrInvalidInput):
		reason = "invalid_input"
	case errors.Is(err, domain.ErrNotFound):
		reason = "not_found"
	case errors.Is(err, domain.ErrNotStockable):
		reason = "not_stockable"
	case errors.Is(err, domain.ErrInsufficientStock):
		reason = "insufficient_stock"
	}
	uc.metrics.MovementRejected(kind, reason)
	if reason == "internal" {
		uc.log.Error().Err(err).Str("kind", kind).Msg("error registrando movimiento")
		return
	}
	uc.log.Debug().Err(err).Str("kind", kind).Str("reason", reason).Msg("movimiento rechazado")
}
