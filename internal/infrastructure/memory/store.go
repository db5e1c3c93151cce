package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// Store guarda productos y ledger en memoria. Run serializa las transacciones con un único
// mutex (equivale al bloqueo de fila, pero cubre todos los SKU: dos movimientos de productos
// distintos no avanzan en paralelo). Si fn devuelve error, Run deshace solo las filas que la
// transacción escribió. Se usa en desarrollo local (APP_STORAGE=memory) y en tests de handlers.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	prods    map[int64]entity.Product
	movs     []entity.InventoryMovement
	reps     []entity.ReconciliationReport
	nextProd int64
	nextMov  int64
}

// undoLog registra lo que escribe una transacción de Run. Las escrituras fuera de Run llegan
// con log nil y no se registran.
type undoLog struct {
	prods map[int64]*entity.Product // valor previo a la primera escritura; nil si se creó en la tx
	movs  map[int64]struct{}
}

// touchProduct guarda el valor original de id antes de su primera modificación. Requiere s.mu.
func (l *undoLog) touchProduct(s *Store, id int64) {
	if l == nil {
		return
	}
	if _, seen := l.prods[id]; seen {
		return
	}
	if p, ok := s.prods[id]; ok {
		l.prods[id] = &p
		return
	}
	l.prods[id] = nil
}

// rollback restaura productos y elimina movimientos escritos por la tx. Requiere s.mu.
func (l *undoLog) rollback(s *Store) {
	for id, orig := range l.prods {
		if orig == nil {
			delete(s.prods, id)
			continue
		}
		s.prods[id] = *orig
	}
	if len(l.movs) == 0 {
		return
	}
	kept := s.movs[:0]
	for _, m := range s.movs {
		if _, ok := l.movs[m.ID]; !ok {
			kept = append(kept, m)
		}
	}
	s.movs = kept
}

// ProductStore implementa repository.ProductRepository sobre Store.
type ProductStore struct {
	*Store
	log *undoLog
}

// MovementStore implementa repository.InventoryMovementRepository sobre Store.
type MovementStore struct {
	*Store
	log *undoLog
}

// ReportStore implementa repository.ReconciliationReportRepository sobre Store.
type ReportStore struct{ *Store }

var (
	_ inventory.TxRunner                        = (*Store)(nil)
	_ repository.ProductRepository              = ProductStore{}
	_ repository.InventoryMovementRepository    = MovementStore{}
	_ repository.ReconciliationReportRepository = ReportStore{}
)

// NewStore crea un almacenamiento vacío.
func NewStore() *Store {
	return &Store{prods: make(map[int64]entity.Product)}
}

func (s *Store) Products() ProductStore   { return ProductStore{Store: s} }
func (s *Store) Movements() MovementStore { return MovementStore{Store: s} }
func (s *Store) Reports() ReportStore     { return ReportStore{s} }

// Run implementa inventory.TxRunner. Los IDs de movimientos descartados no se reutilizan,
// igual que una secuencia de Postgres.
func (s *Store) Run(ctx context.Context, fn func(context.Context, repository.InventoryMovementRepository, repository.ProductRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	log := &undoLog{prods: make(map[int64]*entity.Product), movs: make(map[int64]struct{})}
	if err := fn(ctx, MovementStore{Store: s, log: log}, ProductStore{Store: s, log: log}); err != nil {
		s.mu.Lock()
		log.rollback(s)
		s.mu.Unlock()
		return err
	}
	return nil
}

// ── ProductRepository ──────────────────────────────────────────────────────────

func (r ProductStore) Create(ctx context.Context, p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextProd++
	p.ID = r.nextProd
	r.log.touchProduct(r.Store, p.ID)
	r.prods[p.ID] = *p
	return nil
}

func (r ProductStore) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prods[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r ProductStore) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r ProductStore) UpdateStock(ctx context.Context, id int64, qty decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prods[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.log.touchProduct(r.Store, id)
	p.StockQuantity = qty
	r.prods[id] = p
	return nil
}

func (r ProductStore) UpdateMinStock(ctx context.Context, id int64, minStock decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prods[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.log.touchProduct(r.Store, id)
	p.MinStock = minStock
	r.prods[id] = p
	return nil
}

func (r ProductStore) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	all, _ := r.ListAll(ctx)
	if offset >= len(all) {
		return []*entity.Product{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r ProductStore) ListAll(ctx context.Context) ([]*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Product, 0, len(r.prods))
	for _, p := range r.prods {
		if p.DeletedAt != nil {
			continue
		}
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r ProductStore) ListBelowMinimum(ctx context.Context) ([]*entity.Product, error) {
	all, _ := r.ListAll(ctx)
	out := make([]*entity.Product, 0)
	for _, p := range all {
		if !p.IsService && p.BelowMinimum() {
			out = append(out, p)
		}
	}
	return out, nil
}

// ── InventoryMovementRepository ────────────────────────────────────────────────

func (r MovementStore) Create(ctx context.Context, mov *entity.InventoryMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextMov++
	mov.ID = r.nextMov
	if r.log != nil {
		r.log.movs[mov.ID] = struct{}{}
	}
	r.movs = append(r.movs, *mov)
	return nil
}

func (r MovementStore) LastCreatedAt(ctx context.Context, productID int64) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last time.Time
	for _, m := range r.movs {
		if m.ProductID == productID && m.CreatedAt.After(last) {
			last = m.CreatedAt
		}
	}
	return last, nil
}

func (r MovementStore) ListByProduct(ctx context.Context, productID int64, from, to *time.Time) ([]entity.InventoryMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.InventoryMovement, 0)
	for _, m := range r.movs {
		if m.ProductID != productID {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r MovementStore) ListRecent(ctx context.Context, productID *int64, limit int) ([]entity.InventoryMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.InventoryMovement, 0)
	for i := len(r.movs) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.movs[i]
		if productID != nil && m.ProductID != *productID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// ── ReconciliationReportRepository ─────────────────────────────────────────────

func (r ReportStore) Create(ctx context.Context, rep *entity.ReconciliationReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep.ID = int64(len(r.reps) + 1)
	r.reps = append(r.reps, *rep)
	return nil
}
