package inventory_test

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

// memoryStore guarda el estado en memoria. Run serializa las transacciones (equivale al
// bloqueo de fila) y restaura el estado si fn devuelve error.
type memoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	prods    map[int64]entity.Product
	movs     []entity.InventoryMovement
	reps     []entity.ReconciliationReport
	nextProd int64
	nextMov  int64
}

type productStore struct{ *memoryStore }
type movementStore struct{ *memoryStore }
type reportStore struct{ *memoryStore }

var (
	_ repository.ProductRepository              = productStore{}
	_ repository.InventoryMovementRepository    = movementStore{}
	_ repository.ReconciliationReportRepository = reportStore{}
)

func newMemoryStore() *memoryStore {
	return &memoryStore{prods: make(map[int64]entity.Product)}
}

func (s *memoryStore) products() productStore   { return productStore{s} }
func (s *memoryStore) movements() movementStore { return movementStore{s} }
func (s *memoryStore) reports() reportStore     { return reportStore{s} }

func (s *memoryStore) Run(ctx context.Context, fn func(context.Context, repository.InventoryMovementRepository, repository.ProductRepository) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	savedProds := make(map[int64]entity.Product, len(s.prods))
	for k, v := range s.prods {
		savedProds[k] = v
	}
	savedMovs := len(s.movs)
	savedNext := s.nextMov
	s.mu.Unlock()

	if err := fn(ctx, s.movements(), s.products()); err != nil {
		s.mu.Lock()
		s.prods = savedProds
		s.movs = s.movs[:savedMovs]
		s.nextMov = savedNext
		s.mu.Unlock()
		return err
	}
	return nil
}

// addProduct inserta un producto de prueba y devuelve su ID.
func (s *memoryStore) addProduct(p entity.Product) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProd++
	p.ID = s.nextProd
	s.prods[p.ID] = p
	return p.ID
}

func (s *memoryStore) stock(id int64) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prods[id].StockQuantity
}

// forceStock altera la proyección por fuera del ledger.
func (s *memoryStore) forceStock(id int64, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.prods[id]
	p.StockQuantity = qty
	s.prods[id] = p
}

func (s *memoryStore) movementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movs)
}

func (s *memoryStore) reportCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reps)
}

// ── ProductRepository ──────────────────────────────────────────────────────────

func (r productStore) Create(ctx context.Context, p *entity.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextProd++
	p.ID = r.nextProd
	r.prods[p.ID] = *p
	return nil
}

func (r productStore) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prods[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r productStore) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r productStore) UpdateStock(ctx context.Context, id int64, qty decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.prods[id]
	p.StockQuantity = qty
	r.prods[id] = p
	return nil
}

func (r productStore) UpdateMinStock(ctx context.Context, id int64, min decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.prods[id]
	p.MinStock = min
	r.prods[id] = p
	return nil
}

func (r productStore) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
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

func (r productStore) ListAll(ctx context.Context) ([]*entity.Product, error) {
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

func (r productStore) ListBelowMinimum(ctx context.Context) ([]*entity.Product, error) {
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

func (r movementStore) Create(ctx context.Context, mov *entity.InventoryMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextMov++
	mov.ID = r.nextMov
	r.movs = append(r.movs, *mov)
	return nil
}

func (r movementStore) LastCreatedAt(ctx context.Context, productID int64) (time.Time, error) {
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

func (r movementStore) ListByProduct(ctx context.Context, productID int64, from, to *time.Time) ([]entity.InventoryMovement, error) {
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

func (r movementStore) ListRecent(ctx context.Context, productID *int64, limit int) ([]entity.InventoryMovement, error) {
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

func (r reportStore) Create(ctx context.Context, rep *entity.ReconciliationReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep.ID = int64(len(r.reps) + 1)
	r.reps = append(r.reps, *rep)
	return nil
}

// ── caché y métricas ───────────────────────────────────────────────────────────

type memoryCache struct {
	mu            sync.Mutex
	values        map[string]any
	invalidations int
	loads         int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{values: make(map[string]any)}
}

func (c *memoryCache) Fetch(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	c.mu.Lock()
	v, ok := c.values[key]
	c.mu.Unlock()
	if !ok {
		loaded, err := loader(ctx)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.values[key] = loaded
		c.loads++
		c.mu.Unlock()
		v = loaded
	}
	return copyInto(v, dest)
}

func (c *memoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = make(map[string]any)
	c.invalidations++
	return nil
}

func (c *memoryCache) invalidationCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidations
}

type countingMetrics struct {
	mu         sync.Mutex
	recorded   map[string]int
	rejected   map[string]int
	mismatches int
	replays    int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{recorded: map[string]int{}, rejected: map[string]int{}}
}

func (m *countingMetrics) MovementRecorded(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded[kind]++
}

func (m *countingMetrics) MovementRejected(kind, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[reason]++
}

func (m *countingMetrics) IntegrityMismatch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mismatches++
}

func (m *countingMetrics) ObserveReplay(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replays++
}

// copyInto serializa como lo haría una caché externa.
func copyInto(v, dest any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
