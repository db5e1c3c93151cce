package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/application/dto"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/application/usecase"
	"github.com/jhoicas/kardex-api/internal/infrastructure/export"
	"github.com/jhoicas/kardex-api/internal/infrastructure/memory"
	"github.com/jhoicas/kardex-api/internal/infrastructure/metrics"
	"github.com/jhoicas/kardex-api/internal/infrastructure/pdf"
	apphttp "github.com/jhoicas/kardex-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/kardex-api/pkg/jwt"
)

type apiFixture struct {
	app   *fiber.App
	store *memory.Store
}

// newAPI arma la aplicación completa sobre el almacenamiento en memoria.
func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	log := zerolog.Nop()
	store := memory.NewStore()
	reg := prometheus.NewRegistry()
	m := metrics.NewInventory(reg)
	report := inventory.NewReportConfig(-5)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		ProductUC:        usecase.NewProductUseCase(store.Products(), nil, log),
		RegisterMovement: inventory.NewRegisterMovementUseCase(store, store.Movements(), nil, m, log),
		StockProjector:   inventory.NewStockProjector(store, store.Products(), store.Reports(), m, log, 2),
		Kardex:           inventory.NewKardexUseCase(store.Products(), store.Movements(), m, log, report),
		Snapshot:         inventory.NewSnapshotUseCase(store.Products(), nil, log, report),
		Renderers: map[string]inventory.KardexRenderer{
			"pdf": pdf.NewKardexPDFGenerator(),
			"xml": export.NewKardexXMLBuilder(),
		},
		Report:      report,
		Gatherer:    reg,
		ServiceName: "kardex-api-test",
		JWTSecret:   testJWTSecret,
		Log:         log,
	})
	return &apiFixture{app: app, store: store}
}

func (f *apiFixture) call(t *testing.T, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func (f *apiFixture) createProduct(t *testing.T, name string, isService bool) int64 {
	t.Helper()
	resp, body := f.call(t, http.MethodPost, "/api/products", pkgjwt.RoleBodeguero, fiber.Map{
		"name": name, "price": "15", "cost": "10", "is_service": isService,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p dto.ProductResponse
	require.NoError(t, json.Unmarshal(body, &p))
	return p.ID
}

func (f *apiFixture) move(t *testing.T, productID int64, kind, qty, cost string) (*http.Response, []byte) {
	t.Helper()
	payload := fiber.Map{"product_id": productID, "kind": kind, "quantity": qty}
	if cost != "" {
		payload["unit_cost"] = cost
	}
	return f.call(t, http.MethodPost, "/api/inventory/movements", pkgjwt.RoleBodeguero, payload)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func decodeError(t *testing.T, body []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

func TestHealth_SinToken(t *testing.T) {
	f := newAPI(t)
	resp, body := f.call(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "kardex-api-test")
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestProducts_VendedorNoPuedeCrear(t *testing.T) {
	f := newAPI(t)
	resp, _ := f.call(t, http.MethodPost, "/api/products", pkgjwt.RoleVendedor, fiber.Map{"name": "Tornillo"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestProducts_CrearSinNombre_Retorna400(t *testing.T) {
	f := newAPI(t)
	resp, body := f.call(t, http.MethodPost, "/api/products", pkgjwt.RoleAdmin, fiber.Map{"price": "1"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, body).Code)
}

func TestProducts_GetInexistente_Retorna404(t *testing.T) {
	f := newAPI(t)
	resp, _ := f.call(t, http.MethodGet, "/api/products/999", pkgjwt.RoleVendedor, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMovements_EntradaYSalida_ActualizaStock(t *testing.T) {
	f := newAPI(t)
	id := f.createProduct(t, "Cemento", false)

	resp, body := f.move(t, id, "entrada", "10", "5")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var mov dto.MovementResponse
	require.NoError(t, json.Unmarshal(body, &mov))
	assert.Equal(t, "entrada", mov.Kind)
	assert.Positive(t, mov.ID)

	resp, body = f.move(t, id, "SALIDA", "4", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodGet, "/api/inventory/products/"+itoa(id)+"/stock", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stock dto.StockResponse
	require.NoError(t, json.Unmarshal(body, &stock))
	assert.True(t, decimal.NewFromInt(6).Equal(stock.Quantity), "stock=%s", stock.Quantity)

	resp, body = f.call(t, http.MethodGet, "/api/inventory/movements?product_id="+itoa(id), pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []dto.MovementResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 2)
}

func TestMovements_SalidaSinStock_Retorna409(t *testing.T) {
	f := newAPI(t)
	id := f.createProduct(t, "Arena", false)
	f.move(t, id, "entrada", "3", "2")

	resp, body := f.move(t, id, "salida", "5", "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	e := decodeError(t, body)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)
	details, ok := e.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "3", details["available"])
	assert.Equal(t, "5", details["requested"])
}

func TestMovements_Errores(t *testing.T) {
	f := newAPI(t)
	id := f.createProduct(t, "Grava", false)
	svc := f.createProduct(t, "Transporte", true)

	tests := []struct {
		name       string
		productID  int64
		kind       string
		qty        string
		wantStatus int
		wantCode   string
	}{
		{"tipo inválido", id, "traslado", "1", http.StatusBadRequest, "INVALID_MOVEMENT_KIND"},
		{"cantidad cero", id, "entrada", "0", http.StatusBadRequest, "VALIDATION"},
		{"producto inexistente", 999, "entrada", "1", http.StatusNotFound, "NOT_FOUND"},
		{"servicio", svc, "entrada", "1", http.StatusUnprocessableEntity, "NOT_STOCKABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.move(t, tt.productID, tt.kind, tt.qty, "")
			assert.Equal(t, tt.wantStatus, resp.StatusCode, string(body))
			assert.Equal(t, tt.wantCode, decodeError(t, body).Code)
		})
	}
}

func TestMovements_Lote_TodoONada(t *testing.T) {
	f := newAPI(t)
	a := f.createProduct(t, "Ladrillo", false)
	b := f.createProduct(t, "Bloque", false)
	f.move(t, a, "entrada", "10", "1")

	resp, _ := f.call(t, http.MethodPost, "/api/inventory/movements/batch", pkgjwt.RoleBodeguero, fiber.Map{
		"reference": "OT-7",
		"lines": []fiber.Map{
			{"product_id": a, "kind": "salida", "quantity": "2"},
			{"product_id": b, "kind": "salida", "quantity": "1"},
		},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body := f.call(t, http.MethodGet, "/api/inventory/products/"+itoa(a)+"/stock", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stock dto.StockResponse
	require.NoError(t, json.Unmarshal(body, &stock))
	assert.True(t, decimal.NewFromInt(10).Equal(stock.Quantity), "el lote fallido no debe dejar cambios")

	resp, body = f.call(t, http.MethodPost, "/api/inventory/movements/batch", pkgjwt.RoleBodeguero, fiber.Map{"lines": []fiber.Map{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, body).Code)
}

func TestKardex_JSONYFormatos(t *testing.T) {
	f := newAPI(t)
	id := f.createProduct(t, "Pintura", false)
	f.move(t, id, "entrada", "10", "5")
	f.move(t, id, "entrada", "10", "7")
	f.move(t, id, "salida", "5", "")

	path := "/api/inventory/products/" + itoa(id) + "/kardex"
	resp, body := f.call(t, http.MethodGet, path, pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var report dto.KardexReportDTO
	require.NoError(t, json.Unmarshal(body, &report))
	require.Len(t, report.Entries, 3)
	assert.True(t, decimal.NewFromInt(15).Equal(report.Closing.Qty))
	assert.True(t, decimal.NewFromInt(6).Equal(report.Closing.UnitCost))
	assert.True(t, decimal.NewFromInt(90).Equal(report.Closing.Value))

	resp, body = f.call(t, http.MethodGet, path+"?format=xml", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "kardex-"+itoa(id)+".xml")
	assert.Contains(t, string(body), "<Kardex")

	resp, body = f.call(t, http.MethodGet, path+"?format=pdf", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))

	resp, _ = f.call(t, http.MethodGet, path+"?format=csv", pkgjwt.RoleVendedor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.call(t, http.MethodGet, path+"?from=2024-13-01", pkgjwt.RoleVendedor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.call(t, http.MethodGet, path+"?from=2025-02-01&to=2025-01-01", pkgjwt.RoleVendedor, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReconcile_SoloAdmin_YDetectaInconsistencia(t *testing.T) {
	f := newAPI(t)
	id := f.createProduct(t, "Varilla", false)
	f.move(t, id, "entrada", "8", "3")
	path := "/api/inventory/products/" + itoa(id) + "/reconcile"

	resp, _ := f.call(t, http.MethodPost, path, pkgjwt.RoleBodeguero, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := f.call(t, http.MethodPost, path, pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var res dto.ReconciliationResultDTO
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Consistent)

	// Se altera la proyección por fuera del ledger.
	require.NoError(t, f.store.Products().UpdateStock(context.Background(), id, decimal.NewFromInt(99)))

	resp, body = f.call(t, http.MethodPost, path, pkgjwt.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INTEGRITY_MISMATCH", decodeError(t, body).Code)

	resp, body = f.call(t, http.MethodPost, "/api/inventory/reconcile", pkgjwt.RoleAdmin, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INTEGRITY_MISMATCH", decodeError(t, body).Code)

	// Nunca se corrige automáticamente.
	resp, body = f.call(t, http.MethodGet, "/api/inventory/products/"+itoa(id)+"/stock", pkgjwt.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stock dto.StockResponse
	require.NoError(t, json.Unmarshal(body, &stock))
	assert.True(t, decimal.NewFromInt(99).Equal(stock.Quantity))
}

func TestSnapshotYAlertas(t *testing.T) {
	f := newAPI(t)
	id := f.createProduct(t, "Cable", false)
	f.move(t, id, "entrada", "2", "10")

	resp, body := f.call(t, http.MethodPut, "/api/products/"+itoa(id)+"/min-stock", pkgjwt.RoleAdmin, fiber.Map{"min_stock": "4"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = f.call(t, http.MethodGet, "/api/inventory/alerts/low-stock", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var alerts []dto.LowStockAlertDTO
	require.NoError(t, json.Unmarshal(body, &alerts))
	require.Len(t, alerts, 1)
	assert.True(t, decimal.NewFromInt(4).Equal(alerts[0].SuggestedQty), "1.5*4 - 2 = 4")

	resp, body = f.call(t, http.MethodGet, "/api/inventory/snapshot", pkgjwt.RoleVendedor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap dto.InventorySnapshotDTO
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.True(t, decimal.NewFromInt(20).Equal(snap.TotalCostValue), "2 x 10")
}

func TestMetrics_ExponeContadores(t *testing.T) {
	f := newAPI(t)
	id := f.createProduct(t, "Tubo", false)
	f.move(t, id, "entrada", "1", "1")
	f.move(t, id, "salida", "5", "")

	resp, body := f.call(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	text := string(body)
	assert.True(t, strings.Contains(text, `kardex_movements_recorded_total{kind="entrada"} 1`), text)
	assert.Contains(t, text, `kardex_movements_rejected_total{kind="salida",reason="insufficient_stock"} 1`)
}
