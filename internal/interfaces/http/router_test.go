package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/application/usecase"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/ws"
	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore(time.Second)
	ledger := inventory.NewLedger(
		memory.NewTxRunner(store), store.Products(), store.Movements(),
		nil, zerolog.Nop(),
		inventory.LedgerConfig{LockRetries: 1, RetryBackoff: time.Millisecond},
	)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:    ledger,
		ProductUC: usecase.NewProductUseCase(store.Products()),
		Hub:       ws.NewHub(zerolog.Nop()),
		JWTSecret: testJWTSecret,
		AppName:   "stock-ledger-test",
		Log:       zerolog.Nop(),
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role string, body any) (*http.Response, []byte) {
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
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func createProduct(t *testing.T, app *fiber.App, sku string, qty int64) dto.ProductResponse {
	t.Helper()
	resp, body := call(t, app, http.MethodPost, "/api/products", "manager", dto.CreateProductRequest{
		SKU: sku, Name: "Producto " + sku, InitialQuantity: qty, MinStockLevel: 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	return decode[dto.ProductResponse](t, body)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestRouter_Health(t *testing.T) {
	app := newAPI(t)
	resp, body := call(t, app, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "stock-ledger-test")
}

func TestRouter_FlujoSalidaAprobada(t *testing.T) {
	app := newAPI(t)
	product := createProduct(t, app, "TOR-001", 10)

	// staff registra la salida: queda pending y el stock no cambia
	resp, body := call(t, app, http.MethodPost, "/api/inventory/movements", "staff", dto.SubmitMovementRequest{
		Type: "out", ProductID: product.ID, Magnitude: 4, Reason: "venta mostrador",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	mov := decode[dto.MovementResponse](t, body)
	assert.Equal(t, "pending", mov.Status)
	assert.Nil(t, mov.NewQuantity)

	_, body = call(t, app, http.MethodGet, "/api/products/"+product.ID, "staff", nil)
	assert.Equal(t, int64(10), decode[dto.ProductResponse](t, body).StockQuantity)

	// staff no puede aprobar
	resp, body = call(t, app, http.MethodPost, "/api/inventory/movements/"+mov.ID+"/approve", "staff", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, string(body), "PERMISSION_DENIED")

	// manager aprueba
	resp, body = call(t, app, http.MethodPost, "/api/inventory/movements/"+mov.ID+"/approve", "manager", dto.ApproveMovementRequest{Note: "ok"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	approved := decode[dto.MovementResponse](t, body)
	assert.Equal(t, "approved", approved.Status)
	require.NotNil(t, approved.PreviousQuantity)
	require.NotNil(t, approved.NewQuantity)
	assert.Equal(t, int64(10), *approved.PreviousQuantity)
	assert.Equal(t, int64(6), *approved.NewQuantity)

	// segunda decisión sobre un terminal
	resp, body = call(t, app, http.MethodPost, "/api/inventory/movements/"+mov.ID+"/reject", "manager", dto.RejectMovementRequest{Reason: "tarde"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "INVALID_STATE")

	// conciliación: solo admin tiene audit.read
	resp, _ = call(t, app, http.MethodGet, "/api/inventory/products/"+product.ID+"/reconciliation", "manager", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, body = call(t, app, http.MethodGet, "/api/inventory/products/"+product.ID+"/reconciliation", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	rec := decode[dto.ReconciliationResponse](t, body)
	assert.True(t, rec.Consistent)
	assert.Equal(t, int64(6), rec.ActualQuantity)
	assert.Equal(t, 1, rec.ApprovedMovements)
}

func TestRouter_StockInsuficienteQuedaPending(t *testing.T) {
	app := newAPI(t)
	product := createProduct(t, app, "TOR-002", 3)

	_, body := call(t, app, http.MethodPost, "/api/inventory/movements", "staff", dto.SubmitMovementRequest{
		Type: "out", ProductID: product.ID, Magnitude: 5, Reason: "pedido grande",
	})
	mov := decode[dto.MovementResponse](t, body)

	resp, body := call(t, app, http.MethodPost, "/api/inventory/movements/"+mov.ID+"/approve", "manager", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "INSUFFICIENT_STOCK")

	_, body = call(t, app, http.MethodGet, "/api/inventory/movements/"+mov.ID, "staff", nil)
	assert.Equal(t, "pending", decode[dto.MovementResponse](t, body).Status)
}

func TestRouter_SubmitErrores(t *testing.T) {
	app := newAPI(t)
	product := createProduct(t, app, "TOR-003", 3)

	cases := []struct {
		name   string
		role   string
		body   dto.SubmitMovementRequest
		status int
		code   string
	}{
		{"staff no ajusta", "staff", dto.SubmitMovementRequest{Type: "adjustment", ProductID: product.ID, Magnitude: -1, Reason: "conteo"}, http.StatusForbidden, "PERMISSION_DENIED"},
		{"magnitud cero", "manager", dto.SubmitMovementRequest{Type: "in", ProductID: product.ID, Reason: "x"}, http.StatusBadRequest, "VALIDATION"},
		{"tipo desconocido", "manager", dto.SubmitMovementRequest{Type: "gift", ProductID: product.ID, Magnitude: 1, Reason: "x"}, http.StatusBadRequest, "VALIDATION"},
		{"producto inexistente", "manager", dto.SubmitMovementRequest{Type: "in", ProductID: "6f1c1d8e-2b1a-4c55-9d7e-000000000000", Magnitude: 1, Reason: "x"}, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := call(t, app, http.MethodPost, "/api/inventory/movements", tc.role, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
			assert.Contains(t, string(body), tc.code)
		})
	}
}

func TestRouter_ListarMovimientos(t *testing.T) {
	app := newAPI(t)
	product := createProduct(t, app, "TOR-004", 10)
	for _, typ := range []string{"in", "out", "in"} {
		resp, body := call(t, app, http.MethodPost, "/api/inventory/movements", "manager", dto.SubmitMovementRequest{
			Type: typ, ProductID: product.ID, Magnitude: 1, Reason: "lote",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	resp, body := call(t, app, http.MethodGet, "/api/inventory/movements?type=in&product_id="+product.ID, "staff", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	list := decode[dto.MovementListResponse](t, body)
	assert.Len(t, list.Items, 2)
	for _, m := range list.Items {
		assert.Equal(t, "in", m.Type)
		assert.Equal(t, "pending", m.Status)
	}
	assert.Equal(t, 50, list.Page.Limit, "límite por defecto aplicado")
	assert.Equal(t, 0, list.Page.Offset)

	resp, body = call(t, app, http.MethodGet, "/api/inventory/movements?limit=10000&offset=-3", "staff", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	list = decode[dto.MovementListResponse](t, body)
	assert.Equal(t, 500, list.Page.Limit, "límite recortado al máximo")
	assert.Equal(t, 0, list.Page.Offset)
	assert.Len(t, list.Items, 3)

	resp, body = call(t, app, http.MethodGet, "/api/inventory/movements?status=done", "staff", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, _ = call(t, app, http.MethodGet, "/api/inventory/movements?from=ayer", "staff", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_ProductosYResumen(t *testing.T) {
	app := newAPI(t)
	createProduct(t, app, "A-1", 1)
	createProduct(t, app, "A-2", 50)

	resp, body := call(t, app, http.MethodPost, "/api/products", "staff", dto.CreateProductRequest{SKU: "X", Name: "X"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, string(body))

	resp, body = call(t, app, http.MethodPost, "/api/products", "manager", dto.CreateProductRequest{SKU: "A-1", Name: "Otro"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "DUPLICATE")

	_, body = call(t, app, http.MethodGet, "/api/products?limit=1", "staff", nil)
	page := decode[dto.ProductListResponse](t, body)
	assert.Len(t, page.Items, 1)

	_, body = call(t, app, http.MethodGet, "/api/inventory/low-stock", "staff", nil)
	low := decode[[]dto.ProductResponse](t, body)
	require.Len(t, low, 1)
	assert.Equal(t, "A-1", low[0].SKU)

	resp, _ = call(t, app, http.MethodGet, "/api/inventory/summary", "manager", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = call(t, app, http.MethodGet, "/api/products/no-existe", "staff", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_PermisosDelUsuario(t *testing.T) {
	app := newAPI(t)
	resp, body := call(t, app, http.MethodGet, "/api/permissions/me", "staff", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.PermissionsResponse](t, body)
	assert.Equal(t, "staff", out.Role)

	names := make([]string, 0, len(out.Capabilities))
	for _, c := range out.Capabilities {
		names = append(names, c.Name)
		assert.NotEmpty(t, c.Description)
	}
	assert.Contains(t, names, "stock.record_in")
	assert.NotContains(t, names, "stock.adjust")
}

func TestRouter_WebSocketRequiereTokenYUpgrade(t *testing.T) {
	app := newAPI(t)

	resp, _ := call(t, app, http.MethodGet, "/ws/movements", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok := tokenForRole(t, "staff")[len("Bearer "):]
	resp, _ = call(t, app, http.MethodGet, "/ws/movements?token="+tok, "", nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}
