package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyoadidey/mother-julie/internal/entity"
	"github.com/iyoadidey/mother-julie/internal/repository"
	"github.com/iyoadidey/mother-julie/internal/service"
	"github.com/iyoadidey/mother-julie/internal/watcher"
)

// In-memory repositories backing the real services under test.

type memOrderRepo struct {
	orders map[int]*entity.Order
	nextID int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[int]*entity.Order), nextID: 1}
}

func (m *memOrderRepo) CreateOrder(ctx context.Context, order *entity.Order, idempotentKey string) (*entity.Order, error) {
	cp := *order
	cp.ID = m.nextID
	m.nextID++
	m.orders[cp.ID] = &cp
	return &cp, nil
}

func (m *memOrderRepo) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (m *memOrderRepo) ListOrders(ctx context.Context) ([]entity.Order, error) {
	orders := make([]entity.Order, 0, len(m.orders))
	for id := 1; id < m.nextID; id++ {
		if o, ok := m.orders[id]; ok {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (m *memOrderRepo) ListOrderIDs(ctx context.Context) ([]int, error) {
	ids := make([]int, 0, len(m.orders))
	for id := range m.orders {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memOrderRepo) UpdateStatus(ctx context.Context, id int, status entity.Status) error {
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	return nil
}

func (m *memOrderRepo) DeleteOrder(ctx context.Context, id int) error {
	if _, ok := m.orders[id]; !ok {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memOrderRepo) DeleteAllOrders(ctx context.Context) error {
	m.orders = make(map[int]*entity.Order)
	return nil
}

func (m *memOrderRepo) SalesBetween(ctx context.Context, from, to time.Time) (float64, int, error) {
	return 0, 0, nil
}

type memProductRepo struct {
	products map[string]*entity.Product
}

func newMemProductRepo(products ...entity.Product) *memProductRepo {
	m := &memProductRepo{products: make(map[string]*entity.Product)}
	for i := range products {
		cp := products[i]
		m.products[cp.Name] = &cp
	}
	return m
}

func (m *memProductRepo) GetProducts(ctx context.Context) ([]entity.Product, error) {
	products := make([]entity.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, *p)
	}
	return products, nil
}

func (m *memProductRepo) GetProductByID(ctx context.Context, id int) (*entity.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *memProductRepo) GetProductByName(ctx context.Context, name string) (*entity.Product, error) {
	p, ok := m.products[name]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memProductRepo) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	cp := *product
	m.products[cp.Name] = &cp
	return &cp, nil
}

func (m *memProductRepo) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	if _, ok := m.products[product.Name]; !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *product
	m.products[product.Name] = &cp
	return &cp, nil
}

func (m *memProductRepo) DeleteProduct(ctx context.Context, id int) error {
	for name, p := range m.products {
		if p.ID == id {
			delete(m.products, name)
			return nil
		}
	}
	return repository.ErrProductNotFound
}

type memSource struct{ repo *memOrderRepo }

func (s memSource) ListOrderIDs(ctx context.Context) ([]int, error) {
	return s.repo.ListOrderIDs(ctx)
}

type memViewedStore struct{ viewed map[int]bool }

func (s memViewedStore) IsViewed(ctx context.Context, orderID int) (bool, error) {
	return s.viewed[orderID], nil
}

func (s memViewedStore) MarkViewed(ctx context.Context, orderID int) error {
	s.viewed[orderID] = true
	return nil
}

func newTestOrderHandler(t *testing.T, orderRepo *memOrderRepo, productRepo *memProductRepo) *OrderHandler {
	t.Helper()
	t.Setenv("ENV", "test")
	productSvc := service.NewProductService(productRepo, nil)
	orderSvc := service.NewOrderService(orderRepo, productSvc, nil, nil)
	w := watcher.New(memSource{repo: orderRepo}, memViewedStore{viewed: make(map[int]bool)}, time.Hour)
	return NewOrderHandler(context.Background(), orderSvc, w)
}

func testCatalog() *memProductRepo {
	return newMemProductRepo(
		entity.Product{ID: 1, Name: "Cheesy Bacon Spuds", Category: "spuds", Price: 129, SizeOptions: map[string]float64{"regular": 129, "large": 159}, Stock: 10},
		entity.Product{ID: 2, Name: "Garlic Bread", Category: "appetizers", Price: 69, Stock: 5},
	)
}

func postJSON(target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestCreateOrder_HappyPath(t *testing.T) {
	repo := newMemOrderRepo()
	h := newTestOrderHandler(t, repo, testCatalog())

	body := `{
		"items": [
			{"name": "Cheesy Bacon Spuds", "size": "large", "price": 159, "quantity": 2},
			{"name": "Garlic Bread", "price": 69, "quantity": 1}
		],
		"orderType": "delivery",
		"paymentMethod": "gcash",
		"customerName": "Ana"
	}`
	c, rec := postJSON("/api/orders/", body)

	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, 437.0, resp["total_amount"])
	assert.Equal(t, "order_placed", resp["status"])
	assert.Equal(t, "/track/delivery/", resp["redirect_to"])
	assert.Len(t, repo.orders, 1)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	repo := newMemOrderRepo()
	h := newTestOrderHandler(t, repo, testCatalog())

	c, rec := postJSON("/api/orders/", `{"items": [], "orderType": "dine-in", "paymentMethod": "cash"}`)

	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "your cart is empty")
	assert.Empty(t, repo.orders)
}

func TestCreateOrder_OutOfStock(t *testing.T) {
	repo := newMemOrderRepo()
	products := newMemProductRepo(entity.Product{ID: 1, Name: "Garlic Bread", Category: "appetizers", Price: 69, Stock: 1})
	h := newTestOrderHandler(t, repo, products)

	body := `{"items": [{"name": "Garlic Bread", "price": 69, "quantity": 2}], "orderType": "dine-in", "paymentMethod": "cash"}`
	c, rec := postJSON("/api/orders/", body)

	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, repo.orders)
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	h := newTestOrderHandler(t, newMemOrderRepo(), testCatalog())

	body := `{"items": [{"name": "Sisig", "price": 150, "quantity": 1}], "orderType": "dine-in", "paymentMethod": "cash"}`
	c, rec := postJSON("/api/orders/", body)

	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateOrder_CashNoticeSurfaced(t *testing.T) {
	h := newTestOrderHandler(t, newMemOrderRepo(), testCatalog())

	body := `{"items": [{"name": "Garlic Bread", "price": 69, "quantity": 1}], "orderType": "pickup", "paymentMethod": "cash"}`
	c, rec := postJSON("/api/orders/", body)

	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "gcash", resp["payment_method"])
	assert.Equal(t, service.CashRestrictedNotice, resp["notice"])
	assert.Equal(t, "/track/pickup/", resp["redirect_to"])
}

func TestUpdateStatus_InvalidTransitionConflicts(t *testing.T) {
	repo := newMemOrderRepo()
	repo.CreateOrder(context.Background(), &entity.Order{
		OrderType: entity.OrderTypeDelivery,
		Status:    entity.StatusDelivered,
	}, "")
	h := newTestOrderHandler(t, repo, testCatalog())

	c, rec := postJSON("/api/orders/1/update-status/", `{"status": "preparing"}`)
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelOrder_RequiresConfirmation(t *testing.T) {
	repo := newMemOrderRepo()
	repo.CreateOrder(context.Background(), &entity.Order{
		OrderType: entity.OrderTypeDelivery,
		Status:    entity.StatusOrderPlaced,
	}, "")
	h := newTestOrderHandler(t, repo, testCatalog())

	c, rec := postJSON("/api/orders/1/cancel/", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.CancelOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, entity.StatusOrderPlaced, repo.orders[1].Status)

	c, rec = postJSON("/api/orders/1/cancel/?confirm=true", "")
	c.SetParamNames("id")
	c.SetParamValues("1")

	require.NoError(t, h.CancelOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, entity.StatusCancelled, repo.orders[1].Status)
}

func TestDeleteOrder_NotFound(t *testing.T) {
	h := newTestOrderHandler(t, newMemOrderRepo(), testCatalog())

	c, rec := postJSON("/api/orders/99/delete/?confirm=true", "")
	c.SetParamNames("id")
	c.SetParamValues("99")

	require.NoError(t, h.DeleteOrder(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnread_ReflectsWatcher(t *testing.T) {
	repo := newMemOrderRepo()
	h := newTestOrderHandler(t, repo, testCatalog())

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/orders/unread/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.Unread(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0.0, resp["unread"])
	assert.Equal(t, false, resp["polling"])
}
