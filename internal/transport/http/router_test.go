package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shophub/backend/internal/handlers"
	orderhdl "github.com/shophub/backend/internal/handlers/order"
	"github.com/shophub/backend/internal/models"
	"github.com/shophub/backend/internal/mykafka"
	ordersvc "github.com/shophub/backend/internal/order"
)

var testSecret = []byte("test-jwt-secret")

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Address{}, &models.Product{},
		&models.CartItem{}, &models.Order{}, &models.OrderItem{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	prod := &mykafka.Producer{}
	svc := &ordersvc.Service{DB: db}

	e := echo.New()
	Register(e, &Deps{
		DB:             db,
		JWTSecret:      testSecret,
		AuthHandler:    &handlers.AuthHandler{DB: db, JWTSecret: testSecret, Producer: prod},
		ProductHandler: &handlers.ProductHandler{DB: db, Producer: prod},
		UserHandler:    &handlers.UserHandler{DB: db},
		OrderHandler:   &orderhdl.OrderHandler{DB: db, Svc: svc, Producer: prod},
		CartHandler:    &orderhdl.CartHandler{DB: db, Svc: svc, Producer: prod},
	})

	return &testEnv{T: t, E: e, DB: db}
}

func (env *testEnv) createUser(role string) (models.User, string) {
	env.T.Helper()

	user := models.User{
		Name:         fmt.Sprintf("%s user", role),
		Email:        fmt.Sprintf("%s%d@example.com", role, time.Now().UnixNano()),
		PasswordHash: "x",
		Role:         role,
	}
	require.NoError(env.T, env.DB.Create(&user).Error)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(env.T, err)

	return user, token
}

func (env *testEnv) do(method, target, token string, payload any) *httptest.ResponseRecorder {
	env.T.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(env.T, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func orderPayload() map[string]any {
	return map[string]any{
		"orderItems": []map[string]any{
			{"product_id": 1, "name": "headphones", "price": 10, "image": "h.png", "quantity": 2},
			{"product_id": 2, "name": "watch", "price": 5, "quantity": 1},
		},
		"shippingAddress": map[string]string{
			"fullName":    "Test User",
			"addressLine": "1 Main St",
			"city":        "Springfield",
			"state":       "IL",
			"pincode":     "62701",
			"country":     "USA",
			"phone":       "5551234",
		},
		"paymentMethod": "card",
		"itemsPrice":    25,
		"taxPrice":      2.5,
		"shippingPrice": 10,
		"totalPrice":    37.5,
	}
}

type orderEnvelope struct {
	Success bool `json:"success"`
	Order   struct {
		models.Order
		Status string `json:"status"`
	} `json:"order"`
}

func TestAdminOnlyEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.createUser(models.RoleUser)

	endpoints := []struct {
		method, target string
	}{
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/products/1"},
		{http.MethodDelete, "/api/products/1"},
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/users"},
		{http.MethodPut, "/api/orders/1/confirm"},
		{http.MethodPut, "/api/orders/1/deliver"},
	}

	for _, ep := range endpoints {
		rec := env.do(ep.method, ep.target, userToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", ep.method, ep.target)
	}
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/orders", "", orderPayload())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/api/cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	user, userToken := env.createUser(models.RoleUser)
	_, adminToken := env.createUser(models.RoleAdmin)

	// Placement.
	rec := env.do(http.MethodPost, "/api/orders", userToken, orderPayload())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created orderEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.True(t, created.Success)
	require.Len(t, created.Order.Items, 2)
	assert.Equal(t, models.OrderStatusPending, created.Order.Status)
	assert.Equal(t, user.ID, created.Order.UserID)

	orderURL := fmt.Sprintf("/api/orders/%d", created.Order.ID)

	// The shipping address was saved to the profile as a side effect.
	rec = env.do(http.MethodGet, "/api/users/addresses", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var addrResp struct {
		Addresses []models.Address `json:"addresses"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &addrResp))
	require.Len(t, addrResp.Addresses, 1)
	assert.Equal(t, "Springfield", addrResp.Addresses[0].City)

	// Deliver before confirm is rejected.
	rec = env.do(http.MethodPut, orderURL+"/deliver", adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Confirm with a 3-day ETA.
	rec = env.do(http.MethodPut, orderURL+"/confirm", adminToken, map[string]int{"deliveryDays": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	var confirmed orderEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmed))
	assert.Equal(t, models.OrderStatusConfirmed, confirmed.Order.Status)
	assert.Equal(t, confirmed.Order.ConfirmedAt+3*24*60*60, confirmed.Order.EstimatedDelivery)

	// Deliver.
	rec = env.do(http.MethodPut, orderURL+"/deliver", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var delivered orderEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &delivered))
	assert.Equal(t, models.OrderStatusDelivered, delivered.Order.Status)

	// Cancelling a delivered order is rejected.
	rec = env.do(http.MethodPut, orderURL+"/cancel", userToken, map[string]string{"cancelReason": "too late"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.createUser(models.RoleUser)
	_, otherToken := env.createUser(models.RoleUser)

	rec := env.do(http.MethodPost, "/api/orders", userToken, orderPayload())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created orderEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	orderURL := fmt.Sprintf("/api/orders/%d", created.Order.ID)

	// Missing reason.
	rec = env.do(http.MethodPut, orderURL+"/cancel", userToken, map[string]string{"cancelReason": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Not the owner.
	rec = env.do(http.MethodPut, orderURL+"/cancel", otherToken, map[string]string{"cancelReason": "nope"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPut, orderURL+"/cancel", userToken, map[string]string{"cancelReason": "wrong size"})
	require.Equal(t, http.StatusOK, rec.Code)
	var cancelled orderEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.True(t, cancelled.Order.IsCancelled)
	assert.Equal(t, "wrong size", cancelled.Order.CancelReason)
}

func TestCreateOrderEmptyCartRejected(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.createUser(models.RoleUser)

	payload := orderPayload()
	payload["orderItems"] = []map[string]any{}
	rec := env.do(http.MethodPost, "/api/orders", userToken, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestMyOrdersIsOwnerScoped(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.createUser(models.RoleUser)
	_, otherToken := env.createUser(models.RoleUser)

	rec := env.do(http.MethodPost, "/api/orders", userToken, orderPayload())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodGet, "/api/orders/myorders", otherToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Orders []json.RawMessage `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Orders, 0)

	rec = env.do(http.MethodGet, "/api/orders/myorders", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Orders, 1)
}

func TestCartCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.createUser(models.RoleUser)

	products := []models.Product{
		{Name: "headphones", Description: "d", Price: 10, Category: "Audio", Image: "h.png", Stock: 5},
		{Name: "watch", Description: "d", Price: 5, Category: "Wearables", Image: "w.png", Stock: 5},
	}
	for i := range products {
		require.NoError(t, env.DB.Create(&products[i]).Error)
	}

	// Two adds of the same product merge into one entry.
	add := map[string]uint{"product_id": products[0].ID}
	rec := env.do(http.MethodPost, "/api/cart", userToken, add)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodPost, "/api/cart", userToken, add)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(http.MethodPost, "/api/cart", userToken, map[string]uint{"product_id": products[1].ID})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/cart", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cartResp struct {
		Count  uint `json:"count"`
		Totals struct {
			ItemsPrice float64 `json:"itemsPrice"`
			TotalPrice float64 `json:"totalPrice"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cartResp))
	assert.Equal(t, uint(3), cartResp.Count)
	assert.InDelta(t, 25.0, cartResp.Totals.ItemsPrice, 1e-9)
	assert.InDelta(t, 37.5, cartResp.Totals.TotalPrice, 1e-9)

	// Checkout snapshots the cart into an order and clears it.
	rec = env.do(http.MethodPost, "/api/cart/checkout", userToken, map[string]any{
		"shippingAddress": map[string]string{
			"fullName":    "Test User",
			"addressLine": "1 Main St",
			"city":        "Springfield",
			"state":       "IL",
			"pincode":     "62701",
			"country":     "USA",
			"phone":       "5551234",
		},
		"paymentMethod": "cod",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created orderEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Order.Items, 2)
	assert.Equal(t, uint(2), created.Order.Items[0].Quantity)
	assert.InDelta(t, 37.5, created.Order.TotalPrice, 1e-9)

	var remaining int64
	require.NoError(t, env.DB.Model(&models.CartItem{}).Count(&remaining).Error)
	assert.Equal(t, int64(0), remaining, "cart cleared after checkout")

	// A second checkout on the now-empty cart is rejected.
	rec = env.do(http.MethodPost, "/api/cart/checkout", userToken, map[string]any{"paymentMethod": "cod"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartUpdateAndRemoveOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.createUser(models.RoleUser)

	prod := models.Product{Name: "headphones", Description: "d", Price: 10, Category: "Audio", Stock: 5}
	require.NoError(t, env.DB.Create(&prod).Error)

	rec := env.do(http.MethodPost, "/api/cart", userToken, map[string]uint{"product_id": prod.ID})
	require.Equal(t, http.StatusOK, rec.Code)

	target := fmt.Sprintf("/api/cart/%d", prod.ID)

	rec = env.do(http.MethodPut, target, userToken, map[string]int{"quantity": 4})
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, env.DB.Model(&models.CartItem{}).Where("quantity = ?", 4).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// Quantity zero removes the entry.
	rec = env.do(http.MethodPut, target, userToken, map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, env.DB.Model(&models.CartItem{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	// Removing again is a 404.
	rec = env.do(http.MethodDelete, target, userToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminReadPaths(t *testing.T) {
	env := newTestEnv(t)
	_, userToken := env.createUser(models.RoleUser)
	_, adminToken := env.createUser(models.RoleAdmin)

	rec := env.do(http.MethodPost, "/api/orders", userToken, orderPayload())
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodGet, "/api/orders", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ordersResp struct {
		Orders []json.RawMessage `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ordersResp))
	assert.Len(t, ordersResp.Orders, 1)

	rec = env.do(http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var usersResp struct {
		Users []models.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usersResp))
	assert.Len(t, usersResp.Users, 2)
}

func TestProductCRUDAsAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, adminToken := env.createUser(models.RoleAdmin)

	rec := env.do(http.MethodPost, "/api/products", adminToken, map[string]any{
		"name":        "headphones",
		"description": "noise cancelling",
		"price":       99.9,
		"category":    "Audio",
		"image":       "h.png",
		"stock":       10,
		"rating":      4.5,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Product models.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.Product.ID)

	// Unknown category is a validation error.
	rec = env.do(http.MethodPost, "/api/products", adminToken, map[string]any{
		"name":        "thing",
		"description": "d",
		"price":       1,
		"category":    "Gadgets",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Public read.
	rec = env.do(http.MethodGet, fmt.Sprintf("/api/products/%d", created.Product.ID), "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Admin stock toggle via update.
	payload := map[string]any{
		"name":        created.Product.Name,
		"description": created.Product.Description,
		"price":       created.Product.Price,
		"category":    created.Product.Category,
		"image":       created.Product.Image,
		"stock":       0,
		"rating":      created.Product.Rating,
	}
	rec = env.do(http.MethodPut, fmt.Sprintf("/api/products/%d", created.Product.ID), adminToken, payload)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated struct {
		Product models.Product `json:"product"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, uint(0), updated.Product.Stock)

	rec = env.do(http.MethodDelete, fmt.Sprintf("/api/products/%d", created.Product.ID), adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
