package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-core/internal/apiclient"
	"storefront-core/internal/apitest"
	"storefront-core/internal/auth"
	"storefront-core/internal/guestcart"
	"storefront-core/internal/metrics"
	"storefront-core/internal/middleware"
	"storefront-core/internal/order"
	"storefront-core/internal/reconcile"
	"storefront-core/internal/storefront"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type edge struct {
	api     *apitest.API
	handler http.Handler
}

func newEdge(t *testing.T) *edge {
	t.Helper()
	api := apitest.New()
	t.Cleanup(api.Close)

	api.AddProduct(apitest.Product{ID: "pizza", MerchantID: "m1", MerchantName: "Pizza Place", Price: decimal.RequireFromString("12.00")})
	api.AddProduct(apitest.Product{ID: "soda", MerchantID: "m1", MerchantName: "Pizza Place", Price: decimal.RequireFromString("2.00")})
	api.AddProduct(apitest.Product{ID: "sushi", MerchantID: "m2", MerchantName: "Sushi Bar", Price: decimal.RequireFromString("9.00")})

	m := &metrics.Registry{}
	remote := apiclient.New(api.URL(), 5*time.Second)
	guests := guestcart.NewStore(guestcart.NewMemoryRepository())
	orders := order.NewClient(remote)
	tracker := order.NewTracker(orders, 32, time.Minute, m)
	sessions := storefront.NewRegistry(remote, reconcile.New(guests, m), tracker, storefront.Options{PollInterval: 50 * time.Millisecond}, m)
	t.Cleanup(func() { sessions.Close(context.Background()) })

	mux := http.NewServeMux()
	NewHandler(guests, sessions, tracker, orders, m).Register(mux)

	return &edge{api: api, handler: middleware.AuthMiddleware("")(mux)}
}

// token issues an access token for id and registers it with the remote API.
func (e *edge) token(t *testing.T, id, role string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": id,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("issuer-secret"))
	require.NoError(t, err)
	e.api.AddUser(tok, apitest.User{ID: id, Role: role})
	return tok
}

type call struct {
	method  string
	path    string
	body    any
	token   string
	guestID string
}

func (e *edge) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.guestID != "" {
		req.AddCookie(&http.Cookie{Name: auth.GuestIDCookie, Value: c.guestID})
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestGuestCartThenSignIn(t *testing.T) {
	e := newEdge(t)
	tok := e.token(t, "u1", "customer")

	w := e.do(t, call{method: http.MethodGet, path: "/guest-cart"})
	require.Equal(t, http.StatusOK, w.Code)
	guestID := decode(t, w)["guestId"].(string)
	require.NotEmpty(t, guestID)

	w = e.do(t, call{method: http.MethodPost, path: "/guest-cart/items", guestID: guestID, body: itemBody{ProductID: "pizza", Quantity: 2}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["lineItems"], 1)

	w = e.do(t, call{method: http.MethodPost, path: "/session", token: tok, guestID: guestID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	merge := decode(t, w)["merge"].(map[string]any)
	assert.Equal(t, "complete", merge["status"])
	assert.NotEmpty(t, merge["message"])

	w = e.do(t, call{method: http.MethodGet, path: "/cart", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "m1", decode(t, w)["merchantId"])

	w = e.do(t, call{method: http.MethodGet, path: "/guest-cart", guestID: guestID})
	assert.Empty(t, decode(t, w)["lineItems"])

	t.Run("guest writes are refused once signed in", func(t *testing.T) {
		w := e.do(t, call{method: http.MethodPost, path: "/guest-cart/items", token: tok, guestID: guestID, body: itemBody{ProductID: "soda"}})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("signing out stops the session", func(t *testing.T) {
		w := e.do(t, call{method: http.MethodDelete, path: "/session", token: tok})
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = e.do(t, call{method: http.MethodGet, path: "/cart", token: tok})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGuestCart_Validation(t *testing.T) {
	e := newEdge(t)

	w := e.do(t, call{method: http.MethodPost, path: "/guest-cart/items", body: itemBody{ProductID: "pizza", Quantity: -1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, call{method: http.MethodPost, path: "/guest-cart/items", body: map[string]any{"sku": "pizza"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCart_MerchantConflictThenReplace(t *testing.T) {
	e := newEdge(t)
	tok := e.token(t, "u1", "customer")
	require.Equal(t, http.StatusOK, e.do(t, call{method: http.MethodPost, path: "/session", token: tok}).Code)

	w := e.do(t, call{method: http.MethodPost, path: "/cart/items", token: tok, body: itemBody{ProductID: "pizza", Quantity: 1}})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, call{method: http.MethodPost, path: "/cart/items", token: tok, body: itemBody{ProductID: "sushi", Quantity: 1}})
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "merchant_conflict", body["kind"])
	conflict := body["conflict"].(map[string]any)
	assert.Equal(t, "m1", conflict["currentMerchantId"])
	assert.Equal(t, "sushi", conflict["productId"])
	assert.Equal(t, []string{"pizza:1"}, e.api.CartLines("u1"))

	w = e.do(t, call{method: http.MethodPost, path: "/cart/items/replace", token: tok, body: itemBody{ProductID: "sushi", Quantity: 1}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"sushi:1"}, e.api.CartLines("u1"))

	w = e.do(t, call{method: http.MethodPatch, path: "/cart/items/sushi", token: tok, body: quantityBody{Quantity: 3}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"sushi:3"}, e.api.CartLines("u1"))

	w = e.do(t, call{method: http.MethodPatch, path: "/cart/items/sushi", token: tok, body: quantityBody{Quantity: 0}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, call{method: http.MethodDelete, path: "/cart", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, e.api.CartLines("u1"))
}

func TestRequireSession(t *testing.T) {
	e := newEdge(t)
	tok := e.token(t, "u1", "customer")

	w := e.do(t, call{method: http.MethodGet, path: "/cart"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Signed in but no session started yet.
	w = e.do(t, call{method: http.MethodGet, path: "/cart", token: tok})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", decode(t, w)["kind"])
}

func TestOrders(t *testing.T) {
	e := newEdge(t)
	tok := e.token(t, "u1", "customer")
	owner := e.token(t, "s1", "store_owner")
	require.Equal(t, http.StatusOK, e.do(t, call{method: http.MethodPost, path: "/session", token: tok}).Code)
	require.Equal(t, http.StatusOK, e.do(t, call{method: http.MethodPost, path: "/session", token: owner}).Code)
	require.Equal(t, http.StatusOK, e.do(t, call{method: http.MethodPost, path: "/cart/items", token: tok, body: itemBody{ProductID: "pizza", Quantity: 1}}).Code)

	w := e.do(t, call{method: http.MethodPost, path: "/orders", token: tok})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orderID := decode(t, w)["id"].(string)

	w = e.do(t, call{method: http.MethodGet, path: "/orders", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)

	w = e.do(t, call{method: http.MethodGet, path: "/orders/" + orderID, token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "customer", decode(t, w)["viewer"])

	t.Run("customers may only cancel", func(t *testing.T) {
		w := e.do(t, call{method: http.MethodPatch, path: "/orders/" + orderID + "/status", token: tok, body: statusBody{Status: order.StatusConfirmed}})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "invalid_transition", decode(t, w)["kind"])
	})

	t.Run("store owner confirms", func(t *testing.T) {
		w := e.do(t, call{method: http.MethodPatch, path: "/orders/" + orderID + "/status", token: owner, body: statusBody{Status: order.StatusConfirmed}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "confirmed", e.api.OrderStatus(orderID))
	})

	t.Run("public tracking sees the new status", func(t *testing.T) {
		w := e.do(t, call{method: http.MethodGet, path: "/orders/" + orderID + "/tracking"})
		require.Equal(t, http.StatusOK, w.Code)
		o := decode(t, w)["order"].(map[string]any)
		assert.Equal(t, "confirmed", o["status"])
	})

	t.Run("customer cancels", func(t *testing.T) {
		w := e.do(t, call{method: http.MethodPost, path: "/orders/" + orderID + "/cancel", token: tok})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "cancelled", e.api.OrderStatus(orderID))
	})

	t.Run("terminal orders refuse further changes", func(t *testing.T) {
		w := e.do(t, call{method: http.MethodPatch, path: "/orders/" + orderID + "/status", token: owner, body: statusBody{Status: order.StatusDelivered}})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		w := e.do(t, call{method: http.MethodPatch, path: "/orders/" + orderID + "/status", token: owner, body: statusBody{Status: "shipped"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestNotifications(t *testing.T) {
	e := newEdge(t)
	tok := e.token(t, "u1", "customer")
	e.api.SeedNotification("u1", apitest.Notification{ID: "n1", Title: "Welcome", Type: "system", CreatedAt: time.Now().Add(-time.Minute)})
	e.api.SeedNotification("u1", apitest.Notification{ID: "n2", Title: "Promo", Type: "promotion", CreatedAt: time.Now()})
	require.Equal(t, http.StatusOK, e.do(t, call{method: http.MethodPost, path: "/session", token: tok}).Code)

	require.Eventually(t, func() bool {
		w := e.do(t, call{method: http.MethodGet, path: "/notifications", token: tok})
		return w.Code == http.StatusOK && decode(t, w)["unreadCount"] == float64(2)
	}, 2*time.Second, 20*time.Millisecond)

	w := e.do(t, call{method: http.MethodGet, path: "/notifications?limit=1", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	require.Len(t, page["items"], 1)
	assert.Equal(t, "n2", page["items"].([]any)[0].(map[string]any)["id"], "newest first")
	assert.Equal(t, float64(2), page["unreadCount"])

	w = e.do(t, call{method: http.MethodPost, path: "/notifications/n1/read", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["unreadCount"])
	read, _ := e.api.NotificationRead("u1", "n1")
	assert.True(t, read)

	w = e.do(t, call{method: http.MethodDelete, path: "/notifications/n2", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["items"], 1)
	assert.Equal(t, float64(0), body["unreadCount"])

	w = e.do(t, call{method: http.MethodDelete, path: "/notifications", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])
}

func TestNotifications_RemoteFailureKeepsLocalChange(t *testing.T) {
	e := newEdge(t)
	tok := e.token(t, "u1", "customer")
	e.api.SeedNotification("u1", apitest.Notification{ID: "n1", Title: "Welcome", Type: "system", CreatedAt: time.Now()})
	require.Equal(t, http.StatusOK, e.do(t, call{method: http.MethodPost, path: "/session", token: tok}).Code)

	require.Eventually(t, func() bool {
		w := e.do(t, call{method: http.MethodGet, path: "/notifications", token: tok})
		return w.Code == http.StatusOK && decode(t, w)["unreadCount"] == float64(1)
	}, 2*time.Second, 20*time.Millisecond)

	e.api.SetOffline("/notifications/n1", true)
	w := e.do(t, call{method: http.MethodPost, path: "/notifications/n1/read", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(0), body["unreadCount"])
	assert.NotEmpty(t, body["warning"])
	read, _ := e.api.NotificationRead("u1", "n1")
	assert.False(t, read)

	// The next poll restores the server's view.
	assert.Eventually(t, func() bool {
		w := e.do(t, call{method: http.MethodGet, path: "/notifications", token: tok})
		return w.Code == http.StatusOK && decode(t, w)["unreadCount"] == float64(1)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestMetricsSnapshot(t *testing.T) {
	e := newEdge(t)

	w := e.do(t, call{method: http.MethodGet, path: "/debug/metrics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode(t, w), "reconcile_runs_total")
}
