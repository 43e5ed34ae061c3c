// Package apitest runs an in-process fake of the remote commerce API over
// httptest, following the same wire contract as the real service.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID           string
	MerchantID   string
	MerchantName string
	Price        decimal.Decimal
}

type User struct {
	ID   string
	Role string
}

type line struct {
	ProductID    string          `json:"productId"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	MerchantID   string          `json:"merchantId"`
	MerchantName string          `json:"merchantName"`
}

type discount struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

type cartState struct {
	lines    []line
	discount *discount
}

type StatusChange struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type Order struct {
	ID            string         `json:"id"`
	CustomerID    string         `json:"customerId"`
	MerchantID    string         `json:"merchantId"`
	LineItems     []line         `json:"lineItems"`
	Total         string         `json:"total"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	StatusHistory []StatusChange `json:"statusHistory"`
}

type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	RelatedID string    `json:"relatedId,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// API is the fake. Zero value is not usable; call New.
type API struct {
	Server *httptest.Server

	mu            sync.Mutex
	products      map[string]Product
	users         map[string]User // by token
	carts         map[string]*cartState
	orders        map[string]*Order
	notifications map[string][]Notification
	discounts     map[string]decimal.Decimal
	deliveryFee   decimal.Decimal
	requests      map[string]int
	offline       map[string]bool
	sockets       map[string][]*websocket.Conn
	nextOrder     int
	now           func() time.Time
}

func New() *API {
	a := &API{
		products:      map[string]Product{},
		users:         map[string]User{},
		carts:         map[string]*cartState{},
		orders:        map[string]*Order{},
		notifications: map[string][]Notification{},
		discounts:     map[string]decimal.Decimal{},
		deliveryFee:   decimal.RequireFromString("2.50"),
		requests:      map[string]int{},
		offline:       map[string]bool{},
		sockets:       map[string][]*websocket.Conn{},
		now:           time.Now,
	}
	a.Server = httptest.NewServer(a.routes())
	return a
}

func (a *API) Close() {
	a.mu.Lock()
	for _, conns := range a.sockets {
		for _, c := range conns {
			c.Close()
		}
	}
	a.mu.Unlock()
	a.Server.Close()
}

func (a *API) URL() string { return a.Server.URL }

// PushURL is the websocket endpoint of the push channel.
func (a *API) PushURL() string { return "ws" + strings.TrimPrefix(a.Server.URL, "http") + "/ws" }

func (a *API) AddProduct(p Product) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.products[p.ID] = p
}

func (a *API) AddUser(token string, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[token] = u
}

func (a *API) AddDiscount(code string, amount decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.discounts[code] = amount
}

// SeedCart places items in a user's server cart without going through HTTP.
func (a *API) SeedCart(userID string, productID string, qty int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p := a.products[productID]
	cs := a.cart(userID)
	cs.lines = append(cs.lines, line{ProductID: p.ID, Quantity: qty, UnitPrice: p.Price, MerchantID: p.MerchantID, MerchantName: p.MerchantName})
}

// SeedOrder stores an order directly; missing history is derived from status.
func (a *API) SeedOrder(o Order) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = a.now()
	}
	if len(o.StatusHistory) == 0 {
		o.StatusHistory = []StatusChange{{Status: o.Status, Timestamp: o.CreatedAt}}
	}
	a.orders[o.ID] = &o
}

func (a *API) SeedNotification(userID string, n Notification) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifications[userID] = append(a.notifications[userID], n)
}

// Publish stores n and delivers it over every open push socket of the user.
func (a *API) Publish(userID string, n Notification) {
	a.mu.Lock()
	a.notifications[userID] = append(a.notifications[userID], n)
	conns := append([]*websocket.Conn(nil), a.sockets[userID]...)
	a.mu.Unlock()

	for _, c := range conns {
		_ = c.WriteJSON(map[string]any{"type": "notification", "data": n})
	}
}

// SetOffline makes requests whose path starts with prefix drop their connection.
func (a *API) SetOffline(prefix string, offline bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.offline[prefix] = offline
}

func (a *API) Requests(methodPath string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[methodPath]
}

func (a *API) CartLines(userID string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, l := range a.cart(userID).lines {
		out = append(out, fmt.Sprintf("%s:%d", l.ProductID, l.Quantity))
	}
	return out
}

func (a *API) OrderStatus(id string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if o, ok := a.orders[id]; ok {
		return o.Status
	}
	return ""
}

func (a *API) NotificationRead(userID, id string) (read bool, exists bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, n := range a.notifications[userID] {
		if n.ID == id {
			return n.Read, true
		}
	}
	return false, false
}

func (a *API) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /cart", a.authed(a.getCart))
	mux.HandleFunc("POST /cart/items", a.authed(a.addItem))
	mux.HandleFunc("PATCH /cart/items/{productId}", a.authed(a.updateItem))
	mux.HandleFunc("DELETE /cart/items/{productId}", a.authed(a.removeItem))
	mux.HandleFunc("DELETE /cart", a.authed(a.clearCart))
	mux.HandleFunc("POST /cart/discount", a.authed(a.applyDiscount))
	mux.HandleFunc("DELETE /cart/discount", a.authed(a.removeDiscount))
	mux.HandleFunc("POST /cart/merge", a.authed(a.mergeCart))

	mux.HandleFunc("POST /orders", a.authed(a.createOrder))
	mux.HandleFunc("GET /orders/mine", a.authed(a.listMine))
	mux.HandleFunc("GET /orders/{id}", a.authed(a.getOrder("customer")))
	mux.HandleFunc("GET /orders/{id}/tracking", a.tracking)
	mux.HandleFunc("POST /orders/{id}/cancel", a.authed(a.cancelOrder))
	mux.HandleFunc("GET /store/orders/{id}", a.authed(a.getOrder("store_owner")))
	mux.HandleFunc("GET /admin/orders/{id}", a.authed(a.getOrder("admin")))
	mux.HandleFunc("GET /admin/orders", a.authed(a.listAll))
	mux.HandleFunc("PATCH /store/orders/{id}/status", a.authed(a.updateStatus("store_owner")))
	mux.HandleFunc("PATCH /admin/orders/{id}/status", a.authed(a.updateStatus("admin")))

	mux.HandleFunc("GET /notifications", a.authed(a.listNotifications))
	mux.HandleFunc("PATCH /notifications/read-all", a.authed(a.readAll))
	mux.HandleFunc("PATCH /notifications/{id}/read", a.authed(a.readOne))
	mux.HandleFunc("DELETE /notifications/{id}", a.authed(a.deleteOne))
	mux.HandleFunc("DELETE /notifications", a.authed(a.deleteAll))

	mux.HandleFunc("GET /ws", a.authed(a.socket))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests[r.Method+" "+r.URL.Path]++
		drop := false
		for prefix, off := range a.offline {
			if off && strings.HasPrefix(r.URL.Path, prefix) {
				drop = true
			}
		}
		a.mu.Unlock()

		if drop {
			panic(http.ErrAbortHandler)
		}
		mux.ServeHTTP(w, r)
	})
}

func (a *API) authed(h func(http.ResponseWriter, *http.Request, User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		a.mu.Lock()
		u, ok := a.users[token]
		a.mu.Unlock()
		if token == "" || !ok {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "login required", nil)
			return
		}
		h(w, r, u)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	body := map[string]any{"code": code, "message": message}
	if details != nil {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

// -- cart --

func (a *API) cart(userID string) *cartState {
	cs, ok := a.carts[userID]
	if !ok {
		cs = &cartState{}
		a.carts[userID] = cs
	}
	return cs
}

func (a *API) cartJSON(userID string) map[string]any {
	cs := a.cart(userID)
	subtotal := decimal.Zero
	for _, l := range cs.lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	out := map[string]any{
		"lineItems":   append([]line{}, cs.lines...),
		"subtotal":    subtotal,
		"deliveryFee": decimal.Zero,
		"total":       decimal.Zero,
	}
	if len(cs.lines) == 0 {
		return out
	}
	total := subtotal.Add(a.deliveryFee)
	if cs.discount != nil {
		total = total.Sub(cs.discount.Amount)
		out["discount"] = cs.discount
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	out["merchantId"] = cs.lines[0].MerchantID
	out["merchantName"] = cs.lines[0].MerchantName
	out["deliveryFee"] = a.deliveryFee
	out["total"] = total
	return out
}

type itemBody struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (a *API) getCart(w http.ResponseWriter, r *http.Request, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	writeJSON(w, http.StatusOK, a.cartJSON(u.ID))
}

// addLocked applies one add; it returns a non-nil error body on rejection.
func (a *API) addLocked(userID string, b itemBody) (int, map[string]any) {
	p, ok := a.products[b.ProductID]
	if !ok {
		return http.StatusNotFound, map[string]any{"code": "NOT_FOUND", "message": "product not found"}
	}
	if b.Quantity < 1 {
		return http.StatusUnprocessableEntity, map[string]any{"code": "INVALID_QUANTITY", "message": "quantity must be positive"}
	}
	cs := a.cart(userID)
	if len(cs.lines) > 0 && cs.lines[0].MerchantID != p.MerchantID {
		return http.StatusConflict, map[string]any{
			"code":    "MERCHANT_CONFLICT",
			"message": "cart already holds items from " + cs.lines[0].MerchantName,
			"details": map[string]any{
				"currentMerchantId":   cs.lines[0].MerchantID,
				"currentMerchantName": cs.lines[0].MerchantName,
				"requestedMerchantId": p.MerchantID,
			},
		}
	}
	for i := range cs.lines {
		if cs.lines[i].ProductID == p.ID {
			cs.lines[i].Quantity += b.Quantity
			return 0, nil
		}
	}
	cs.lines = append(cs.lines, line{ProductID: p.ID, Quantity: b.Quantity, UnitPrice: p.Price, MerchantID: p.MerchantID, MerchantName: p.MerchantName})
	return 0, nil
}

func (a *API) addItem(w http.ResponseWriter, r *http.Request, u User) {
	var b itemBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if status, body := a.addLocked(u.ID, b); body != nil {
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, a.cartJSON(u.ID))
}

func (a *API) updateItem(w http.ResponseWriter, r *http.Request, u User) {
	var b itemBody
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil || b.Quantity < 1 {
		writeError(w, http.StatusUnprocessableEntity, "INVALID_QUANTITY", "quantity must be positive", nil)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cs := a.cart(u.ID)
	for i := range cs.lines {
		if cs.lines[i].ProductID == r.PathValue("productId") {
			cs.lines[i].Quantity = b.Quantity
			writeJSON(w, http.StatusOK, a.cartJSON(u.ID))
			return
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "item not in cart", nil)
}

func (a *API) removeItem(w http.ResponseWriter, r *http.Request, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cs := a.cart(u.ID)
	kept := cs.lines[:0]
	for _, l := range cs.lines {
		if l.ProductID != r.PathValue("productId") {
			kept = append(kept, l)
		}
	}
	cs.lines = kept
	if len(cs.lines) == 0 {
		cs.discount = nil
	}
	writeJSON(w, http.StatusOK, a.cartJSON(u.ID))
}

func (a *API) clearCart(w http.ResponseWriter, r *http.Request, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.carts[u.ID] = &cartState{}
	writeJSON(w, http.StatusOK, a.cartJSON(u.ID))
}

func (a *API) applyDiscount(w http.ResponseWriter, r *http.Request, u User) {
	var b struct {
		Code string `json:"code"`
	}
	_ = json.NewDecoder(r.Body).Decode(&b)
	a.mu.Lock()
	defer a.mu.Unlock()
	amount, ok := a.discounts[b.Code]
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "INVALID_DISCOUNT", "unknown discount code", nil)
		return
	}
	a.cart(u.ID).discount = &discount{Code: b.Code, Amount: amount}
	writeJSON(w, http.StatusOK, a.cartJSON(u.ID))
}

func (a *API) removeDiscount(w http.ResponseWriter, r *http.Request, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cart(u.ID).discount = nil
	writeJSON(w, http.StatusOK, a.cartJSON(u.ID))
}

func (a *API) mergeCart(w http.ResponseWriter, r *http.Request, u User) {
	var b struct {
		Items []itemBody `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, it := range b.Items {
		if status, body := a.addLocked(u.ID, it); body != nil {
			writeJSON(w, status, body)
			return
		}
	}
	writeJSON(w, http.StatusOK, a.cartJSON(u.ID))
}

// -- orders --

var forward = []string{"pending", "confirmed", "out_for_delivery", "delivered"}

func forwardIndex(s string) int {
	for i, f := range forward {
		if f == s {
			return i
		}
	}
	return -1
}

func allowed(from, to string) bool {
	switch to {
	case "cancelled":
		return from == "pending" || from == "confirmed"
	case "rejected":
		return from == "pending"
	}
	fi, ti := forwardIndex(from), forwardIndex(to)
	return fi >= 0 && ti > fi && from != "delivered"
}

func (a *API) transitionLocked(o *Order, to string) bool {
	if !allowed(o.Status, to) {
		return false
	}
	o.Status = to
	o.StatusHistory = append(o.StatusHistory, StatusChange{Status: to, Timestamp: a.now()})
	return true
}

func (a *API) createOrder(w http.ResponseWriter, r *http.Request, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cs := a.cart(u.ID)
	if len(cs.lines) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "CART_EMPTY", "cart is empty", nil)
		return
	}
	total := a.cartJSON(u.ID)["total"].(decimal.Decimal)
	a.nextOrder++
	now := a.now()
	o := &Order{
		ID:            "o-" + strconv.Itoa(a.nextOrder),
		CustomerID:    u.ID,
		MerchantID:    cs.lines[0].MerchantID,
		LineItems:     append([]line{}, cs.lines...),
		Total:         total.String(),
		Status:        "pending",
		CreatedAt:     now,
		StatusHistory: []StatusChange{{Status: "pending", Timestamp: now}},
	}
	a.orders[o.ID] = o
	a.carts[u.ID] = &cartState{}
	writeJSON(w, http.StatusCreated, o)
}

func (a *API) getOrder(role string) func(http.ResponseWriter, *http.Request, User) {
	return func(w http.ResponseWriter, r *http.Request, u User) {
		a.mu.Lock()
		defer a.mu.Unlock()
		o, ok := a.orders[r.PathValue("id")]
		if !ok || (role == "customer" && o.CustomerID != u.ID) || (role != "customer" && u.Role != role) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

func (a *API) tracking(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.orders[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":            o.ID,
		"merchantId":    o.MerchantID,
		"status":        o.Status,
		"createdAt":     o.CreatedAt,
		"statusHistory": o.StatusHistory,
	})
}

func (a *API) listMine(w http.ResponseWriter, r *http.Request, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*Order
	for _, o := range a.orders {
		if o.CustomerID == u.ID {
			out = append(out, o)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": sortOrders(out), "total": len(out)})
}

func (a *API) listAll(w http.ResponseWriter, r *http.Request, u User) {
	if u.Role != "admin" {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "admin only", nil)
		return
	}
	status := r.URL.Query().Get("status")
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []*Order
	for _, o := range a.orders {
		if status == "" || o.Status == status {
			out = append(out, o)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": sortOrders(out), "total": len(out)})
}

func sortOrders(out []*Order) []*Order {
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if out == nil {
		out = []*Order{}
	}
	return out
}

func (a *API) updateStatus(role string) func(http.ResponseWriter, *http.Request, User) {
	return func(w http.ResponseWriter, r *http.Request, u User) {
		if u.Role != role {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "wrong role", nil)
			return
		}
		var b struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&b)
		a.mu.Lock()
		defer a.mu.Unlock()
		o, ok := a.orders[r.PathValue("id")]
		if !ok {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		if !a.transitionLocked(o, b.Status) {
			writeError(w, http.StatusConflict, "INVALID_TRANSITION", fmt.Sprintf("cannot move from %s to %s", o.Status, b.Status), nil)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

func (a *API) cancelOrder(w http.ResponseWriter, r *http.Request, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	o, ok := a.orders[r.PathValue("id")]
	if !ok || o.CustomerID != u.ID {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	}
	if !a.transitionLocked(o, "cancelled") {
		writeError(w, http.StatusConflict, "ORDER_TERMINAL", "order can no longer be cancelled", nil)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// -- notifications --

func (a *API) listNotifications(w http.ResponseWriter, r *http.Request, u User) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	a.mu.Lock()
	all := append([]Notification(nil), a.notifications[u.ID]...)
	a.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	unread := 0
	for _, n := range all {
		if !n.Read {
			unread++
		}
	}
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":       all[start:end],
		"unreadCount": unread,
		"total":       len(all),
	})
}

func (a *API) readOne(w http.ResponseWriter, r *http.Request, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.notifications[u.ID]
	for i := range list {
		if list[i].ID == r.PathValue("id") {
			list[i].Read = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "notification not found", nil)
}

func (a *API) readAll(w http.ResponseWriter, r *http.Request, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.notifications[u.ID]
	for i := range list {
		list[i].Read = true
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) deleteOne(w http.ResponseWriter, r *http.Request, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.notifications[u.ID]
	for i := range list {
		if list[i].ID == r.PathValue("id") {
			a.notifications[u.ID] = append(list[:i:i], list[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "notification not found", nil)
}

func (a *API) deleteAll(w http.ResponseWriter, r *http.Request, u User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.notifications, u.ID)
	w.WriteHeader(http.StatusNoContent)
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (a *API) socket(w http.ResponseWriter, r *http.Request, u User) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	a.mu.Lock()
	a.sockets[u.ID] = append(a.sockets[u.ID], conn)
	a.mu.Unlock()

	// Drain until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	a.mu.Lock()
	conns := a.sockets[u.ID]
	for i, c := range conns {
		if c == conn {
			a.sockets[u.ID] = append(conns[:i:i], conns[i+1:]...)
			break
		}
	}
	a.mu.Unlock()
	conn.Close()
}

// Sockets reports how many push connections the user currently holds.
func (a *API) Sockets(userID string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sockets[userID])
}
