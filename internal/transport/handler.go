// Package transport is the edge's JSON surface over the cart, order and
// notification components.
package transport

import (
	"errors"
	"net/http"

	"storefront-core/internal/apierr"
	"storefront-core/internal/cart"
	"storefront-core/internal/guestcart"
	"storefront-core/internal/logger"
	"storefront-core/internal/metrics"
	"storefront-core/internal/notification"
	"storefront-core/internal/order"
	"storefront-core/internal/storefront"
	"storefront-core/internal/utils"

	"go.uber.org/zap"
)

type Handler struct {
	guests   *guestcart.Store
	sessions *storefront.Registry
	tracker  *order.Tracker
	orders   order.Client
	metrics  *metrics.Registry
}

func NewHandler(guests *guestcart.Store, sessions *storefront.Registry, tracker *order.Tracker, orders order.Client, m *metrics.Registry) *Handler {
	if m == nil {
		m = metrics.Default
	}
	return &Handler{
		guests:   guests,
		sessions: sessions,
		tracker:  tracker,
		orders:   orders,
		metrics:  m,
	}
}

// Register mounts every edge route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /debug/metrics", h.metricsSnapshot)

	mux.HandleFunc("GET /guest-cart", h.getGuestCart)
	mux.HandleFunc("POST /guest-cart/items", h.guestOnly(h.addGuestItem))
	mux.HandleFunc("DELETE /guest-cart/items/{productId}", h.guestOnly(h.removeGuestItem))
	mux.HandleFunc("DELETE /guest-cart", h.guestOnly(h.clearGuestCart))

	mux.HandleFunc("POST /session", h.startSession)
	mux.HandleFunc("DELETE /session", h.endSession)

	mux.HandleFunc("GET /cart", h.requireSession(h.getCart))
	mux.HandleFunc("POST /cart/items", h.requireSession(h.addCartItem))
	mux.HandleFunc("POST /cart/items/replace", h.requireSession(h.replaceCart))
	mux.HandleFunc("PATCH /cart/items/{productId}", h.requireSession(h.updateCartItem))
	mux.HandleFunc("DELETE /cart/items/{productId}", h.requireSession(h.removeCartItem))
	mux.HandleFunc("DELETE /cart", h.requireSession(h.clearCart))
	mux.HandleFunc("POST /cart/discount", h.requireSession(h.applyDiscount))
	mux.HandleFunc("DELETE /cart/discount", h.requireSession(h.removeDiscount))

	mux.HandleFunc("POST /orders", h.requireSession(h.createOrder))
	mux.HandleFunc("GET /orders", h.requireSession(h.listOrders))
	mux.HandleFunc("GET /orders/{id}", h.requireSession(h.getOrder))
	mux.HandleFunc("GET /orders/{id}/tracking", h.trackOrder)
	mux.HandleFunc("PATCH /orders/{id}/status", h.requireSession(h.updateOrderStatus))
	mux.HandleFunc("POST /orders/{id}/cancel", h.requireSession(h.cancelOrder))

	mux.HandleFunc("GET /notifications", h.requireSession(h.listNotifications))
	mux.HandleFunc("POST /notifications/read-all", h.requireSession(h.markAllNotificationsRead))
	mux.HandleFunc("POST /notifications/{id}/read", h.requireSession(h.markNotificationRead))
	mux.HandleFunc("DELETE /notifications/{id}", h.requireSession(h.deleteNotification))
	mux.HandleFunc("DELETE /notifications", h.requireSession(h.deleteAllNotifications))
}

// requireSession resolves the caller's started session or answers 401.
func (h *Handler) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := utils.GetUserIDFromContext(r.Context())
		if !ok {
			utils.WriteError(w, apierr.New(apierr.KindUnauthenticated, "transport", "sign in required"))
			return
		}
		us, err := h.sessions.Get(userID, utils.GetTokenFromContext(r.Context()))
		if err != nil {
			utils.WriteError(w, err)
			return
		}
		next(w, r.WithContext(WithSession(r.Context(), us)))
	}
}

func (h *Handler) metricsSnapshot(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, http.StatusOK, h.metrics.Snapshot())
}

var invalidInput = []error{
	utils.ErrEmptyBody,
	cart.ErrInvalidQuantity,
	cart.ErrMissingProductID,
	cart.ErrMissingCode,
	guestcart.ErrMissingGuestID,
	guestcart.ErrMissingProductID,
	guestcart.ErrInvalidQuantity,
	order.ErrMissingOrderID,
	order.ErrUnknownStatus,
	notification.ErrMissingID,
	notification.ErrInvalidPage,
}

// writeErr renders err, answering 400 for input the components rejected
// before reaching the remote API.
func writeErr(w http.ResponseWriter, r *http.Request, method string, err error) {
	log := logger.FromCtx(r.Context()).With(
		zap.String("layer", "transport"),
		zap.String("method", method),
	)
	if role := utils.GetUserRoleFromContext(r.Context()); role != "" {
		log = log.With(zap.String("role", string(role)))
	}
	for _, target := range invalidInput {
		if errors.Is(err, target) {
			log.Debug("invalid input", zap.Error(err))
			utils.WriteJSON(w, http.StatusBadRequest, map[string]string{
				"error": target.Error(),
				"kind":  string(apierr.KindFailure),
			})
			return
		}
	}

	switch apierr.KindOf(err) {
	case apierr.KindFailure, apierr.KindNetwork:
		log.Error("request failed", zap.Error(err))
	default:
		log.Info("request refused", zap.Error(err))
	}
	utils.WriteError(w, err)
}

func badRequest(w http.ResponseWriter, err error) {
	utils.WriteJSON(w, http.StatusBadRequest, map[string]string{
		"error": err.Error(),
		"kind":  string(apierr.KindFailure),
	})
}
