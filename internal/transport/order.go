package transport

import (
	"net/http"

	"storefront-core/internal/order"
	"storefront-core/internal/session"
	"storefront-core/internal/utils"
)

type statusBody struct {
	Status order.Status `json:"status"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.CreateFromCart(r.Context(), SessionFrom(r.Context()).Session)
	if err != nil {
		writeErr(w, r, "createOrder", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, o)
}

// listOrders lists the caller's own orders, or every order for admins.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	sess := SessionFrom(r.Context()).Session

	var (
		page *order.Page
		err  error
	)
	if sess.Role() == session.RoleAdmin {
		page, err = h.orders.ListAll(r.Context(), sess, order.Status(r.URL.Query().Get("status")))
	} else {
		page, err = h.orders.ListMine(r.Context(), sess)
	}
	if err != nil {
		writeErr(w, r, "listOrders", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	v, err := h.tracker.View(r.Context(), SessionFrom(r.Context()).Session, r.PathValue("id"))
	writeView(w, r, "getOrder", v, err)
}

func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	v, err := h.tracker.Track(r.Context(), r.PathValue("id"))
	writeView(w, r, "trackOrder", v, err)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if err := utils.DecodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	v, err := h.tracker.RequestTransition(r.Context(), SessionFrom(r.Context()).Session, r.PathValue("id"), body.Status)
	writeView(w, r, "updateOrderStatus", v, err)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	v, err := h.tracker.RequestTransition(r.Context(), SessionFrom(r.Context()).Session, r.PathValue("id"), order.StatusCancelled)
	writeView(w, r, "cancelOrder", v, err)
}

func writeView(w http.ResponseWriter, r *http.Request, method string, v *order.View, err error) {
	if err != nil {
		writeErr(w, r, method, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, v)
}
