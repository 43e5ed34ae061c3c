package transport

import (
	"net/http"
	"time"

	"storefront-core/internal/auth"
	"storefront-core/internal/guestcart"
	"storefront-core/internal/utils"
)

type guestCartResponse struct {
	GuestID      string           `json:"guestId"`
	Items        []guestcart.Item `json:"lineItems"`
	LastModified time.Time        `json:"lastModified"`
}

type itemBody struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// guestOnly refuses guest cart writes once the caller is signed in; from then
// on the server cart is the only cart.
func (h *Handler) guestOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); ok {
			utils.WriteJSONError(w, "signed-in users must use the cart", http.StatusConflict)
			return
		}
		next(w, r)
	}
}

func (h *Handler) getGuestCart(w http.ResponseWriter, r *http.Request) {
	guestID := auth.EnsureGuestID(w, r)
	writeGuestCart(w, guestID, h.guests.Get(r.Context(), guestID))
}

func (h *Handler) addGuestItem(w http.ResponseWriter, r *http.Request) {
	var body itemBody
	if err := utils.DecodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	if body.Quantity == 0 {
		body.Quantity = 1
	}

	guestID := auth.EnsureGuestID(w, r)
	rec, err := h.guests.Add(r.Context(), guestID, body.ProductID, body.Quantity)
	if err != nil {
		writeErr(w, r, "addGuestItem", err)
		return
	}
	writeGuestCart(w, guestID, rec)
}

func (h *Handler) removeGuestItem(w http.ResponseWriter, r *http.Request) {
	guestID := auth.EnsureGuestID(w, r)
	rec, err := h.guests.Remove(r.Context(), guestID, r.PathValue("productId"))
	if err != nil {
		writeErr(w, r, "removeGuestItem", err)
		return
	}
	writeGuestCart(w, guestID, rec)
}

func (h *Handler) clearGuestCart(w http.ResponseWriter, r *http.Request) {
	guestID, ok := auth.ExtractGuestID(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.guests.Clear(r.Context(), guestID); err != nil {
		writeErr(w, r, "clearGuestCart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeGuestCart(w http.ResponseWriter, guestID string, rec guestcart.Record) {
	utils.WriteJSON(w, http.StatusOK, guestCartResponse{
		GuestID:      guestID,
		Items:        rec.Items,
		LastModified: rec.LastModified,
	})
}
