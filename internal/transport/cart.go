package transport

import (
	"net/http"

	"storefront-core/internal/cart"
	"storefront-core/internal/utils"
)

type quantityBody struct {
	Quantity int `json:"quantity"`
}

type discountBody struct {
	Code string `json:"code"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	c, err := SessionFrom(r.Context()).Cart.Get(r.Context())
	writeCart(w, r, "getCart", c, err)
}

// addCartItem answers 409 with the conflict details when the product belongs
// to another merchant; the UI then offers replaceCart.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var body itemBody
	if err := utils.DecodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	c, err := SessionFrom(r.Context()).Cart.AddItem(r.Context(), body.ProductID, body.Quantity)
	writeCart(w, r, "addCartItem", c, err)
}

func (h *Handler) replaceCart(w http.ResponseWriter, r *http.Request) {
	var body itemBody
	if err := utils.DecodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	c, err := SessionFrom(r.Context()).Cart.ClearAndAdd(r.Context(), body.ProductID, body.Quantity)
	writeCart(w, r, "replaceCart", c, err)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var body quantityBody
	if err := utils.DecodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	c, err := SessionFrom(r.Context()).Cart.UpdateQuantity(r.Context(), r.PathValue("productId"), body.Quantity)
	writeCart(w, r, "updateCartItem", c, err)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	c, err := SessionFrom(r.Context()).Cart.RemoveItem(r.Context(), r.PathValue("productId"))
	writeCart(w, r, "removeCartItem", c, err)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	c, err := SessionFrom(r.Context()).Cart.Clear(r.Context())
	writeCart(w, r, "clearCart", c, err)
}

func (h *Handler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	var body discountBody
	if err := utils.DecodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	c, err := SessionFrom(r.Context()).Cart.ApplyDiscount(r.Context(), body.Code)
	writeCart(w, r, "applyDiscount", c, err)
}

func (h *Handler) removeDiscount(w http.ResponseWriter, r *http.Request) {
	c, err := SessionFrom(r.Context()).Cart.RemoveDiscount(r.Context())
	writeCart(w, r, "removeDiscount", c, err)
}

func writeCart(w http.ResponseWriter, r *http.Request, method string, c *cart.Cart, err error) {
	if err != nil {
		writeErr(w, r, method, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, c)
}
