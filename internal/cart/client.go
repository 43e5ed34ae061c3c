package cart

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"storefront-core/internal/apiclient"
	"storefront-core/internal/apierr"
	"storefront-core/internal/logger"

	"go.uber.org/zap"
)

// Doer is the transport the client sends its requests through.
type Doer interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Service is the authenticated cart of one session. Every successful call
// returns the server cart, which replaces whatever the caller held before.
type Service interface {
	Get(ctx context.Context) (*Cart, error)
	AddItem(ctx context.Context, productID string, quantity int) (*Cart, error)
	ClearAndAdd(ctx context.Context, productID string, quantity int) (*Cart, error)
	UpdateQuantity(ctx context.Context, productID string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, productID string) (*Cart, error)
	Clear(ctx context.Context) (*Cart, error)
	ApplyDiscount(ctx context.Context, code string) (*Cart, error)
	RemoveDiscount(ctx context.Context) (*Cart, error)
	Merge(ctx context.Context, items []MergeItem) (*Cart, error)
}

type MergeItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type client struct {
	api  Doer
	auth apiclient.TokenSource
}

func NewClient(api Doer, auth apiclient.TokenSource) Service {
	return &client{api: api, auth: auth}
}

type itemRequest struct {
	ProductID string `json:"productId,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (c *client) Get(ctx context.Context) (*Cart, error) {
	return c.call(ctx, "cart.Get", http.MethodGet, "/cart", nil)
}

func (c *client) AddItem(ctx context.Context, productID string, quantity int) (*Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, invalid("cart.AddItem", ErrMissingProductID)
	}
	if quantity < 1 {
		return nil, invalid("cart.AddItem", ErrInvalidQuantity)
	}

	out, err := c.call(ctx, "cart.AddItem", http.MethodPost, "/cart/items", itemRequest{
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		if conflict, ok := apierr.ConflictOf(err); ok {
			// The server may omit what we already know about the request.
			if conflict.ProductID == "" {
				conflict.ProductID = productID
			}
			if conflict.Quantity == 0 {
				conflict.Quantity = quantity
			}
			logger.FromCtx(ctx).Info("cart add rejected by merchant conflict",
				zap.String("product_id", productID),
				zap.String("current_merchant_id", conflict.CurrentMerchantID),
			)
		}
		return nil, err
	}
	return out, nil
}

// ClearAndAdd is the explicit "clear cart and retry" path offered after a
// merchant conflict. It is never taken implicitly.
func (c *client) ClearAndAdd(ctx context.Context, productID string, quantity int) (*Cart, error) {
	if _, err := c.Clear(ctx); err != nil {
		return nil, err
	}
	return c.AddItem(ctx, productID, quantity)
}

func (c *client) UpdateQuantity(ctx context.Context, productID string, quantity int) (*Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, invalid("cart.UpdateQuantity", ErrMissingProductID)
	}
	if quantity < 1 {
		return nil, invalid("cart.UpdateQuantity", ErrInvalidQuantity)
	}
	return c.call(ctx, "cart.UpdateQuantity", http.MethodPatch, "/cart/items/"+url.PathEscape(productID), itemRequest{
		Quantity: quantity,
	})
}

func (c *client) RemoveItem(ctx context.Context, productID string) (*Cart, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, invalid("cart.RemoveItem", ErrMissingProductID)
	}
	return c.call(ctx, "cart.RemoveItem", http.MethodDelete, "/cart/items/"+url.PathEscape(productID), nil)
}

func (c *client) Clear(ctx context.Context) (*Cart, error) {
	return c.call(ctx, "cart.Clear", http.MethodDelete, "/cart", nil)
}

func (c *client) ApplyDiscount(ctx context.Context, code string) (*Cart, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, invalid("cart.ApplyDiscount", ErrMissingCode)
	}
	return c.call(ctx, "cart.ApplyDiscount", http.MethodPost, "/cart/discount", map[string]string{"code": code})
}

func (c *client) RemoveDiscount(ctx context.Context) (*Cart, error) {
	return c.call(ctx, "cart.RemoveDiscount", http.MethodDelete, "/cart/discount", nil)
}

// Merge sends a batch of items in one request; the server applies the same
// single-merchant rule to each of them.
func (c *client) Merge(ctx context.Context, items []MergeItem) (*Cart, error) {
	for _, it := range items {
		if strings.TrimSpace(it.ProductID) == "" {
			return nil, invalid("cart.Merge", ErrMissingProductID)
		}
		if it.Quantity < 1 {
			return nil, invalid("cart.Merge", ErrInvalidQuantity)
		}
	}
	return c.call(ctx, "cart.Merge", http.MethodPost, "/cart/merge", map[string]any{"items": items})
}

func (c *client) call(ctx context.Context, op, method, path string, body any) (*Cart, error) {
	var out Cart
	if err := c.api.Do(ctx, apiclient.Request{
		Op:     op,
		Method: method,
		Path:   path,
		Body:   body,
		Auth:   c.auth,
	}, &out); err != nil {
		return nil, err
	}

	if err := out.Validate(); err != nil {
		logger.FromCtx(ctx).Error("server returned inconsistent cart",
			zap.String("layer", "cart"),
			zap.String("op", op),
			zap.Error(err),
		)
		return nil, apierr.Wrap(apierr.KindFailure, op, err)
	}
	if out.LineItems == nil {
		out.LineItems = []LineItem{}
	}
	return &out, nil
}

func invalid(op string, err error) error {
	return apierr.Wrap(apierr.KindFailure, op, err)
}
