package order

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"storefront-core/internal/apiclient"
	"storefront-core/internal/apierr"
	"storefront-core/internal/session"
)

// Doer is the transport the client sends its requests through.
type Doer interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

// Caller is the session a request is made on behalf of.
type Caller interface {
	apiclient.TokenSource
	Role() session.Role
}

type Client interface {
	CreateFromCart(ctx context.Context, caller Caller) (*Order, error)
	Get(ctx context.Context, caller Caller, orderID string) (*Order, error)
	GetPublicTracking(ctx context.Context, orderID string) (*Order, error)
	ListMine(ctx context.Context, caller Caller) (*Page, error)
	ListAll(ctx context.Context, caller Caller, status Status) (*Page, error)
	UpdateStatus(ctx context.Context, caller Caller, orderID string, to Status) (*Order, error)
	Cancel(ctx context.Context, caller Caller, orderID string) (*Order, error)
}

type client struct {
	api Doer
}

func NewClient(api Doer) Client {
	return &client{api: api}
}

func (c *client) CreateFromCart(ctx context.Context, caller Caller) (*Order, error) {
	var out Order
	if err := c.api.Do(ctx, apiclient.Request{
		Op:     "order.CreateFromCart",
		Method: http.MethodPost,
		Path:   "/orders",
		Auth:   caller,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get reads the order through the endpoint of the caller's role.
func (c *client) Get(ctx context.Context, caller Caller, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apierr.Wrap(apierr.KindFailure, "order.Get", ErrMissingOrderID)
	}

	path := "/orders/" + url.PathEscape(orderID)
	switch caller.Role() {
	case session.RoleStoreOwner:
		path = "/store" + path
	case session.RoleAdmin:
		path = "/admin" + path
	}

	var out Order
	if err := c.api.Do(ctx, apiclient.Request{
		Op:     "order.Get",
		Method: http.MethodGet,
		Path:   path,
		Auth:   caller,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPublicTracking needs no session; it answers with status data only.
func (c *client) GetPublicTracking(ctx context.Context, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apierr.Wrap(apierr.KindFailure, "order.GetPublicTracking", ErrMissingOrderID)
	}

	var out Order
	if err := c.api.Do(ctx, apiclient.Request{
		Op:     "order.GetPublicTracking",
		Method: http.MethodGet,
		Path:   "/orders/" + url.PathEscape(orderID) + "/tracking",
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) ListMine(ctx context.Context, caller Caller) (*Page, error) {
	return c.list(ctx, "order.ListMine", "/orders/mine", caller)
}

func (c *client) ListAll(ctx context.Context, caller Caller, status Status) (*Page, error) {
	path := "/admin/orders"
	if status != "" {
		if !status.Valid() {
			return nil, apierr.Wrap(apierr.KindFailure, "order.ListAll", ErrUnknownStatus)
		}
		path += "?status=" + url.QueryEscape(string(status))
	}
	return c.list(ctx, "order.ListAll", path, caller)
}

func (c *client) list(ctx context.Context, op, path string, caller Caller) (*Page, error) {
	var out Page
	if err := c.api.Do(ctx, apiclient.Request{
		Op:     op,
		Method: http.MethodGet,
		Path:   path,
		Auth:   caller,
	}, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []Order{}
	}
	return &out, nil
}

// UpdateStatus sends the transition through the caller's role endpoint.
// Customers may only cancel.
func (c *client) UpdateStatus(ctx context.Context, caller Caller, orderID string, to Status) (*Order, error) {
	const op = "order.UpdateStatus"
	if strings.TrimSpace(orderID) == "" {
		return nil, apierr.Wrap(apierr.KindFailure, op, ErrMissingOrderID)
	}
	if !to.Valid() {
		return nil, apierr.Wrap(apierr.KindInvalidTransition, op, ErrUnknownStatus)
	}

	var prefix string
	switch caller.Role() {
	case session.RoleStoreOwner:
		prefix = "/store"
	case session.RoleAdmin:
		prefix = "/admin"
	default:
		if to != StatusCancelled {
			return nil, apierr.Wrap(apierr.KindInvalidTransition, op, ErrRoleNotAllowed)
		}
		return c.Cancel(ctx, caller, orderID)
	}

	var out Order
	if err := c.api.Do(ctx, apiclient.Request{
		Op:     op,
		Method: http.MethodPatch,
		Path:   prefix + "/orders/" + url.PathEscape(orderID) + "/status",
		Body:   map[string]Status{"status": to},
		Auth:   caller,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) Cancel(ctx context.Context, caller Caller, orderID string) (*Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, apierr.Wrap(apierr.KindFailure, "order.Cancel", ErrMissingOrderID)
	}

	var out Order
	if err := c.api.Do(ctx, apiclient.Request{
		Op:     "order.Cancel",
		Method: http.MethodPost,
		Path:   "/orders/" + url.PathEscape(orderID) + "/cancel",
		Auth:   caller,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
