package notification

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"storefront-core/internal/apiclient"
	"storefront-core/internal/apierr"
)

// Doer is the transport the client sends its requests through.
type Doer interface {
	Do(ctx context.Context, req apiclient.Request, out any) error
}

type Client interface {
	List(ctx context.Context, page, limit int) (*Page, error)
	MarkAsRead(ctx context.Context, id string) error
	MarkAllAsRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type client struct {
	api  Doer
	auth apiclient.TokenSource
}

func NewClient(api Doer, auth apiclient.TokenSource) Client {
	return &client{api: api, auth: auth}
}

func (c *client) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 || limit < 1 {
		return nil, apierr.Wrap(apierr.KindFailure, "notification.List", ErrInvalidPage)
	}

	var out Page
	if err := c.api.Do(ctx, apiclient.Request{
		Op:     "notification.List",
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/notifications?page=%d&limit=%d", page, limit),
		Auth:   c.auth,
	}, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []Notification{}
	}
	return &out, nil
}

func (c *client) MarkAsRead(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apierr.Wrap(apierr.KindFailure, "notification.MarkAsRead", ErrMissingID)
	}
	return c.send(ctx, "notification.MarkAsRead", http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read")
}

func (c *client) MarkAllAsRead(ctx context.Context) error {
	return c.send(ctx, "notification.MarkAllAsRead", http.MethodPatch, "/notifications/read-all")
}

func (c *client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apierr.Wrap(apierr.KindFailure, "notification.Delete", ErrMissingID)
	}
	return c.send(ctx, "notification.Delete", http.MethodDelete, "/notifications/"+url.PathEscape(id))
}

func (c *client) DeleteAll(ctx context.Context) error {
	return c.send(ctx, "notification.DeleteAll", http.MethodDelete, "/notifications")
}

func (c *client) send(ctx context.Context, op, method, path string) error {
	return c.api.Do(ctx, apiclient.Request{
		Op:     op,
		Method: method,
		Path:   path,
		Auth:   c.auth,
	}, nil)
}
