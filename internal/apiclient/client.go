// Package apiclient is the shared HTTP transport to the remote commerce API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storefront-core/internal/apierr"
	"storefront-core/internal/logger"

	"go.uber.org/zap"
)

// TokenSource supplies the bearer token of the current session and is told
// when the remote API no longer accepts it.
type TokenSource interface {
	Token() (string, bool)
	Downgrade()
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		logger.L().Warn("remote API base URL is empty")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// errorBody is the structured error every remote endpoint answers with.
type errorBody struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// Request describes one call. A nil Auth marks a public endpoint.
type Request struct {
	Op     string
	Method string
	Path   string
	Body   any
	Auth   TokenSource
}

// Do sends req and decodes a 2xx body into out (when out is non-nil). Every
// failure is an *apierr.Error; nothing is retried.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "apiclient"),
		zap.String("op", req.Op),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
	)

	var token string
	if req.Auth != nil {
		t, ok := req.Auth.Token()
		if !ok {
			log.Debug("no authenticated session, skipping request")
			return apierr.New(apierr.KindUnauthenticated, req.Op, "")
		}
		token = t
	}

	var body io.Reader
	if req.Body != nil {
		jsonBody, err := json.Marshal(req.Body)
		if err != nil {
			log.Error("failed to marshal request", zap.Error(err))
			return apierr.Wrap(apierr.KindFailure, req.Op, err)
		}
		body = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		log.Error("failed creating request", zap.Error(err))
		return apierr.Wrap(apierr.KindFailure, req.Op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := logger.RequestIDFrom(ctx); reqID != "" {
		httpReq.Header.Set("X-Request-ID", reqID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		log.Warn("remote request failed", zap.Error(err))
		return apierr.Wrap(apierr.KindNetwork, req.Op, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("failed to read response body", zap.Error(err))
		return apierr.Wrap(apierr.KindNetwork, req.Op, fmt.Errorf("read response: %w", err))
	}

	log = log.With(
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := classify(req.Op, resp.StatusCode, bodyBytes)
		if apiErr.Kind == apierr.KindUnauthenticated && req.Auth != nil {
			req.Auth.Downgrade()
		}
		log.Info("remote API returned error",
			zap.String("kind", string(apiErr.Kind)),
			zap.String("code", apiErr.Code),
		)
		return apiErr
	}

	log.Debug("remote request succeeded")

	if out == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		log.Error("failed decoding response", zap.Error(err))
		return apierr.Wrap(apierr.KindFailure, req.Op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// classify turns a non-2xx response into a typed error using the status and
// the structured "code" field only.
func classify(op string, status int, body []byte) *apierr.Error {
	var eb errorBody
	if len(body) > 0 {
		_ = json.Unmarshal(body, &eb)
	}

	e := &apierr.Error{
		Kind:    apierr.KindFailure,
		Op:      op,
		Status:  status,
		Code:    eb.Code,
		Message: eb.Message,
	}

	switch {
	case status == http.StatusUnauthorized || eb.Code == apierr.CodeUnauthenticated:
		e.Kind = apierr.KindUnauthenticated
	case eb.Code == apierr.CodeMerchantConflict:
		e.Kind = apierr.KindMerchantConflict
		var mc apierr.MerchantConflict
		if len(eb.Details) > 0 && json.Unmarshal(eb.Details, &mc) == nil {
			e.Conflict = &mc
		} else {
			e.Conflict = &apierr.MerchantConflict{}
		}
	case eb.Code == apierr.CodeInvalidTransition || eb.Code == apierr.CodeOrderTerminal:
		e.Kind = apierr.KindInvalidTransition
	case status == http.StatusNotFound || eb.Code == apierr.CodeNotFound:
		e.Kind = apierr.KindNotFound
	}

	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}
