package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"storefront-core/internal/apiclient"
	"storefront-core/internal/apierr"
	"storefront-core/internal/logger"
	"storefront-core/internal/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const frameNotification = "notification"

// Listener holds the push channel open for one session and hands every
// notification frame to handle. Reconnect attempts are paced by a limiter.
type Listener struct {
	url     string
	auth    apiclient.TokenSource
	handle  func(Notification)
	dialer  *websocket.Dialer
	limiter *rate.Limiter
	metrics *metrics.Registry
}

func NewListener(url string, auth apiclient.TokenSource, handle func(Notification), m *metrics.Registry) *Listener {
	if m == nil {
		m = &metrics.Registry{}
	}
	return &Listener{
		url:    url,
		auth:   auth,
		handle: handle,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		metrics: m,
	}
}

// Run connects and reads until ctx is done. It returns nil on cancellation
// and an Unauthenticated error when the server refuses the session.
func (l *Listener) Run(ctx context.Context) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "notification"),
		zap.String("method", "Listen"),
	)
	if l.url == "" {
		log.Info("push channel disabled, relying on polling")
		return ErrPushNotEnabled
	}

	for {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil
		}

		token, ok := l.auth.Token()
		if !ok {
			return apierr.New(apierr.KindUnauthenticated, "notification.Listen", "")
		}
		header := http.Header{}
		header.Set("Authorization", "Bearer "+token)

		conn, resp, err := l.dialer.DialContext(ctx, l.url, header)
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if resp != nil && resp.StatusCode == http.StatusUnauthorized {
				l.auth.Downgrade()
				return apierr.New(apierr.KindUnauthenticated, "notification.Listen", "push channel refused the session")
			}
			l.metrics.PushReconnects.Inc()
			log.Warn("push channel dial failed", zap.Error(err))
			continue
		}

		log.Debug("push channel connected")
		l.read(ctx, conn, log)
		if ctx.Err() != nil {
			return nil
		}
		l.metrics.PushReconnects.Inc()
		log.Info("push channel dropped, reconnecting")
	}
}

// read consumes frames until the connection fails or ctx is done.
func (l *Listener) read(ctx context.Context, conn *websocket.Conn, log *zap.Logger) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-done:
			conn.Close()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Warn("malformed push frame", zap.Error(err))
			continue
		}
		if f.Type != frameNotification || f.Data.ID == "" {
			continue
		}

		l.metrics.PushReceived.Inc()
		l.handle(f.Data)
	}
}
