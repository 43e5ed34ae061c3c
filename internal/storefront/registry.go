// Package storefront owns the lifetime of each signed-in user's components:
// it starts them when a session begins, merges the device's guest cart, and
// stops the background notification sync when the session ends.
package storefront

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront-core/internal/apierr"
	"storefront-core/internal/cart"
	"storefront-core/internal/logger"
	"storefront-core/internal/metrics"
	"storefront-core/internal/notification"
	"storefront-core/internal/order"
	"storefront-core/internal/reconcile"
	"storefront-core/internal/session"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Doer is the shared transport to the remote API.
type Doer interface {
	cart.Doer
}

type Options struct {
	PushURL      string
	PollInterval time.Duration
	PageSize     int
}

// UserSession is everything the edge holds for one signed-in user.
type UserSession struct {
	Session       *session.Session
	Cart          cart.Service
	Notifications *notification.Aggregator
	StartedAt     time.Time

	poller   *notification.Poller
	listener *notification.Listener
	cancel   context.CancelFunc
	done     chan struct{}
}

// Registry maps user ids to their live session. At most one session per user
// exists; starting a new one replaces (and stops) the previous one.
type Registry struct {
	api        Doer
	reconciler *reconcile.Reconciler
	tracker    *order.Tracker
	opts       Options
	metrics    *metrics.Registry
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*UserSession
}

func NewRegistry(api Doer, reconciler *reconcile.Reconciler, tracker *order.Tracker, opts Options, m *metrics.Registry) *Registry {
	if m == nil {
		m = &metrics.Registry{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	return &Registry{
		api:        api,
		reconciler: reconciler,
		tracker:    tracker,
		opts:       opts,
		metrics:    m,
		now:        time.Now,
		sessions:   make(map[string]*UserSession),
	}
}

// Start begins a session for the token's user and, when guestID is set,
// merges that device's guest cart into the user's server cart. The session
// stays registered even when the merge reports dropped items; it is only
// discarded when the remote API refuses the token.
func (r *Registry) Start(ctx context.Context, token string, claims *session.Claims, guestID string) (*UserSession, *reconcile.Report, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "storefront"),
		zap.String("method", "Start"),
	)
	if claims == nil || claims.UserID == "" {
		return nil, nil, apierr.Wrap(apierr.KindUnauthenticated, "storefront.Start", ErrMissingUserID)
	}

	us := r.open(ctx, token, claims)
	log.Info("session started", zap.String("role", string(claims.Role)))

	if guestID == "" {
		return us, nil, nil
	}

	report, err := r.reconciler.Run(ctx, guestID, us.Cart)
	if errors.Is(err, apierr.ErrUnauthenticated) || !us.Session.Authenticated() {
		log.Info("session refused by remote API during cart merge")
		r.End(ctx, claims.UserID)
		return nil, report, apierr.New(apierr.KindUnauthenticated, "storefront.Start", "session expired, sign in again")
	}
	return us, report, err
}

func (r *Registry) open(ctx context.Context, token string, claims *session.Claims) *UserSession {
	r.mu.Lock()
	prev := r.sessions[claims.UserID]
	if prev != nil && prev.Session.Authenticated() {
		if t, _ := prev.Session.Token(); t == token {
			r.mu.Unlock()
			return prev
		}
	}

	sess := session.New(token, claims)
	notifs := notification.NewClient(r.api, sess)
	agg := notification.NewAggregator(notifs)
	if r.tracker != nil {
		agg.OnPush(func(n notification.Notification) {
			if n.Type.OrderRelated() && n.RelatedID != "" {
				r.tracker.Invalidate(n.RelatedID)
			}
		})
	}

	// Background work outlives the request that started it.
	bg, cancel := context.WithCancel(logger.WithUserID(context.WithoutCancel(ctx), claims.UserID))
	us := &UserSession{
		Session:       sess,
		Cart:          cart.NewClient(r.api, sess),
		Notifications: agg,
		StartedAt:     r.now(),
		poller:        notification.NewPoller(agg, notifs, r.opts.PollInterval, r.opts.PageSize, r.metrics),
		listener:      notification.NewListener(r.opts.PushURL, sess, agg.Push, r.metrics),
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	r.sessions[claims.UserID] = us
	r.mu.Unlock()

	if prev != nil {
		prev.stop()
	}
	go us.run(bg)
	return us
}

// run keeps the pull and push paths alive until the session ends or the
// remote API stops accepting it.
func (us *UserSession) run(ctx context.Context) {
	defer close(us.done)
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "storefront"),
		zap.String("method", "run"),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return us.poller.Run(gctx)
	})
	g.Go(func() error {
		if err := us.listener.Run(gctx); !errors.Is(err, notification.ErrPushNotEnabled) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Info("notification sync stopped", zap.Error(err))
	}
}

func (us *UserSession) stop() {
	us.cancel()
	<-us.done
}

// Get returns the live session of userID when it was started with token and
// is still accepted by the remote API.
func (r *Registry) Get(userID, token string) (*UserSession, error) {
	r.mu.Lock()
	us := r.sessions[userID]
	r.mu.Unlock()

	if us == nil || !us.Session.Authenticated() {
		return nil, apierr.Wrap(apierr.KindUnauthenticated, "storefront.Get", ErrSessionNotStarted)
	}
	if t, _ := us.Session.Token(); t != token {
		return nil, apierr.Wrap(apierr.KindUnauthenticated, "storefront.Get", ErrSessionNotStarted)
	}
	return us, nil
}

// End stops userID's session. Ending an unknown session is a no-op.
func (r *Registry) End(ctx context.Context, userID string) {
	r.mu.Lock()
	us := r.sessions[userID]
	delete(r.sessions, userID)
	r.mu.Unlock()

	if us == nil {
		return
	}
	us.Session.Downgrade()
	us.stop()
	logger.FromCtx(ctx).Info("session ended",
		zap.String("layer", "storefront"),
		zap.String("method", "End"),
	)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close ends every session; used on shutdown.
func (r *Registry) Close(ctx context.Context) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.End(ctx, id)
	}
}
