package order

import (
	"context"
	"strings"
	"sync"
	"time"

	"storefront-core/internal/apierr"
	"storefront-core/internal/logger"
	"storefront-core/internal/metrics"
	"storefront-core/internal/optimistic"
	"storefront-core/internal/session"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

// viewerPublic keys the unauthenticated tracking view.
const viewerPublic = "public"

var viewers = []string{
	string(session.RoleCustomer),
	string(session.RoleStoreOwner),
	string(session.RoleAdmin),
	viewerPublic,
}

type viewKey struct {
	viewer  string
	orderID string
}

// PendingTransition is the optimistic marker of a transition this process
// requested. It is dropped by the first authoritative read that follows its
// settlement.
type PendingTransition struct {
	To    Status `json:"to"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// View is what one role sees of one order.
type View struct {
	Order     *Order             `json:"order"`
	Steps     []Step             `json:"steps"`
	Viewer    string             `json:"viewer"`
	FetchedAt time.Time          `json:"fetchedAt"`
	Pending   *PendingTransition `json:"pending,omitempty"`
}

// Tracker serves role-scoped order views from a shared cache. The server is
// the only source of status; the tracker caches what it read and drops every
// role's copy of an order as soon as any role changes it.
type Tracker struct {
	client  Client
	views   *expirable.LRU[viewKey, *View]
	metrics *metrics.Registry
	now     func() time.Time

	mu      sync.Mutex
	pending *expirable.LRU[string, optimistic.Value[Status]]
	known   *expirable.LRU[string, Status]
	reads   map[string]*generation
}

// generation counts invalidations of one order while reads of it are in
// flight. A read that saw an older generation must not be cached.
type generation struct {
	n       uint64
	readers int
}

func NewTracker(client Client, size int, ttl time.Duration, m *metrics.Registry) *Tracker {
	if m == nil {
		m = &metrics.Registry{}
	}
	return &Tracker{
		client:  client,
		views:   expirable.NewLRU[viewKey, *View](size, nil, ttl),
		metrics: m,
		now:     time.Now,
		pending: expirable.NewLRU[string, optimistic.Value[Status]](size, nil, ttl),
		known:   expirable.NewLRU[string, Status](size, nil, ttl),
		reads:   make(map[string]*generation),
	}
}

// View returns the caller's view of orderID, fetching it on a cache miss.
func (t *Tracker) View(ctx context.Context, caller Caller, orderID string) (*View, error) {
	key := viewKey{viewer: string(caller.Role()), orderID: orderID}
	return t.read(key, func() (*Order, error) {
		return t.client.Get(ctx, caller, orderID)
	})
}

// Track is the public tracking view; it needs no session.
func (t *Tracker) Track(ctx context.Context, orderID string) (*View, error) {
	key := viewKey{viewer: viewerPublic, orderID: orderID}
	return t.read(key, func() (*Order, error) {
		return t.client.GetPublicTracking(ctx, orderID)
	})
}

func (t *Tracker) read(key viewKey, fetch func() (*Order, error)) (*View, error) {
	if v, ok := t.views.Get(key); ok {
		return t.overlay(v), nil
	}

	g, seen, fetchedAt := t.beginRead(key.orderID)
	o, err := fetch()
	current := t.endRead(key.orderID, g, seen)
	if err != nil {
		return nil, err
	}
	return t.overlay(t.store(key, o, fetchedAt, current)), nil
}

func (t *Tracker) beginRead(orderID string) (*generation, uint64, time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.reads[orderID]
	if !ok {
		g = &generation{}
		t.reads[orderID] = g
	}
	g.readers++
	return g, g.n, t.now()
}

// endRead reports whether orderID went uninvalidated since the read began.
func (t *Tracker) endRead(orderID string, g *generation, seen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	g.readers--
	if g.readers == 0 {
		delete(t.reads, orderID)
	}
	return g.n == seen
}

// RequestTransition asks the server to move orderID to to. A transition out
// of a status the server already reported as terminal, or to a status that
// cannot follow it, is refused without a request. Server refusals come back
// as InvalidTransition and are never retried.
func (t *Tracker) RequestTransition(ctx context.Context, caller Caller, orderID string, to Status) (*View, error) {
	const op = "order.RequestTransition"
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "order"),
		zap.String("method", "RequestTransition"),
		zap.String("order_id", orderID),
		zap.String("to", string(to)),
		zap.String("role", string(caller.Role())),
	)

	if strings.TrimSpace(orderID) == "" {
		return nil, apierr.Wrap(apierr.KindFailure, op, ErrMissingOrderID)
	}
	if !to.Valid() {
		return nil, apierr.Wrap(apierr.KindInvalidTransition, op, ErrUnknownStatus)
	}

	t.mu.Lock()
	if from, ok := t.known.Get(orderID); ok {
		var refusal error
		switch {
		case from.Terminal():
			refusal = ErrTerminalStatus
		case !CanTransition(from, to):
			refusal = ErrUnreachableStatus
		}
		if refusal != nil {
			t.mu.Unlock()
			t.metrics.TransitionsDenied.Inc()
			log.Info("transition refused locally", zap.String("from", string(from)), zap.Error(refusal))
			return nil, apierr.Wrap(apierr.KindInvalidTransition, op, refusal)
		}
	}
	t.pending.Add(orderID, optimistic.Start(to, t.now()))
	t.mu.Unlock()

	o, err := t.client.UpdateStatus(ctx, caller, orderID, to)
	if err != nil {
		t.settle(orderID, func(v optimistic.Value[Status]) optimistic.Value[Status] {
			return v.Fail(err, t.now())
		})
		if apierr.KindOf(err) == apierr.KindInvalidTransition {
			t.metrics.TransitionsDenied.Inc()
			// Our cached status is behind the server's.
			t.Invalidate(orderID)
		}
		log.Warn("transition failed", zap.Error(err))
		return nil, err
	}

	t.settle(orderID, func(v optimistic.Value[Status]) optimistic.Value[Status] {
		return v.Commit(t.now())
	})
	t.metrics.TransitionsOK.Inc()
	t.Invalidate(orderID)

	log.Info("transition accepted", zap.String("status", string(o.Status)))
	key := viewKey{viewer: string(caller.Role()), orderID: orderID}
	return t.overlay(t.store(key, o, t.now(), true)), nil
}

// Invalidate drops every role's cached view of orderID. Reads of orderID
// still in flight will not be cached.
func (t *Tracker) Invalidate(orderID string) {
	t.mu.Lock()
	if g, ok := t.reads[orderID]; ok {
		g.n++
	}
	t.mu.Unlock()

	for _, v := range viewers {
		t.views.Remove(viewKey{viewer: v, orderID: orderID})
	}
}

// Pending returns the optimistic marker of orderID, if any.
func (t *Tracker) Pending(orderID string) (optimistic.Value[Status], bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending.Peek(orderID)
}

func (t *Tracker) settle(orderID string, fn func(optimistic.Value[Status]) optimistic.Value[Status]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v, ok := t.pending.Peek(orderID); ok {
		t.pending.Add(orderID, fn(v))
	}
}

// store builds the view of o read at fetchedAt, caches it when cache is set
// and records its status as the last known one, unless an out-of-order read
// would move the status backwards.
func (t *Tracker) store(key viewKey, o *Order, fetchedAt time.Time, cache bool) *View {
	v := &View{
		Order:     o,
		Steps:     o.Steps(),
		Viewer:    key.viewer,
		FetchedAt: fetchedAt,
	}
	if cache {
		t.views.Add(key, v)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.known.Peek(o.ID); !ok || CanTransition(prev, o.Status) {
		t.known.Add(o.ID, o.Status)
	}
	return v
}

// overlay returns a copy of v carrying the order's optimistic marker while
// it is still newer than the data in v.
func (t *Tracker) overlay(v *View) *View {
	out := *v

	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.pending.Peek(v.Order.ID)
	if !ok {
		return &out
	}
	if p.SupersededBy(v.FetchedAt) {
		t.pending.Remove(v.Order.ID)
		return &out
	}

	out.Pending = &PendingTransition{To: p.Value, State: p.State.String()}
	if p.Err != nil {
		out.Pending.Error = p.Err.Error()
	}
	return &out
}
