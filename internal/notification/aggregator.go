// Package notification keeps one deduplicated, newest-first feed per user
// from the push channel and the periodic pull snapshot.
package notification

import (
	"context"
	"sync"
	"time"

	"storefront-core/internal/logger"
	"storefront-core/internal/optimistic"

	"go.uber.org/zap"
)

type mutation int

const (
	markRead mutation = iota + 1
	remove
)

type overlay struct {
	kind  mutation
	seq   uint64
	state optimistic.Value[bool]
}

type pushed struct {
	n          Notification
	receivedAt time.Time
}

// Aggregator is safe for concurrent use by the poller, the push listener and
// request handlers.
type Aggregator struct {
	client Client
	now    func() time.Time

	mu       sync.Mutex
	pull     map[string]Notification
	push     map[string]pushed
	overlays map[string]overlay
	seq      uint64
	hooks    []func(Notification)
}

func NewAggregator(client Client) *Aggregator {
	return &Aggregator{
		client:   client,
		now:      time.Now,
		pull:     make(map[string]Notification),
		push:     make(map[string]pushed),
		overlays: make(map[string]overlay),
	}
}

// OnPush registers fn to run for every pushed notification.
func (a *Aggregator) OnPush(fn func(Notification)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hooks = append(a.hooks, fn)
}

// Push records a notification from the push channel.
func (a *Aggregator) Push(n Notification) {
	if n.ID == "" {
		return
	}

	a.mu.Lock()
	a.push[n.ID] = pushed{n: n, receivedAt: a.now()}
	hooks := append([]func(Notification){}, a.hooks...)
	a.mu.Unlock()

	for _, fn := range hooks {
		fn(n)
	}
}

// ApplySnapshot replaces the pull view with items, fetched at fetchedAt
// (the time the request was sent). Pushed items and settled local changes
// that the snapshot already reflects give way to it.
func (a *Aggregator) ApplySnapshot(items []Notification, fetchedAt time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pull = make(map[string]Notification, len(items))
	for _, n := range items {
		a.pull[n.ID] = n
	}

	for id, p := range a.push {
		if !fetchedAt.Before(p.receivedAt) {
			delete(a.push, id)
		}
	}
	for id, o := range a.overlays {
		if o.state.SupersededBy(fetchedAt) {
			delete(a.overlays, id)
		}
	}
}

// Feed is the merged view with local changes applied.
func (a *Aggregator) Feed() []Notification {
	a.mu.Lock()
	defer a.mu.Unlock()

	push := make([]Notification, 0, len(a.push))
	for _, p := range a.push {
		push = append(push, p.n)
	}
	pull := make([]Notification, 0, len(a.pull))
	for _, n := range a.pull {
		pull = append(pull, n)
	}

	merged := Merge(push, pull)
	out := merged[:0]
	for _, n := range merged {
		if o, ok := a.overlays[n.ID]; ok {
			if o.kind == remove {
				continue
			}
			n.Read = true
		}
		out = append(out, n)
	}
	return out
}

func (a *Aggregator) UnreadCount() int {
	return UnreadCount(a.Feed())
}

// MarkAsRead flips id to read locally, then tells the server. A failed
// request leaves the local flag until the next snapshot corrects it.
func (a *Aggregator) MarkAsRead(ctx context.Context, id string) error {
	return a.mutate(ctx, "MarkAsRead", markRead, []string{id}, func(ctx context.Context) error {
		return a.client.MarkAsRead(ctx, id)
	})
}

func (a *Aggregator) MarkAllAsRead(ctx context.Context) error {
	return a.mutate(ctx, "MarkAllAsRead", markRead, a.knownIDs(), a.client.MarkAllAsRead)
}

func (a *Aggregator) Delete(ctx context.Context, id string) error {
	return a.mutate(ctx, "Delete", remove, []string{id}, func(ctx context.Context) error {
		return a.client.Delete(ctx, id)
	})
}

func (a *Aggregator) DeleteAll(ctx context.Context) error {
	return a.mutate(ctx, "DeleteAll", remove, a.knownIDs(), a.client.DeleteAll)
}

func (a *Aggregator) knownIDs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	ids := make([]string, 0, len(a.pull)+len(a.push))
	for id := range a.pull {
		ids = append(ids, id)
	}
	for id := range a.push {
		if _, dup := a.pull[id]; !dup {
			ids = append(ids, id)
		}
	}
	return ids
}

func (a *Aggregator) mutate(ctx context.Context, method string, kind mutation, ids []string, call func(context.Context) error) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "notification"),
		zap.String("method", method),
	)

	a.mu.Lock()
	a.seq++
	seq := a.seq
	started := optimistic.Start(true, a.now())
	for _, id := range ids {
		if prev, ok := a.overlays[id]; ok && prev.kind == remove && kind == markRead {
			// Already hidden; reading it changes nothing.
			continue
		}
		a.overlays[id] = overlay{kind: kind, seq: seq, state: started}
	}
	a.mu.Unlock()

	err := call(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	at := a.now()
	for _, id := range ids {
		o, ok := a.overlays[id]
		// A later change to the same id owns the overlay now.
		if !ok || o.seq != seq {
			continue
		}
		if err != nil {
			o.state = o.state.Fail(err, at)
		} else {
			o.state = o.state.Commit(at)
			if kind == remove {
				delete(a.push, id)
				delete(a.pull, id)
			}
		}
		a.overlays[id] = o
	}

	if err != nil {
		log.Warn("notification change not confirmed, keeping local state until next snapshot",
			zap.Int("items", len(ids)),
			zap.Error(err),
		)
		return err
	}
	log.Debug("notification change confirmed", zap.Int("items", len(ids)))
	return nil
}
