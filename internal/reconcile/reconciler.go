// Package reconcile drains a guest cart into the authenticated server cart
// once per login.
package reconcile

import (
	"context"
	"errors"

	"storefront-core/internal/apierr"
	"storefront-core/internal/cart"
	"storefront-core/internal/guestcart"
	"storefront-core/internal/logger"
	"storefront-core/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// GuestStore is the part of the guest cart store the reconciler needs.
type GuestStore interface {
	Get(ctx context.Context, guestID string) guestcart.Record
	Clear(ctx context.Context, guestID string) error
}

type Reconciler struct {
	store   GuestStore
	metrics *metrics.Registry
	group   singleflight.Group
}

func New(store GuestStore, m *metrics.Registry) *Reconciler {
	if m == nil {
		m = &metrics.Registry{}
	}
	return &Reconciler{store: store, metrics: m}
}

// Run merges the guest cart of guestID into carts. Concurrent calls for the
// same guest id share one pass; a call after a finished pass finds the store
// empty and reports StatusNoop.
//
// The guest cart is cleared only when the pass ran through every item. An
// Unauthenticated answer or a cancelled ctx aborts the pass and leaves the
// guest cart for the next login; items already merged stay merged.
func (r *Reconciler) Run(ctx context.Context, guestID string, carts cart.Service) (*Report, error) {
	v, err, shared := r.group.Do(guestID, func() (any, error) {
		return r.run(ctx, guestID, carts)
	})
	if shared {
		logger.FromCtx(ctx).Debug("joined in-flight reconciliation",
			zap.String("layer", "reconcile"),
			zap.String("guest_id", guestID),
		)
	}
	report, _ := v.(*Report)
	return report, err
}

func (r *Reconciler) run(ctx context.Context, guestID string, carts cart.Service) (*Report, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "reconcile"),
		zap.String("method", "Run"),
		zap.String("guest_id", guestID),
	)
	timer := metrics.StartTimer()
	defer func() { r.metrics.ObserveReconcile(timer.Duration()) }()

	report := &Report{GuestID: guestID, Merged: []guestcart.Item{}, Dropped: []Dropped{}}

	rec := r.store.Get(ctx, guestID)
	if rec.IsEmpty() {
		report.settle()
		return report, nil
	}
	r.metrics.ReconcileRuns.Inc()

	// Sequential on purpose: the first merchant to land wins the cart.
	for _, item := range rec.Items {
		if err := ctx.Err(); err != nil {
			return r.abort(log, report, apierr.Wrap(apierr.KindFailure, "reconcile.Run", err))
		}

		c, err := carts.AddItem(ctx, item.ProductID, item.Quantity)
		if err == nil {
			report.Merged = append(report.Merged, item)
			report.Cart = c
			continue
		}

		kind := apierr.KindOf(err)
		if kind == apierr.KindUnauthenticated || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return r.abort(log, report, err)
		}

		d := Dropped{ProductID: item.ProductID, Quantity: item.Quantity, Kind: kind, Err: err}
		if conflict, ok := apierr.ConflictOf(err); ok {
			d.Conflict = conflict
		}
		report.Dropped = append(report.Dropped, d)
		log.Info("guest item not merged",
			zap.String("product_id", item.ProductID),
			zap.String("kind", string(kind)),
		)
	}

	if err := r.store.Clear(ctx, guestID); err != nil {
		report.settle()
		log.Error("guest cart merged but not cleared", zap.Error(err))
		return report, err
	}
	report.Cleared = true

	if report.Cart == nil {
		if c, err := carts.Get(ctx); err == nil {
			report.Cart = c
		} else {
			log.Warn("could not load server cart after reconciliation", zap.Error(err))
		}
	}

	report.settle()
	r.metrics.ReconcileMerged.Add(uint64(len(report.Merged)))
	r.metrics.ReconcileDropped.Add(uint64(len(report.Dropped)))

	log.Info("reconciliation finished",
		zap.String("status", string(report.Status)),
		zap.Int("merged", len(report.Merged)),
		zap.Int("dropped", len(report.Dropped)),
	)
	return report, nil
}

func (r *Reconciler) abort(log *zap.Logger, report *Report, err error) (*Report, error) {
	r.metrics.ReconcileAborted.Inc()
	report.Status = StatusFailed
	log.Warn("reconciliation aborted, guest cart kept",
		zap.Int("merged", len(report.Merged)),
		zap.Error(err),
	)
	return report, err
}
