// Package guestcart keeps the anonymous cart of a device until its owner
// logs in and the reconciler drains it into the server cart.
package guestcart

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront-core/internal/logger"

	"go.uber.org/zap"
)

// Store is a read-modify-write view over a Repository. Writes are
// last-write-wins: two concurrent writers for the same guest id race and the
// later Save persists.
type Store struct {
	repo Repository
	now  func() time.Time
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// Get never fails. Missing, unreadable or corrupted records read as empty.
func (s *Store) Get(ctx context.Context, guestID string) Record {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "guestcart"),
		zap.String("method", "Get"),
	)

	if strings.TrimSpace(guestID) == "" {
		return Record{Items: []Item{}}
	}

	version, payload, modified, err := s.repo.Load(ctx, guestID)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			log.Warn("guest cart unreadable, treating as empty", zap.Error(err))
		}
		return Record{Items: []Item{}}
	}

	rec, err := decode(version, payload, modified)
	if err != nil {
		log.Warn("guest cart discarded", zap.String("version", version), zap.Error(err))
		return Record{Items: []Item{}}
	}
	if rec.Items == nil {
		rec.Items = []Item{}
	}
	return rec
}

func (s *Store) Add(ctx context.Context, guestID, productID string, quantity int) (Record, error) {
	if strings.TrimSpace(guestID) == "" {
		return Record{}, ErrMissingGuestID
	}
	if strings.TrimSpace(productID) == "" {
		return Record{}, ErrMissingProductID
	}
	if quantity < 1 {
		return Record{}, ErrInvalidQuantity
	}

	rec := s.Get(ctx, guestID)
	found := false
	for i := range rec.Items {
		if rec.Items[i].ProductID == productID {
			rec.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		rec.Items = append(rec.Items, Item{ProductID: productID, Quantity: quantity})
	}

	return s.save(ctx, guestID, rec, "Add")
}

// Remove drops productID from the record; removing an absent product is a no-op.
func (s *Store) Remove(ctx context.Context, guestID, productID string) (Record, error) {
	if strings.TrimSpace(guestID) == "" {
		return Record{}, ErrMissingGuestID
	}

	rec := s.Get(ctx, guestID)
	kept := make([]Item, 0, len(rec.Items))
	for _, it := range rec.Items {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(rec.Items) {
		return rec, nil
	}
	rec.Items = kept

	return s.save(ctx, guestID, rec, "Remove")
}

func (s *Store) Clear(ctx context.Context, guestID string) error {
	if strings.TrimSpace(guestID) == "" {
		return ErrMissingGuestID
	}
	if err := s.repo.Delete(ctx, guestID); err != nil {
		logger.FromCtx(ctx).Error("failed to clear guest cart",
			zap.String("layer", "guestcart"),
			zap.String("method", "Clear"),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Store) save(ctx context.Context, guestID string, rec Record, method string) (Record, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "guestcart"),
		zap.String("method", method),
	)

	rec.LastModified = s.now().UTC()
	payload, err := encode(rec)
	if err != nil {
		log.Error("failed to encode guest cart", zap.Error(err))
		return Record{}, err
	}
	if err := s.repo.Save(ctx, guestID, FormatVersion, payload, rec.LastModified); err != nil {
		log.Error("failed to save guest cart", zap.Error(err))
		return Record{}, err
	}

	log.Debug("guest cart saved", zap.Int("items", len(rec.Items)))
	return rec, nil
}
