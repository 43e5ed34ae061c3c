package guestcart

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository stores raw versioned payloads. Decoding and defaults belong to
// the Store.
type Repository interface {
	Load(ctx context.Context, guestID string) (version string, payload []byte, modified time.Time, err error)
	Save(ctx context.Context, guestID, version string, payload []byte, modified time.Time) error
	Delete(ctx context.Context, guestID string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Load(ctx context.Context, guestID string) (string, []byte, time.Time, error) {
	var (
		version  string
		payload  []byte
		modified time.Time
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT version, payload, last_modified
		FROM guest_carts
		WHERE guest_id = $1
	`, guestID).Scan(&version, &payload, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, time.Time{}, ErrRecordNotFound
	}
	if err != nil {
		return "", nil, time.Time{}, err
	}
	return version, payload, modified, nil
}

func (r *repository) Save(ctx context.Context, guestID, version string, payload []byte, modified time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO guest_carts (guest_id, version, payload, last_modified)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (guest_id) DO UPDATE
		SET version = EXCLUDED.version,
		    payload = EXCLUDED.payload,
		    last_modified = EXCLUDED.last_modified
	`, guestID, version, payload, modified)
	return err
}

func (r *repository) Delete(ctx context.Context, guestID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM guest_carts WHERE guest_id = $1`, guestID)
	return err
}
