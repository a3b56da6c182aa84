package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// ErrNotFound is returned when no identity matches the lookup.
var ErrNotFound = errors.New("identity not found")

// ErrPhoneTaken is returned when registering a phone number that already
// has an identity.
var ErrPhoneTaken = errors.New("phone already registered")

// Repository defines persistence operations for identities.
type Repository interface {
	FindByPhone(ctx context.Context, phone string) (*Identity, error)
	Create(ctx context.Context, ident *Identity) error
}

type repository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRepository creates a new SQL-backed identity repository.
func NewRepository(db *sql.DB, log *slog.Logger) Repository {
	return &repository{
		db:  db,
		log: log,
	}
}

// FindByPhone retrieves an identity by its registered phone number.
func (r *repository) FindByPhone(ctx context.Context, phone string) (*Identity, error) {
	const query = `
		SELECT id, name, phone, email, card_last4, pin_hash, created_at
		FROM identities
		WHERE phone = $1
	`

	row := r.db.QueryRowContext(ctx, query, phone)

	var ident Identity
	if err := row.Scan(
		&ident.ID,
		&ident.Name,
		&ident.Phone,
		&ident.Email,
		&ident.CardLast4,
		&ident.PINHash,
		&ident.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch identity by phone", slog.String("phone", phone), slog.Any("error", err))
		}
		return nil, fmt.Errorf("select identity by phone: %w", err)
	}

	return &ident, nil
}

// Create persists a new identity record in the database.
func (r *repository) Create(ctx context.Context, ident *Identity) error {
	const query = `
		INSERT INTO identities (name, phone, email, card_last4, pin_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		ident.Name,
		ident.Phone,
		ident.Email,
		ident.CardLast4,
		ident.PINHash,
		ident.CreatedAt,
	).Scan(&ident.ID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrPhoneTaken
		}

		if r.log != nil {
			r.log.Error("failed to create identity", slog.String("phone", ident.Phone), slog.Any("error", err))
		}
		return fmt.Errorf("insert identity: %w", err)
	}

	return nil
}
