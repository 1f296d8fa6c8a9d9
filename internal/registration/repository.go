package registration

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ibgp-events/backend/internal/cpf"
	"github.com/ibgp-events/backend/internal/models"
)

// Repository persists registrations in PostgreSQL, one participants row per
// person under a single registrations row.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registration repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the registration and its participants in one transaction.
// A retried idempotency token inserts nothing.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertReg = `INSERT INTO registrations (id, idempotency_token, payment_method, total, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (idempotency_token) DO NOTHING`
	tag, err := tx.Exec(ctx, insertReg, reg.ID, reg.IdempotencyToken, reg.PaymentMethod, reg.Total, reg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Duplicate attempt; the original rows already exist.
		return tx.Commit(ctx)
	}

	// tax_id is stored in bare-digit form so existence lookups are
	// insensitive to input masking.
	const insertPart = `INSERT INTO participants (id, registration_id, position, name, phone, ticket_type, value, tax_id)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, NULLIF($7, ''))`
	for i, p := range reg.Participants {
		if _, err := tx.Exec(ctx, insertPart, reg.ID, i, p.Name, p.Phone, p.TicketType, p.Value, cpf.Digits(p.TaxID)); err != nil {
			return fmt.Errorf("insert participant %d: %w", i, err)
		}
	}
	return tx.Commit(ctx)
}

// ExistsByTaxID reports whether any participant was registered with the CPF.
// The lookup is insensitive to input masking.
func (r *Repository) ExistsByTaxID(ctx context.Context, taxID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM participants WHERE tax_id = $1)`
	var exists bool
	if err := r.pool.QueryRow(ctx, q, cpf.Digits(taxID)).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
