package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessedRepository tracks provider ids already pulled from the mail
// source. The set is append-only and independent of message rows.
type ProcessedRepository struct {
	db *pgxpool.Pool
}

func NewProcessedRepository(db *pgxpool.Pool) *ProcessedRepository {
	return &ProcessedRepository{db: db}
}

// Contains reports whether the id was already pulled.
func (r *ProcessedRepository) Contains(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM processed_messages WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

// Add marks the id as pulled. Re-adding an existing id is a no-op.
func (r *ProcessedRepository) Add(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO processed_messages (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id,
	)
	return err
}
