package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

const promptKeyPrefix = "reply_prompt_"

// ReplyVariants are the persisted prompt template keys, in render order.
var ReplyVariants = []string{"quick", "follow_up", "recap"}

// PromptRepository stores the reply prompt templates as app_settings rows
// keyed reply_prompt_<variant>.
type PromptRepository struct {
	db *pgxpool.Pool
}

func NewPromptRepository(db *pgxpool.Pool) *PromptRepository {
	return &PromptRepository{db: db}
}

// GetReplyPrompts returns one template per variant. Missing rows come back
// as empty strings so callers always see the full variant set.
func (r *PromptRepository) GetReplyPrompts(ctx context.Context) (map[string]string, error) {
	prompts := make(map[string]string, len(ReplyVariants))
	for _, v := range ReplyVariants {
		prompts[v] = ""
	}

	rows, err := r.db.Query(ctx, `SELECT key, value FROM app_settings WHERE key LIKE $1`, promptKeyPrefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		variant := strings.TrimPrefix(key, promptKeyPrefix)
		if _, known := prompts[variant]; known {
			prompts[variant] = value
		}
	}
	return prompts, rows.Err()
}

// UpdateReplyPrompts upserts templates for known variants. Unknown keys are
// ignored.
func (r *PromptRepository) UpdateReplyPrompts(ctx context.Context, prompts map[string]string) error {
	for _, variant := range ReplyVariants {
		value, ok := prompts[variant]
		if !ok {
			continue
		}
		if err := r.upsert(ctx, promptKeyPrefix+variant, value); err != nil {
			return err
		}
	}
	return nil
}

// SeedDefaults inserts default templates for variants that have no row yet.
// Runs once at startup; existing values are never overwritten.
func (r *PromptRepository) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	for _, variant := range ReplyVariants {
		value, ok := defaults[variant]
		if !ok {
			continue
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO app_settings (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
			promptKeyPrefix+variant, value,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *PromptRepository) upsert(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO app_settings (key, value) VALUES ($1, $2)
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
    `, key, value)
	return err
}
