package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInvalidCacheKey is returned when a fingerprint component is empty. The
// three-part key approximates "same conversation"; a partial key is too
// unreliable to store or serve anything under.
var ErrInvalidCacheKey = errors.New("reply cache key requires participant, topic and received-at")

// Fingerprint identifies one reusable set of reply drafts.
type Fingerprint struct {
	Participant string
	Topic       string
	ReceivedAt  string
}

// Normalize trims the components. Valid only if all three are non-empty.
func (f Fingerprint) Normalize() (Fingerprint, error) {
	n := Fingerprint{
		Participant: strings.TrimSpace(f.Participant),
		Topic:       strings.TrimSpace(f.Topic),
		ReceivedAt:  strings.TrimSpace(f.ReceivedAt),
	}
	if n.Participant == "" || n.Topic == "" || n.ReceivedAt == "" {
		return Fingerprint{}, ErrInvalidCacheKey
	}
	return n, nil
}

// ReplyCacheRepository persists generated reply drafts keyed by the
// three-part fingerprint. Values are replaced wholesale on conflict.
type ReplyCacheRepository struct {
	db *pgxpool.Pool
}

func NewReplyCacheRepository(db *pgxpool.Pool) *ReplyCacheRepository {
	return &ReplyCacheRepository{db: db}
}

// Get returns the cached variant-key map, or (nil, nil) when absent.
func (r *ReplyCacheRepository) Get(ctx context.Context, fp Fingerprint) (map[string]string, error) {
	key, err := fp.Normalize()
	if err != nil {
		return nil, err
	}

	var raw string
	err = r.db.QueryRow(ctx, `
        SELECT replies FROM cached_replies
        WHERE email_key = $1 AND subject_key = $2 AND received_at_key = $3
    `, key.Participant, key.Topic, key.ReceivedAt).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var replies map[string]string
	if err := json.Unmarshal([]byte(raw), &replies); err != nil {
		// A corrupt entry behaves like a miss; the next Put overwrites it.
		return nil, nil
	}
	return replies, nil
}

// Put upserts the variant-key map, replacing any previous entry in full.
func (r *ReplyCacheRepository) Put(ctx context.Context, fp Fingerprint, replies map[string]string) error {
	key, err := fp.Normalize()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(replies)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
        INSERT INTO cached_replies (email_key, subject_key, received_at_key, replies)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (email_key, subject_key, received_at_key)
        DO UPDATE SET replies = EXCLUDED.replies
    `, key.Participant, key.Topic, key.ReceivedAt, string(raw))
	return err
}
