package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY,
        ingested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        preprocessed_at TIMESTAMPTZ,
        analyzed_at TIMESTAMPTZ,
        exported_at TIMESTAMPTZ,
        subject TEXT NOT NULL DEFAULT '',
        body TEXT NOT NULL DEFAULT '',
        sender TEXT NOT NULL DEFAULT '',
        recipient TEXT NOT NULL DEFAULT '',
        received_at TEXT NOT NULL DEFAULT '',
        is_lead BOOLEAN NOT NULL DEFAULT FALSE,
        priority TEXT NOT NULL DEFAULT '',
        status_label TEXT NOT NULL DEFAULT 'waiting',
        tone TEXT NOT NULL DEFAULT '',
        first_name TEXT,
        last_name TEXT,
        full_name TEXT,
        company TEXT,
        company_summary TEXT,
        phone TEXT,
        website TEXT,
        person_role TEXT,
        person_location TEXT,
        person_experience TEXT,
        person_summary TEXT,
        person_links TEXT NOT NULL DEFAULT '[]',
        person_insights TEXT NOT NULL DEFAULT '[]',
        company_insights TEXT NOT NULL DEFAULT '[]'
    )`,
	`CREATE TABLE IF NOT EXISTS processed_messages (
        id TEXT PRIMARY KEY
    )`,
	`CREATE TABLE IF NOT EXISTS app_settings (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL DEFAULT ''
    )`,
	`CREATE TABLE IF NOT EXISTS cached_replies (
        email_key TEXT NOT NULL,
        subject_key TEXT NOT NULL,
        received_at_key TEXT NOT NULL,
        replies TEXT NOT NULL,
        PRIMARY KEY (email_key, subject_key, received_at_key)
    )`,
	`CREATE TABLE IF NOT EXISTS users (
        id SERIAL PRIMARY KEY,
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_messages_exportable
        ON messages (ingested_at)
        WHERE exported_at IS NULL`,
}

// InitSchema creates all tables if they do not exist.
func InitSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}
