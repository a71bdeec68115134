package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gradient/internal/model"
)

const messageColumns = `
        id, ingested_at, preprocessed_at, analyzed_at, exported_at,
        subject, body, sender, recipient, received_at,
        is_lead, priority, status_label, tone,
        first_name, last_name, full_name,
        company, company_summary, phone, website,
        person_role, person_location, person_experience, person_summary,
        person_links, person_insights, company_insights`

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Insert stages a new message in the waiting state. Only content fields and
// ingested_at are populated; every stage timestamp except ingested_at stays
// null.
func (r *MessageRepository) Insert(ctx context.Context, m *model.Message) error {
	query := `
        INSERT INTO messages (id, subject, body, sender, recipient, received_at, status_label, ingested_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        ON CONFLICT (id) DO NOTHING
    `
	label := m.StatusLabel
	if label == "" {
		label = model.StatusWaiting
	}
	_, err := r.db.Exec(ctx, query, m.ID, m.Subject, m.Body, m.Sender, m.Recipient, m.ReceivedAt, label)
	return err
}

// FindByID returns a message by provider id.
func (r *MessageRepository) FindByID(ctx context.Context, id string) (*model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`
	row := r.db.QueryRow(ctx, query, id)
	return scanMessage(row)
}

// ApplyClassification writes the stage-1 fields in a single atomic update.
// preprocessed_at only ever moves from null to a timestamp; re-running the
// stage overwrites the fields but never resets the stamp.
func (r *MessageRepository) ApplyClassification(ctx context.Context, id string, c model.Classification) error {
	query := `
        UPDATE messages
        SET is_lead = $1,
            priority = $2,
            status_label = $3,
            tone = $4,
            full_name = COALESCE($5, full_name),
            preprocessed_at = COALESCE(preprocessed_at, NOW())
        WHERE id = $6
    `
	_, err := r.db.Exec(ctx, query, c.IsLead, c.Priority, c.StatusLabel, c.Tone, c.SenderName, id)
	return err
}

// ApplyExtraction writes the stage-2 fields in a single atomic update and
// stamps analyzed_at unconditionally, so a row is never stuck pending after
// the stage has had its chance to run.
func (r *MessageRepository) ApplyExtraction(ctx context.Context, id string, e model.Extraction) error {
	links, err := json.Marshal(nonNilStrings(e.PersonLinks))
	if err != nil {
		return fmt.Errorf("failed to encode person links: %w", err)
	}
	personInsights, err := json.Marshal(nonNilInsights(e.PersonInsights))
	if err != nil {
		return fmt.Errorf("failed to encode person insights: %w", err)
	}
	companyInsights, err := json.Marshal(nonNilInsights(e.CompanyInsights))
	if err != nil {
		return fmt.Errorf("failed to encode company insights: %w", err)
	}

	query := `
        UPDATE messages
        SET first_name = $1,
            last_name = $2,
            full_name = COALESCE($3, full_name),
            company = $4,
            company_summary = $5,
            phone = $6,
            website = $7,
            person_role = $8,
            person_location = $9,
            person_experience = $10,
            person_summary = $11,
            person_links = $12,
            person_insights = $13,
            company_insights = $14,
            analyzed_at = COALESCE(analyzed_at, NOW())
        WHERE id = $15
    `
	_, err = r.db.Exec(ctx, query,
		e.FirstName, e.LastName, e.FullName,
		e.Company, e.CompanySummary, e.Phone, e.Website,
		e.PersonRole, e.PersonLocation, e.PersonExperience, e.PersonSummary,
		string(links), string(personInsights), string(companyInsights),
		id,
	)
	return err
}

// ListExportable returns rows that cleared both enrichment stages and have
// not been exported yet, oldest first.
func (r *MessageRepository) ListExportable(ctx context.Context, limit int) ([]model.Message, error) {
	query := `
        SELECT ` + messageColumns + `
        FROM messages
        WHERE exported_at IS NULL
          AND preprocessed_at IS NOT NULL
          AND analyzed_at IS NOT NULL
        ORDER BY ingested_at ASC
    `
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// MarkExported stamps exported_at for every id in the batch.
func (r *MessageRepository) MarkExported(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `
        UPDATE messages
        SET exported_at = COALESCE(exported_at, NOW())
        WHERE id = ANY($1)
    `
	_, err := r.db.Exec(ctx, query, ids)
	return err
}

// ListUnpreprocessedIDs returns ids of rows stage 1 has not completed for,
// oldest first. Used by ingestion to resubmit work that previously failed.
func (r *MessageRepository) ListUnpreprocessedIDs(ctx context.Context, limit int) ([]string, error) {
	query := `
        SELECT id FROM messages
        WHERE preprocessed_at IS NULL
        ORDER BY ingested_at ASC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListAll returns every message, newest first. Feeds the leads view and the
// dashboard aggregation.
func (r *MessageRepository) ListAll(ctx context.Context) ([]model.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages ORDER BY ingested_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*model.Message, error) {
	var m model.Message
	var ingested time.Time
	var links, personInsights, companyInsights string

	err := row.Scan(
		&m.ID, &ingested, &m.PreprocessedAt, &m.AnalyzedAt, &m.ExportedAt,
		&m.Subject, &m.Body, &m.Sender, &m.Recipient, &m.ReceivedAt,
		&m.IsLead, &m.Priority, &m.StatusLabel, &m.Tone,
		&m.FirstName, &m.LastName, &m.FullName,
		&m.Company, &m.CompanySummary, &m.Phone, &m.Website,
		&m.PersonRole, &m.PersonLocation, &m.PersonExperience, &m.PersonSummary,
		&links, &personInsights, &companyInsights,
	)
	if err != nil {
		return nil, err
	}

	m.IngestedAt = ingested
	// Stored JSON that fails to decode degrades to empty collections.
	_ = json.Unmarshal([]byte(links), &m.PersonLinks)
	_ = json.Unmarshal([]byte(personInsights), &m.PersonInsights)
	_ = json.Unmarshal([]byte(companyInsights), &m.CompanyInsights)

	return &m, nil
}

func scanMessages(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]model.Message, error) {
	messages := []model.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInsights(s []model.InsightRecord) []model.InsightRecord {
	if s == nil {
		return []model.InsightRecord{}
	}
	return s
}
