package export

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"gradient/internal/model"
	"gradient/internal/sheets"
	"gradient/pkg/metrics"
)

// Ingestor pulls new messages from the mail source before each export pass.
type Ingestor interface {
	Ingest(ctx context.Context, limit int) (int, error)
}

// Exportables is the slice of the message repository the synchronizer uses.
type Exportables interface {
	ListExportable(ctx context.Context, limit int) ([]model.Message, error)
	MarkExported(ctx context.Context, ids []string) error
}

// exportColumns is the fixed projection order pushed to the sink.
var exportColumns = []string{
	"id", "ingested_at", "received_at", "sender", "recipient", "subject",
	"is_lead", "priority", "status_label", "tone",
	"first_name", "last_name", "full_name",
	"company", "company_summary", "phone", "website",
	"person_role", "person_location", "person_experience", "person_summary",
	"person_links", "company_insights", "person_insights",
}

// Syncer pushes fully-enriched rows to the spreadsheet sink. A row is
// eligible only once both enrichment stages have stamped their timestamps;
// exported_at is written only after the whole batch append succeeded.
type Syncer struct {
	ingestor    Ingestor
	messages    Exportables
	sink        sheets.Sink
	ingestLimit int
	logger      *zap.Logger
}

func NewSyncer(ingestor Ingestor, messages Exportables, sink sheets.Sink, ingestLimit int, logger *zap.Logger) *Syncer {
	return &Syncer{
		ingestor:    ingestor,
		messages:    messages,
		sink:        sink,
		ingestLimit: ingestLimit,
		logger:      logger,
	}
}

// Sync runs one full pass: pull new mail, then export every row that
// cleared both stages. Returns the number of rows exported.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	if s.ingestor != nil {
		if _, err := s.ingestor.Ingest(ctx, s.ingestLimit); err != nil {
			// Rows staged earlier can still be exported.
			s.logger.Warn("sync: ingestion failed", zap.Error(err))
		}
	}

	msgs, err := s.messages.ListExportable(ctx, 0)
	if err != nil {
		metrics.SyncRuns.WithLabelValues("failed").Inc()
		return 0, err
	}
	if len(msgs) == 0 {
		metrics.SyncRuns.WithLabelValues("skipped").Inc()
		return 0, nil
	}

	rows := make([][]string, 0, len(msgs))
	ids := make([]string, 0, len(msgs))
	for i := range msgs {
		rows = append(rows, projectRow(&msgs[i]))
		ids = append(ids, msgs[i].ID)
	}

	if err := s.sink.AppendRows(ctx, rows); err != nil {
		// Nothing gets marked; the whole batch is retried next pass.
		metrics.SyncRuns.WithLabelValues("failed").Inc()
		return 0, err
	}

	if err := s.messages.MarkExported(ctx, ids); err != nil {
		metrics.SyncRuns.WithLabelValues("failed").Inc()
		return 0, err
	}

	metrics.ExportedRows.Add(float64(len(ids)))
	metrics.SyncRuns.WithLabelValues("success").Inc()
	s.logger.Info("sync: exported rows", zap.Int("count", len(ids)))
	return len(ids), nil
}

// HeaderRow returns the column names in projection order, for seeding a
// fresh sheet.
func HeaderRow() []string {
	return append([]string{}, exportColumns...)
}

// projectRow flattens one message into the fixed column order. Booleans are
// stringified and the enrichment collections are JSON-encoded.
func projectRow(m *model.Message) []string {
	return []string{
		m.ID,
		m.IngestedAt.UTC().Format("2006-01-02 15:04:05"),
		m.ReceivedAt,
		m.Sender,
		m.Recipient,
		m.Subject,
		strconv.FormatBool(m.IsLead),
		m.Priority,
		m.StatusLabel,
		m.Tone,
		deref(m.FirstName),
		deref(m.LastName),
		deref(m.FullName),
		deref(m.Company),
		deref(m.CompanySummary),
		deref(m.Phone),
		deref(m.Website),
		deref(m.PersonRole),
		deref(m.PersonLocation),
		deref(m.PersonExperience),
		deref(m.PersonSummary),
		strings.Join(m.PersonLinks, ", "),
		encodeInsights(m.CompanyInsights),
		encodeInsights(m.PersonInsights),
	}
}

func encodeInsights(records []model.InsightRecord) string {
	if len(records) == 0 {
		return "[]"
	}
	b, err := json.Marshal(records)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
