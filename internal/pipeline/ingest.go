package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gradient/internal/mail"
	"gradient/internal/model"
	"gradient/pkg/metrics"
)

// MessageStore is the slice of the message repository ingestion needs.
type MessageStore interface {
	Insert(ctx context.Context, m *model.Message) error
	ListUnpreprocessedIDs(ctx context.Context, limit int) ([]string, error)
}

// ProcessedSet tracks provider ids already pulled from the source.
type ProcessedSet interface {
	Contains(ctx context.Context, id string) (bool, error)
	Add(ctx context.Context, id string) error
}

// Classifier runs stage 1 for one message id.
type Classifier interface {
	Classify(ctx context.Context, id string)
}

// Deduper guards against double-submitting a stage for the same id.
type Deduper interface {
	AcquireOnce(ctx context.Context, stage, messageID string) bool
	Release(ctx context.Context, stage, messageID string)
}

// Attempts counts stage resubmissions per message id.
type Attempts interface {
	Bump(ctx context.Context, stage, messageID string) int64
}

// maxClassifyAttempts caps how often a row with a failing stage 1 gets
// resubmitted before the rescheduler leaves it alone for a while.
const maxClassifyAttempts = 5

// Ingestor pulls new messages from the mail source, persists them in the
// waiting state before any AI work, and schedules stage-1 classification on
// the worker pool. Persist-first means an item is visible to the UI
// immediately and survives any enrichment failure.
type Ingestor struct {
	source     mail.Source
	store      MessageStore
	processed  ProcessedSet
	classifier Classifier
	pool       *Pool
	deduper    Deduper
	attempts   Attempts
	logger     *zap.Logger
}

func NewIngestor(
	source mail.Source,
	store MessageStore,
	processed ProcessedSet,
	classifier Classifier,
	pool *Pool,
	deduper Deduper,
	attempts Attempts,
	logger *zap.Logger,
) *Ingestor {
	return &Ingestor{
		source:     source,
		store:      store,
		processed:  processed,
		classifier: classifier,
		pool:       pool,
		deduper:    deduper,
		attempts:   attempts,
		logger:     logger,
	}
}

// Ingest pulls up to limit new items and stages each one. Returns the count
// of newly staged messages. A fetch failure for a single item skips only
// that item; it stays unmarked and is retried on the next pass. Afterwards,
// rows whose stage 1 never completed are rescheduled.
func (i *Ingestor) Ingest(ctx context.Context, limit int) (int, error) {
	ids, err := i.source.ListNewMessageIDs(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list new messages: %w", err)
	}

	staged := 0
	for _, id := range ids {
		seen, err := i.processed.Contains(ctx, id)
		if err != nil {
			return staged, fmt.Errorf("failed to check processed set: %w", err)
		}
		if seen {
			continue
		}

		raw, err := i.source.GetMessage(ctx, id)
		if err != nil {
			i.logger.Warn("failed to fetch message, will retry next pass",
				zap.String("message_id", id),
				zap.Error(err),
			)
			continue
		}

		msg := i.normalize(raw)
		if err := i.store.Insert(ctx, msg); err != nil {
			return staged, fmt.Errorf("failed to stage message %s: %w", id, err)
		}
		if err := i.processed.Add(ctx, id); err != nil {
			return staged, fmt.Errorf("failed to mark message processed: %w", err)
		}

		metrics.MessagesIngested.Inc()
		staged++

		i.scheduleClassify(ctx, id)
	}

	i.rescheduleIncomplete(ctx, limit)

	return staged, nil
}

// normalize maps a raw source message onto a waiting row. A message with an
// empty body and subject is still staged; decode failures already degraded
// to empty strings inside DecodeBody.
func (i *Ingestor) normalize(raw *mail.RawMessage) *model.Message {
	return &model.Message{
		ID:          raw.ID,
		Subject:     raw.HeaderValue("Subject"),
		Body:        raw.DecodeBody(),
		Sender:      mail.ExtractAddress(raw.HeaderValue("From")),
		Recipient:   mail.ExtractAddress(raw.HeaderValue("To")),
		ReceivedAt:  raw.HeaderValue("Date"),
		StatusLabel: model.StatusWaiting,
	}
}

// rescheduleIncomplete resubmits stage 1 for rows it never completed on.
// The deduper keeps a row from being queued twice while a run is in flight,
// and the attempt counter stops resubmitting a row that keeps failing.
func (i *Ingestor) rescheduleIncomplete(ctx context.Context, limit int) {
	ids, err := i.store.ListUnpreprocessedIDs(ctx, limit)
	if err != nil {
		i.logger.Error("failed to list unpreprocessed rows", zap.Error(err))
		return
	}
	for _, id := range ids {
		if i.attempts != nil {
			if n := i.attempts.Bump(ctx, "classify", id); n > maxClassifyAttempts {
				i.logger.Warn("classification keeps failing, backing off",
					zap.String("message_id", id),
					zap.Int64("attempts", n),
				)
				continue
			}
		}
		i.scheduleClassify(ctx, id)
	}
}

func (i *Ingestor) scheduleClassify(ctx context.Context, id string) {
	if !i.deduper.AcquireOnce(ctx, "classify", id) {
		return
	}

	err := i.pool.Submit("classify:"+id, func(taskCtx context.Context) {
		defer i.deduper.Release(taskCtx, "classify", id)
		i.classifier.Classify(taskCtx, id)
	})
	if err != nil {
		i.deduper.Release(ctx, "classify", id)
		i.logger.Warn("failed to schedule classification",
			zap.String("message_id", id),
			zap.Error(err),
		)
	}
}
