package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gradient/internal/model"
	"gradient/internal/reply"
	"gradient/internal/repository"
	"gradient/pkg/metrics"
)

// MessageReader is the read-only slice of the message repository the reply
// service needs.
type MessageReader interface {
	FindByID(ctx context.Context, id string) (*model.Message, error)
}

// ReplyCache is the persisted fingerprint cache of generated drafts.
type ReplyCache interface {
	Get(ctx context.Context, fp repository.Fingerprint) (map[string]string, error)
	Put(ctx context.Context, fp repository.Fingerprint, replies map[string]string) error
}

// Drafts generates the reply variant set for one lead/email pair.
type Drafts interface {
	Draft(ctx context.Context, lead, email map[string]interface{}, opts reply.Options) (map[string]string, error)
}

// DraftRequest is one reactive drafting call from the API layer.
type DraftRequest struct {
	MessageID       string
	Regenerate      bool
	Placeholders    map[string]interface{}
	PromptOverrides map[string]string
}

// ReplyService serves reply drafts through the fingerprint cache: exact-key
// hits are returned as-is, misses are generated and stored, and messages
// whose fingerprint is incomplete bypass the cache entirely.
type ReplyService struct {
	messages MessageReader
	cache    ReplyCache
	drafter  Drafts
	logger   *zap.Logger
}

func NewReplyService(messages MessageReader, cache ReplyCache, drafter Drafts, logger *zap.Logger) *ReplyService {
	return &ReplyService{
		messages: messages,
		cache:    cache,
		drafter:  drafter,
		logger:   logger,
	}
}

// GetReplies returns the variant-key map for a message, from cache when
// possible. Regenerate forces fresh generation and overwrites the cached
// entry wholesale.
func (s *ReplyService) GetReplies(ctx context.Context, req DraftRequest) (map[string]string, error) {
	msg, err := s.messages.FindByID(ctx, req.MessageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message %s: %w", req.MessageID, err)
	}

	fp := fingerprintOf(msg)
	cacheable := true
	if _, err := fp.Normalize(); err != nil {
		cacheable = false
		metrics.ReplyCacheHits.WithLabelValues("bypass").Inc()
	}

	if cacheable && !req.Regenerate {
		cached, err := s.cache.Get(ctx, fp)
		if err != nil {
			s.logger.Warn("reply cache read failed", zap.String("message_id", msg.ID), zap.Error(err))
		}
		if cached != nil {
			metrics.ReplyCacheHits.WithLabelValues("hit").Inc()
			return cached, nil
		}
		metrics.ReplyCacheHits.WithLabelValues("miss").Inc()
	}

	replies, err := s.drafter.Draft(ctx, leadContext(msg), emailContext(msg), reply.Options{
		Placeholders:    req.Placeholders,
		PromptOverrides: req.PromptOverrides,
		Tone:            msg.Tone,
	})
	if err != nil {
		return nil, err
	}
	metrics.RepliesGenerated.WithLabelValues("reactive").Inc()

	if cacheable {
		if err := s.cache.Put(ctx, fp, replies); err != nil {
			s.logger.Warn("reply cache write failed", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
	return replies, nil
}

// PreGenerate proactively drafts replies right after classification so the
// first reactive request for this conversation is a cache hit. Best-effort:
// every failure is contained here.
func (s *ReplyService) PreGenerate(ctx context.Context, id string) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("pregenerate: failed to load message", zap.String("message_id", id), zap.Error(err))
		metrics.RecordStageRun("pregenerate", "failed")
		return
	}

	fp, err := fingerprintOf(msg).Normalize()
	if err != nil {
		// Nothing to key the entry under; the reactive path will still
		// generate on demand.
		metrics.ReplyCacheHits.WithLabelValues("bypass").Inc()
		metrics.RecordStageRun("pregenerate", "skipped")
		return
	}

	cached, err := s.cache.Get(ctx, fp)
	if err == nil && cached != nil {
		metrics.RecordStageRun("pregenerate", "skipped")
		return
	}
	if err != nil && !errors.Is(err, repository.ErrInvalidCacheKey) {
		s.logger.Warn("pregenerate: cache read failed", zap.String("message_id", id), zap.Error(err))
	}

	replies, err := s.drafter.Draft(ctx, leadContext(msg), emailContext(msg), reply.Options{Tone: msg.Tone})
	if err != nil {
		s.logger.Warn("pregenerate: drafting failed", zap.String("message_id", id), zap.Error(err))
		metrics.RecordStageRun("pregenerate", "failed")
		return
	}
	metrics.RepliesGenerated.WithLabelValues("proactive").Inc()

	if err := s.cache.Put(ctx, fp, replies); err != nil {
		s.logger.Warn("pregenerate: cache write failed", zap.String("message_id", id), zap.Error(err))
		metrics.RecordStageRun("pregenerate", "failed")
		return
	}
	metrics.RecordStageRun("pregenerate", "success")
}

func fingerprintOf(m *model.Message) repository.Fingerprint {
	return repository.Fingerprint{
		Participant: m.Sender,
		Topic:       m.Subject,
		ReceivedAt:  m.ReceivedAt,
	}
}

// leadContext flattens the enrichment fields into the placeholder source
// map. Nil extraction fields are omitted so they never shadow an alias.
func leadContext(m *model.Message) map[string]interface{} {
	lead := map[string]interface{}{
		"is_lead":      m.IsLead,
		"priority":     m.Priority,
		"status_label": m.StatusLabel,
		"tone":         m.Tone,
	}
	putIf(lead, "first_name", m.FirstName)
	putIf(lead, "last_name", m.LastName)
	putIf(lead, "full_name", m.FullName)
	putIf(lead, "company", m.Company)
	putIf(lead, "company_summary", m.CompanySummary)
	putIf(lead, "phone", m.Phone)
	putIf(lead, "website", m.Website)
	putIf(lead, "person_role", m.PersonRole)
	putIf(lead, "person_location", m.PersonLocation)
	putIf(lead, "person_experience", m.PersonExperience)
	putIf(lead, "person_summary", m.PersonSummary)
	if len(m.PersonLinks) > 0 {
		links := make([]interface{}, len(m.PersonLinks))
		for i, l := range m.PersonLinks {
			links[i] = l
		}
		lead["person_links"] = links
	}
	return lead
}

func emailContext(m *model.Message) map[string]interface{} {
	return map[string]interface{}{
		"subject":     m.Subject,
		"body":        m.Body,
		"sender":      m.Sender,
		"recipient":   m.Recipient,
		"received_at": m.ReceivedAt,
	}
}

func putIf(dst map[string]interface{}, key string, val *string) {
	if val != nil && *val != "" {
		dst[key] = *val
	}
}
