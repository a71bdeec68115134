package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gradient/internal/ai"
	"gradient/internal/lookup"
	"gradient/internal/model"
	"gradient/pkg/metrics"
)

// Store is the slice of the message repository the engine mutates. Every
// stage write is a single-row atomic update.
type Store interface {
	FindByID(ctx context.Context, id string) (*model.Message, error)
	ApplyClassification(ctx context.Context, id string, c model.Classification) error
	ApplyExtraction(ctx context.Context, id string, e model.Extraction) error
}

// TaskQueue schedules follow-up background units after stage 1 commits.
type TaskQueue interface {
	Submit(name string, run func(ctx context.Context)) error
}

// PreGenerator proactively drafts replies for a freshly classified message.
type PreGenerator interface {
	PreGenerate(ctx context.Context, id string)
}

// Config bounds the engine's external lookup behavior.
type Config struct {
	SearchEnabled    bool
	MaxResults       int
	PersonMaxResults int
	MaxToolCalls     int
	BodyPrefix       int
}

// Engine runs the two enrichment stages. Each stage is idempotent over one
// message id and contains its own failures: nothing propagates past the
// stage boundary, and a failed stage never blocks other ids.
type Engine struct {
	store    Store
	ai       ai.Completer
	searcher lookup.Searcher
	fetcher  lookup.PageFetcher
	queue    TaskQueue
	pregen   PreGenerator
	cfg      Config
	logger   *zap.Logger

	companyCache *lookup.Cache
	personCache  *lookup.Cache
}

func NewEngine(
	store Store,
	completer ai.Completer,
	searcher lookup.Searcher,
	fetcher lookup.PageFetcher,
	queue TaskQueue,
	pregen PreGenerator,
	cfg Config,
	companyCache *lookup.Cache,
	personCache *lookup.Cache,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		store:        store,
		ai:           completer,
		searcher:     searcher,
		fetcher:      fetcher,
		queue:        queue,
		pregen:       pregen,
		cfg:          cfg,
		logger:       logger,
		companyCache: companyCache,
		personCache:  personCache,
	}
}

const classifySystemPrompt = "You are an email triage assistant for a sales CRM. " +
	"Classify the email and return ONLY a valid JSON object with the exact keys: " +
	"sender_name (display name of the sender, or null), " +
	"is_lead (boolean, true if the email is a potential sales lead), " +
	"status_label (short free-text status for the CRM board), " +
	"tone (exactly one of: aggressive, simple, friendly)."

// Classify is stage 1: a fast classification pass over a bounded body
// prefix. On success it writes the result in one atomic update stamping
// preprocessed_at, then schedules reply pre-generation and stage 2.
func (e *Engine) Classify(ctx context.Context, id string) {
	msg, err := e.store.FindByID(ctx, id)
	if err != nil {
		e.logger.Error("classify: failed to load message", zap.String("message_id", id), zap.Error(err))
		metrics.RecordStageRun("classify", "failed")
		return
	}

	if msg.PreprocessedAt != nil {
		// already classified; make sure downstream work was scheduled
		if msg.AnalyzedAt == nil {
			e.scheduleFollowups(id)
		}
		return
	}

	user := fmt.Sprintf("Sender email: %s\nSubject: %s\n\nBody:\n%s",
		msg.Sender, msg.Subject, truncate(msg.Body, e.cfg.BodyPrefix))

	raw, err := e.ai.Complete(ctx, ai.Request{
		Operation: "classify",
		System:    classifySystemPrompt,
		User:      user,
		JSONMode:  true,
	})
	if err != nil {
		e.logger.Error("classify: ai call failed, row left retryable",
			zap.String("message_id", id),
			zap.Error(err),
		)
		metrics.RecordStageRun("classify", "failed")
		return
	}

	classification := parseClassification(raw)
	if err := e.store.ApplyClassification(ctx, id, classification); err != nil {
		e.logger.Error("classify: failed to persist result", zap.String("message_id", id), zap.Error(err))
		metrics.RecordStageRun("classify", "failed")
		return
	}

	metrics.RecordStageRun("classify", "success")
	e.scheduleFollowups(id)
}

// scheduleFollowups queues reply pre-generation and stage 2. Both run only
// after the stage-1 update committed, so "preprocessed_at non-null implies
// classification fields populated" holds for every reader.
func (e *Engine) scheduleFollowups(id string) {
	if e.pregen != nil {
		if err := e.queue.Submit("pregenerate:"+id, func(ctx context.Context) {
			e.pregen.PreGenerate(ctx, id)
		}); err != nil {
			e.logger.Warn("failed to schedule reply pre-generation", zap.String("message_id", id), zap.Error(err))
		}
	}

	if err := e.queue.Submit("analyze:"+id, func(ctx context.Context) {
		e.Analyze(ctx, id)
	}); err != nil {
		e.logger.Warn("failed to schedule analysis", zap.String("message_id", id), zap.Error(err))
	}
}

const extractSystemPrompt = "You are an intelligent email parsing assistant. " +
	"Extract structured data from the email. If no company name is explicitly present " +
	"you may infer one from the sender email domain, but never for personal email providers. " +
	"Return ONLY a valid JSON object with the exact keys: " +
	"email, first_name, last_name, full_name, company, company_summary, " +
	"order_number, order_description, amount, currency, " +
	"phone_number, website, person_role, person_location, person_experience, person_links, person_summary. " +
	"Set a field to null when it is not present. " +
	"If amount is present, use a number with a dot as the decimal separator."

// Analyze is stage 2: deep extraction. Pass A extracts a JSON draft from
// the text alone, pass B gathers bounded external enrichment, pass C folds
// the enrichment back into the final JSON. analyzed_at is stamped even when
// every pass failed, so the row always reaches an exportable state.
func (e *Engine) Analyze(ctx context.Context, id string) {
	msg, err := e.store.FindByID(ctx, id)
	if err != nil {
		e.logger.Error("analyze: failed to load message", zap.String("message_id", id), zap.Error(err))
		metrics.RecordStageRun("analyze", "failed")
		return
	}

	if msg.AnalyzedAt != nil {
		return
	}

	extraction, ok := e.extract(ctx, msg)
	status := "success"
	if !ok {
		status = "failed"
	}

	if err := e.store.ApplyExtraction(ctx, id, extraction); err != nil {
		e.logger.Error("analyze: failed to persist result", zap.String("message_id", id), zap.Error(err))
		metrics.RecordStageRun("analyze", "failed")
		return
	}

	metrics.RecordStageRun("analyze", status)
}

// extract runs the three passes and the deterministic fallbacks. The bool
// reports whether the model contributed anything; the extraction itself is
// always usable.
func (e *Engine) extract(ctx context.Context, msg *model.Message) (model.Extraction, bool) {
	companyCandidate := CompanyCandidate(msg.Sender)
	websiteCandidate := WebsiteCandidate(msg.Body)

	userPrompt := fmt.Sprintf(
		"Extract data from the following email.\n\n"+
			"Sender email: %s\n"+
			"Sender domain company candidate (may be empty): %s\n"+
			"Website URL found in body (may be empty): %s\n"+
			"Subject: %s\n\nBody:\n%s",
		msg.Sender, companyCandidate, websiteCandidate, msg.Subject, msg.Body,
	)

	modelContributed := true

	// Pass A: deterministic extraction from the text alone.
	baseRaw, err := e.ai.Complete(ctx, ai.Request{
		Operation: "extract",
		System:    extractSystemPrompt,
		User:      userPrompt,
		JSONMode:  true,
	})
	if err != nil {
		e.logger.Warn("analyze: base extraction failed", zap.String("message_id", msg.ID), zap.Error(err))
		baseRaw = ""
		modelContributed = false
	}
	base := parseExtraction(baseRaw)

	// Pass B: bounded external enrichment.
	var enrichment enrichmentContext
	if e.cfg.SearchEnabled {
		enrichment = e.lookupEnrichment(ctx, base, companyCandidate, websiteCandidate)
	}

	// Pass C: final JSON, folding the enrichment back in.
	final := base
	if modelContributed || enrichment.text() != "" {
		baseJSON, _ := json.Marshal(rawFromExtraction(base))
		finalUser := fmt.Sprintf(
			"Here is the extracted JSON (may contain nulls):\n%s\n\n"+
				"Enrichment context (may be empty):\n%s\n\n"+
				"Now output only the final JSON object with the required keys.",
			string(baseJSON), orPlaceholder(enrichment.text(), "<empty>"),
		)
		finalSystem := extractSystemPrompt +
			" Use the enrichment context (if provided) to populate company_summary and website accurately." +
			" If person search results are provided, populate role, experience level and social links when possible."

		finalRaw, err := e.ai.Complete(ctx, ai.Request{
			Operation: "extract",
			System:    finalSystem,
			User:      finalUser,
			JSONMode:  true,
		})
		if err != nil {
			e.logger.Warn("analyze: final extraction failed, keeping base draft",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		} else {
			final = parseExtraction(finalRaw)
			modelContributed = true
		}
	}

	e.applyFallbacks(&final, msg, companyCandidate, websiteCandidate)
	final.CompanyInsights = enrichment.companyInsights
	final.PersonInsights = enrichment.personInsights
	e.synthesizePersonSummary(&final, enrichment.personInsights)

	return final, modelContributed
}

// applyFallbacks fills phone, website and company from heuristics when the
// model left them empty.
func (e *Engine) applyFallbacks(ex *model.Extraction, msg *model.Message, companyCandidate, websiteCandidate string) {
	if ex.Email == nil && msg.Sender != "" {
		ex.Email = strPtr(msg.Sender)
	}
	if ex.Phone == nil {
		if phone := PhoneCandidate(msg.Body); phone != "" {
			ex.Phone = strPtr(phone)
		}
	}
	if ex.Website == nil && websiteCandidate != "" {
		ex.Website = strPtr(NormalizeWebsite(websiteCandidate))
	}
	if ex.Company == nil && companyCandidate != "" {
		ex.Company = strPtr(companyCandidate)
	}
}

func (e *Engine) synthesizePersonSummary(ex *model.Extraction, personInsights []model.InsightRecord) {
	if ex.PersonSummary != nil {
		return
	}

	var parts []string
	if ex.PersonRole != nil {
		parts = append(parts, "Role: "+*ex.PersonRole)
	}
	if ex.PersonLocation != nil {
		parts = append(parts, "Location: "+*ex.PersonLocation)
	}
	if ex.PersonExperience != nil {
		parts = append(parts, "Experience: "+*ex.PersonExperience)
	}
	for _, ins := range personInsights {
		if ins.Snippet != "" {
			parts = append(parts, ins.Snippet)
			break
		}
	}

	if len(parts) > 0 {
		ex.PersonSummary = strPtr(strings.Join(parts, " | "))
	}
}

// rawFromExtraction re-encodes a typed extraction into the wire shape used
// in prompts, so pass C sees exactly what pass A produced.
func rawFromExtraction(e model.Extraction) map[string]interface{} {
	return map[string]interface{}{
		"email":             deref(e.Email),
		"first_name":        deref(e.FirstName),
		"last_name":         deref(e.LastName),
		"full_name":         deref(e.FullName),
		"company":           deref(e.Company),
		"company_summary":   deref(e.CompanySummary),
		"order_number":      deref(e.OrderNumber),
		"order_description": deref(e.OrderDescription),
		"amount":            e.Amount,
		"currency":          deref(e.Currency),
		"phone_number":      deref(e.Phone),
		"website":           deref(e.Website),
		"person_role":       deref(e.PersonRole),
		"person_location":   deref(e.PersonLocation),
		"person_experience": deref(e.PersonExperience),
		"person_links":      e.PersonLinks,
		"person_summary":    deref(e.PersonSummary),
	}
}

func deref(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func strPtr(s string) *string {
	return &s
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
