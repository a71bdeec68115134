package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"gradient/internal/lookup"
	"gradient/internal/model"
)

// enrichmentContext is what pass B collected for pass C.
type enrichmentContext struct {
	sections        []string
	companyInsights []model.InsightRecord
	personInsights  []model.InsightRecord
}

func (c enrichmentContext) text() string {
	return strings.Join(c.sections, "\n\n")
}

// lookupEnrichment runs the bounded pass-B lookups: a website fetch and a
// company search, capped by MaxToolCalls, plus a person search. Every call
// degrades to empty text on failure; nothing here fails the stage.
func (e *Engine) lookupEnrichment(ctx context.Context, base model.Extraction, companyCandidate, websiteCandidate string) enrichmentContext {
	var out enrichmentContext

	website := websiteCandidate
	if base.Website != nil {
		website = *base.Website
	}
	if website = NormalizeWebsite(website); website != "" && len(out.sections) < e.cfg.MaxToolCalls {
		out.sections = append(out.sections, "[WEBSITE]\n"+e.fetcher.FetchSummary(ctx, website))
	}

	company := companyCandidate
	if base.Company != nil {
		company = *base.Company
	}
	if company != "" && len(out.sections) < e.cfg.MaxToolCalls {
		text, insights := e.searchCompany(ctx, company)
		out.sections = append(out.sections, "[SEARCH]\n"+text)
		out.companyInsights = insights
	}

	person := ""
	if base.FullName != nil {
		person = *base.FullName
	} else if base.FirstName != nil {
		person = *base.FirstName
	}
	if person != "" {
		insights := e.searchPerson(ctx, person, company)
		if len(insights) > 0 {
			out.sections = append(out.sections, "[PERSON_SEARCH]\n"+formatInsights(insights))
			out.personInsights = insights
		}
	}

	return out
}

// searchCompany aggregates a few query variants, deduped by URL, up to
// MaxResults hits. Results are cached by company name so repeated
// enrichment of the same company stays cheap.
func (e *Engine) searchCompany(ctx context.Context, company string) (string, []model.InsightRecord) {
	if cached, ok := e.companyCache.Get(company); ok {
		insights := toInsights(cached)
		return formatCompanyResults(cached), insights
	}

	variants := []string{
		fmt.Sprintf("%q company overview", company),
		fmt.Sprintf("%q official website", company),
		fmt.Sprintf("%q about us", company),
		fmt.Sprintf("%q services", company),
	}

	var aggregated []lookup.Result
	seen := map[string]struct{}{}

	for _, query := range variants {
		results, err := e.searcher.Search(ctx, query, e.cfg.MaxResults)
		if err != nil {
			e.logger.Warn("company search failed", zap.String("company", company), zap.Error(err))
			continue
		}
		for _, r := range results {
			key := r.URL
			if key == "" {
				key = r.Title + "|" + r.Snippet
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			aggregated = append(aggregated, r)
			if len(aggregated) >= e.cfg.MaxResults {
				break
			}
		}
		if len(aggregated) >= e.cfg.MaxResults {
			break
		}
	}

	e.companyCache.Put(company, aggregated)

	if len(aggregated) == 0 {
		return "No info found online.", nil
	}
	return formatCompanyResults(aggregated), toInsights(aggregated)
}

// searchPerson looks up role and social-link signals for a person, cached
// by the name|company tuple.
func (e *Engine) searchPerson(ctx context.Context, name, companyHint string) []model.InsightRecord {
	cacheKey := name + "|" + companyHint
	if cached, ok := e.personCache.Get(cacheKey); ok {
		return toInsights(cached)
	}

	query := name
	if companyHint != "" {
		query = name + " " + companyHint
	}

	results, err := e.searcher.Search(ctx, query, e.cfg.PersonMaxResults)
	if err != nil {
		e.logger.Warn("person search failed", zap.String("person", name), zap.Error(err))
		results = nil
	}

	e.personCache.Put(cacheKey, results)
	return toInsights(results)
}

func toInsights(results []lookup.Result) []model.InsightRecord {
	if len(results) == 0 {
		return nil
	}
	insights := make([]model.InsightRecord, 0, len(results))
	for _, r := range results {
		insights = append(insights, model.InsightRecord{Title: r.Title, Snippet: r.Snippet, URL: r.URL})
	}
	return insights
}

func formatCompanyResults(results []lookup.Result) string {
	if len(results) == 0 {
		return "No info found online."
	}

	lines := make([]string, 0, len(results))
	for i, r := range results {
		title := r.Title
		if title == "" {
			title = "No title"
		}
		header := fmt.Sprintf("%d. %s", i+1, title)
		if domain := hostOf(r.URL); domain != "" {
			header += fmt.Sprintf(" (%s)", domain)
		}
		entry := []string{header}
		if r.Snippet != "" {
			entry = append(entry, "   Snippet: "+r.Snippet)
		}
		if r.URL != "" {
			entry = append(entry, "   URL: "+r.URL)
		}
		lines = append(lines, strings.Join(entry, "\n"))
	}
	return strings.Join(lines, "\n")
}

func formatInsights(insights []model.InsightRecord) string {
	lines := make([]string, 0, len(insights))
	for i, ins := range insights {
		title := ins.Title
		if title == "" {
			title = "No title"
		}
		lines = append(lines, fmt.Sprintf("%d. %s\n   %s\n   %s", i+1, title, ins.Snippet, ins.URL))
	}
	return strings.Join(lines, "\n")
}

func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
