package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"gradient/internal/config"
	"gradient/pkg/metrics"
)

// Result is one web search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Searcher answers a query with a bounded list of results within the
// configured time budget.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// SearchClient queries a SearxNG-style JSON search endpoint. Calls are rate
// limited so a burst of enrichment work cannot hammer the upstream.
type SearchClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewSearchClient(cfg config.SearchConfig) *SearchClient {
	return &SearchClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
	}
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URL     string `json:"url"`
	} `json:"results"`
}

func (c *SearchClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.LookupCalls.WithLabelValues("search", "failed").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.LookupCalls.WithLabelValues("search", "failed").Inc()
		return nil, fmt.Errorf("search service error: %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.LookupCalls.WithLabelValues("search", "failed").Inc()
		return nil, err
	}

	results := make([]Result, 0, maxResults)
	for _, r := range parsed.Results {
		if r.Title == "" && r.Content == "" && r.URL == "" {
			continue
		}
		results = append(results, Result{Title: r.Title, Snippet: r.Content, URL: r.URL})
		if len(results) >= maxResults {
			break
		}
	}

	metrics.LookupCalls.WithLabelValues("search", "success").Inc()
	return results, nil
}
