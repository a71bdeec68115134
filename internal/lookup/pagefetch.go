package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"gradient/pkg/metrics"
)

// PageFetcher returns a best-effort text summary (title, meta description)
// of a web page. Every failure mode is reported as a descriptive string, so
// the enrichment stage never branches on an error here.
type PageFetcher interface {
	FetchSummary(ctx context.Context, pageURL string) string
}

const maxPageBytes = 512 * 1024

var (
	titleRe  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	descRe   = regexp.MustCompile(`(?i)<meta[^>]+name=["']description["'][^>]+content=["']([^"']+)["']`)
	ogDescRe = regexp.MustCompile(`(?i)<meta[^>]+property=["']og:description["'][^>]+content=["']([^"']+)["']`)
	wsRe     = regexp.MustCompile(`\s+`)
)

type PageClient struct {
	httpClient *http.Client
}

func NewPageClient(timeout time.Duration) *PageClient {
	return &PageClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *PageClient) FetchSummary(ctx context.Context, pageURL string) string {
	if pageURL == "" {
		return "No website provided."
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fmt.Sprintf("Error fetching website: %v", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; GradientBot/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.LookupCalls.WithLabelValues("page_fetch", "failed").Inc()
		return fmt.Sprintf("Error fetching website: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		metrics.LookupCalls.WithLabelValues("page_fetch", "failed").Inc()
		return fmt.Sprintf("Website request failed with status %d.", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		metrics.LookupCalls.WithLabelValues("page_fetch", "failed").Inc()
		return fmt.Sprintf("Error fetching website: %v", err)
	}
	metrics.LookupCalls.WithLabelValues("page_fetch", "success").Inc()

	return summarizeHTML(string(raw))
}

func summarizeHTML(html string) string {
	var parts []string

	if m := titleRe.FindStringSubmatch(html); m != nil {
		if title := collapseWhitespace(m[1]); title != "" {
			parts = append(parts, "Title: "+title)
		}
	}

	var desc string
	if m := descRe.FindStringSubmatch(html); m != nil {
		desc = collapseWhitespace(m[1])
		if desc != "" {
			parts = append(parts, "Meta description: "+desc)
		}
	}

	if m := ogDescRe.FindStringSubmatch(html); m != nil {
		if og := collapseWhitespace(m[1]); og != "" && og != desc {
			parts = append(parts, "OG description: "+og)
		}
	}

	if len(parts) == 0 {
		return "No usable metadata found on website."
	}
	return strings.Join(parts, "\n")
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(wsRe.ReplaceAllString(s, " "))
}
