// Package search looks up current financial information on the web through
// SearXNG and summarizes the result pages.
package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/markusmobius/go-trafilatura"

	"github.com/easeaico/finadvisor/internal/types"
	"github.com/easeaico/finadvisor/internal/utils"
)

const (
	userAgent       = "finadvisor-bot/1.0"
	maxBodySize     = 5 << 20
	summaryLimit    = 500
	defaultMax      = 5
	pageTimeout     = 5 * time.Second
	globalFetchRate = 10.0
	untitled        = "Sem título"
)

// blockedHosts are never fetched or returned.
var blockedHosts = []string{"youtube.com", "facebook.com", "instagram.com", "twitter.com", "tiktok.com"}

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	specialChars = regexp.MustCompile(`[^\p{L}\p{N}\s.,;:!?()%$-]`)
)

// Options configures a Searcher.
type Options struct {
	URLs       []string
	Timeout    time.Duration
	MaxResults int
	// Observe receives the duration and result count of each search.
	Observe func(time.Duration, int)
}

// Searcher queries SearXNG and enriches each hit with an extracted summary of
// the page. It never returns an error: failures yield fewer or no results.
type Searcher struct {
	balancer *balancer
	robots   *robotsChecker
	limiter  *rateLimiter
	client   *http.Client
	timeout  time.Duration
	max      int
	observe  func(time.Duration, int)
}

// New returns a Searcher.
func New(opts Options) *Searcher {
	client := &http.Client{Timeout: pageTimeout}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMax
	}
	return &Searcher{
		balancer: newBalancer(opts.URLs, &http.Client{Timeout: opts.Timeout}),
		robots:   newRobotsChecker(client),
		limiter:  newRateLimiter(globalFetchRate),
		client:   client,
		timeout:  opts.Timeout,
		max:      opts.MaxResults,
		observe:  opts.Observe,
	}
}

// Search returns up to limit summarized results for query; limit <= 0 uses
// the configured default.
func (s *Searcher) Search(ctx context.Context, userID, query string, limit int) []types.SearchResult {
	if limit <= 0 {
		limit = s.max
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results := s.search(ctx, userID, query, limit)
	if s.observe != nil {
		s.observe(time.Since(start), len(results))
	}
	slog.Info("web search finished", "query", query, "results", len(results), "duration", time.Since(start).String())
	return results
}

func (s *Searcher) search(ctx context.Context, userID, query string, limit int) []types.SearchResult {
	hits, err := s.balancer.query(ctx, query)
	if err != nil {
		slog.Warn("web search failed", "query", query, "error", err.Error())
		return nil
	}

	candidates := make([]hit, 0, limit)
	for _, h := range hits {
		if len(candidates) == limit {
			break
		}
		if h.URL == "" || isBlocked(h.URL) {
			continue
		}
		candidates = append(candidates, h)
	}

	slots := make([]*types.SearchResult, len(candidates))
	var wg sync.WaitGroup
	for i, h := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slots[i] = s.summarize(ctx, userID, h)
		}()
	}
	wg.Wait()

	results := make([]types.SearchResult, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results
}

// summarize builds a result from the page text, falling back to the search
// engine snippet when the page cannot be used.
func (s *Searcher) summarize(ctx context.Context, userID string, h hit) *types.SearchResult {
	title, text, err := s.fetchPage(ctx, userID, h.URL)
	if err != nil {
		slog.Debug("page fetch failed, using snippet", "url", h.URL, "error", err.Error())
		text = h.Content
	}
	summary := cleanSummary(text)
	if summary == "" {
		return nil
	}
	if title == "" {
		title = strings.TrimSpace(h.Title)
	}
	if title == "" {
		title = untitled
	}
	return &types.SearchResult{Title: title, URL: h.URL, Summary: summary}
}

func (s *Searcher) fetchPage(ctx context.Context, userID, rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", "", fmt.Errorf("unsupported url %q", rawURL)
	}

	allowed, delay, err := s.robots.canFetch(ctx, rawURL)
	if err != nil {
		return "", "", err
	}
	if !allowed {
		return "", "", fmt.Errorf("blocked by robots.txt")
	}
	if err := s.limiter.wait(ctx, userID, u.Host, delay); err != nil {
		return "", "", fmt.Errorf("rate limit: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, pageTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return "", "", fmt.Errorf("unsupported content type %q", ct)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", "", err
	}

	result, err := trafilatura.Extract(bytes.NewReader(body), trafilatura.Options{OriginalURL: u})
	if err != nil {
		return "", "", fmt.Errorf("extract content: %w", err)
	}
	if result == nil || strings.TrimSpace(result.ContentText) == "" {
		return "", "", fmt.Errorf("no content extracted")
	}
	return strings.TrimSpace(result.Metadata.Title), result.ContentText, nil
}

// FormatResults renders results for the prompt.
func FormatResults(results []types.SearchResult) string {
	if len(results) == 0 {
		return "Não foi possível encontrar resultados relevantes para esta pesquisa."
	}
	var sb strings.Builder
	sb.WriteString("Resultados da pesquisa na web:\n\n")
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\nURL: %s\nResumo: %s\n\n", i+1, r.Title, r.URL, r.Summary)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Query builds the search string sent for a user question.
func Query(question string) string {
	return fmt.Sprintf("finanças %s brasil atual", strings.TrimSpace(question))
}

func cleanSummary(text string) string {
	text = specialChars.ReplaceAllString(text, "")
	text = strings.TrimSpace(spaceRun.ReplaceAllString(text, " "))
	return utils.Truncate(text, summaryLimit)
}

func isBlocked(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, host := range blockedHosts {
		if strings.Contains(lower, host) {
			return true
		}
	}
	return false
}
