package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

// DefaultSearxngURL is used when no instance is configured.
const DefaultSearxngURL = "http://localhost:8080"

type hit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// balancer spreads queries over SearXNG instances round-robin and retries
// the next instance on failure.
type balancer struct {
	urls    []string
	counter atomic.Uint64
	client  *http.Client
}

func newBalancer(urls []string, client *http.Client) *balancer {
	b := &balancer{client: client}
	for _, u := range urls {
		if u = strings.TrimSuffix(strings.TrimSpace(u), "/"); u != "" {
			b.urls = append(b.urls, u)
		}
	}
	if len(b.urls) == 0 {
		b.urls = []string{DefaultSearxngURL}
	}
	return b
}

func (b *balancer) query(ctx context.Context, q string) ([]hit, error) {
	start := b.counter.Add(1) - 1
	var lastErr error
	for attempt := range len(b.urls) {
		instance := b.urls[(start+uint64(attempt))%uint64(len(b.urls))]
		hits, err := b.queryInstance(ctx, instance, q)
		if err == nil {
			return hits, nil
		}
		lastErr = err
		slog.Warn("searxng instance failed", "instance", instance, "error", err.Error())
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("all %d searxng instances failed: %w", len(b.urls), lastErr)
}

func (b *balancer) queryInstance(ctx context.Context, instance, q string) ([]hit, error) {
	searchURL := fmt.Sprintf("%s/search?q=%s&format=json&safesearch=1&language=pt-BR", instance, url.QueryEscape(q))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed with status: %d", resp.StatusCode)
	}

	var payload struct {
		Results []hit `json:"results"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}
	return payload.Results, nil
}
