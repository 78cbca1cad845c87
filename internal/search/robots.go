package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/temoto/robotstxt"
)

const (
	defaultCrawlDelay = 500 * time.Millisecond
	maxCrawlDelay     = 10 * time.Second
)

// robotsChecker fetches and caches robots.txt per origin.
type robotsChecker struct {
	cache  *cache.Cache
	client *http.Client
}

func newRobotsChecker(client *http.Client) *robotsChecker {
	return &robotsChecker{
		cache:  cache.New(24*time.Hour, time.Hour),
		client: client,
	}
}

// canFetch reports whether rawURL may be fetched and the crawl delay for its
// host. Missing or unreadable robots.txt allows everything.
func (rc *robotsChecker) canFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("invalid URL: %w", err)
	}
	origin := u.Scheme + "://" + u.Host

	data, ok := rc.lookup(ctx, origin)
	if !ok {
		return true, defaultCrawlDelay, nil
	}
	group := data.FindGroup(userAgent)
	return group.Test(u.Path), crawlDelay(group), nil
}

func (rc *robotsChecker) lookup(ctx context.Context, origin string) (*robotstxt.RobotsData, bool) {
	if cached, found := rc.cache.Get(origin); found {
		data, ok := cached.(*robotstxt.RobotsData)
		return data, ok && data != nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, false
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Remember the absence so the origin is not asked again.
		rc.cache.Set(origin, (*robotstxt.RobotsData)(nil), cache.DefaultExpiration)
		return nil, false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, false
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil, false
	}
	rc.cache.Set(origin, data, cache.DefaultExpiration)
	return data, true
}

func crawlDelay(group *robotstxt.Group) time.Duration {
	if group == nil || group.CrawlDelay <= 0 {
		return defaultCrawlDelay
	}
	return min(group.CrawlDelay, maxCrawlDelay)
}
