// Package cache memoizes answers per user and normalized question.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/easeaico/finadvisor/internal/utils"
)

// DefaultTTL is how long an answer stays reusable.
const DefaultTTL = time.Hour

// ResponseCache maps (user, question) to a previous answer. Questions match
// after lower-casing and trimming only. Expired entries are swept on lookup;
// there is no background janitor.
type ResponseCache struct {
	store *gocache.Cache
	ttl   time.Duration
}

// New returns a cache with the given TTL; zero or negative means DefaultTTL.
func New(ttl time.Duration) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResponseCache{
		store: gocache.New(ttl, 0),
		ttl:   ttl,
	}
}

// Lookup returns the cached answer for the user's question.
func (c *ResponseCache) Lookup(userID, question string) (string, bool) {
	c.Sweep()
	v, ok := c.store.Get(key(userID, question))
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Store records answer for the user's question, replacing any previous one.
func (c *ResponseCache) Store(userID, question, answer string) {
	c.store.Set(key(userID, question), answer, gocache.DefaultExpiration)
}

// Sweep drops expired entries.
func (c *ResponseCache) Sweep() {
	c.store.DeleteExpired()
}

// Len reports the number of entries, including expired ones not yet swept.
func (c *ResponseCache) Len() int {
	return c.store.ItemCount()
}

// TTL returns the configured lifetime.
func (c *ResponseCache) TTL() time.Duration {
	return c.ttl
}

func key(userID, question string) string {
	return userID + "\x00" + utils.NormalizeQuestion(question)
}
