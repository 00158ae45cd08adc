package gtfsrt

import (
	"sort"
	"time"

	gtfsrtpb "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
)

// CacheStats is an operational snapshot of the feed cache.
type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

type cacheEntry struct {
	msg       *gtfsrtpb.FeedMessage
	fetchedAt time.Time
}

// feedCache holds decoded feed payloads keyed by upstream URL. An entry
// is valid while now - fetchedAt < ttl; stale entries are replaced by
// the next fetch (whole-entry swap), never evicted explicitly. Access is
// serialized by the owning Client.
type feedCache struct {
	ttl     time.Duration
	now     func() time.Time
	entries map[string]*cacheEntry
}

func newFeedCache(ttl time.Duration, now func() time.Time) *feedCache {
	return &feedCache{
		ttl:     ttl,
		now:     now,
		entries: map[string]*cacheEntry{},
	}
}

func (c *feedCache) get(url string) (*gtfsrtpb.FeedMessage, bool) {
	e, ok := c.entries[url]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.msg, true
}

func (c *feedCache) put(url string, msg *gtfsrtpb.FeedMessage) {
	c.entries[url] = &cacheEntry{msg: msg, fetchedAt: c.now()}
}

func (c *feedCache) clear() {
	c.entries = map[string]*cacheEntry{}
}

func (c *feedCache) stats() CacheStats {
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return CacheStats{Size: len(keys), Keys: keys}
}
