package spoiler

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheCapacity bounds the lookup cache for the process lifetime.
const cacheCapacity = 128

// lookupCache keeps recently revealed records keyed by front-door message so
// repeat reveals skip the two-fetch reconstruction entirely.
//
// Entries never expire and are never invalidated explicitly; staleness is
// acceptable because archived records are immutable once published.
type lookupCache struct {
	entries *lru.Cache[string, SpoilerRecord]
}

func newLookupCache() (*lookupCache, error) {
	entries, err := lru.New[string, SpoilerRecord](cacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("new lookup cache: %w", err)
	}

	return &lookupCache{entries: entries}, nil
}

// get returns the cached record for one front-door key, refreshing recency.
func (c *lookupCache) get(key string) (SpoilerRecord, bool) {
	return c.entries.Get(key)
}

// put inserts or refreshes one record, evicting the least recently used entry
// past capacity.
func (c *lookupCache) put(key string, record SpoilerRecord) {
	c.entries.Add(key, record)
}

// cacheKey scopes front-door message ids by conversation; message ids are only
// unique per conversation on Telegram.
func cacheKey(conversationID, messageID string) string {
	return conversationID + "/" + messageID
}
