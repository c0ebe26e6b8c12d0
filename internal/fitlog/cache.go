package fitlog

import (
	"encoding/json"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const tableCacheSizeBytes = 10 * 1024 * 1024

var tableCacheKey = []byte("fitlog::table")

// TableCache is a read-through cache for dashboard reads only, purely a
// performance optimization. Every write path bypasses it and invalidates
// it synchronously after a successful write.
type TableCache struct {
	cache      *freecache.Cache
	ttlSeconds int
}

func NewTableCache(ttlSeconds int) *TableCache {
	return &TableCache{
		cache:      freecache.NewCache(tableCacheSizeBytes),
		ttlSeconds: ttlSeconds,
	}
}

func (tc *TableCache) Get() (Table, bool) {
	tableBytes, err := tc.cache.Get(tableCacheKey)
	if err != nil {
		log.Debugf("table not in cache: %s", err)
		return Table{}, false
	}

	var table Table
	if err := json.Unmarshal(tableBytes, &table); err != nil {
		log.Errorf("failed to unmarshal cached table: %s", err)
		return Table{}, false
	}
	return table, true
}

func (tc *TableCache) Set(t Table) {
	tableBytes, err := json.Marshal(t)
	if err != nil {
		log.Errorf("failed to marshal table for cache: %s", err)
		return
	}
	if err := tc.cache.Set(tableCacheKey, tableBytes, tc.ttlSeconds); err != nil {
		log.Errorf("failed to write table cache: %s", err)
	}
}

func (tc *TableCache) Invalidate() {
	tc.cache.Del(tableCacheKey)
}
