// Package store provides the per-session track cache and the persistent
// settings store.
package store

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/OrfiDev/orpheusdl-qobuz/internal/qobuz"
)

// DefaultCacheSize is large enough that a single invocation never evicts.
const DefaultCacheSize = 10000

// CacheRecorder receives hit/miss notifications for metrics.
type CacheRecorder interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// TrackCache caches raw track payloads by track id. Entries are added
// opportunistically whenever track JSON is obtained as a side effect of an
// album, playlist or search fetch. Bounded LRU rather than a bare map so a
// long-lived process cannot grow without limit.
type TrackCache struct {
	lru      *lru.Cache[string, *qobuz.Track]
	recorder CacheRecorder
	hits     uint64
	misses   uint64
}

func NewTrackCache(size int) (*TrackCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *qobuz.Track](size)
	if err != nil {
		return nil, err
	}
	return &TrackCache{lru: cache}, nil
}

// SetRecorder attaches a metrics recorder.
func (tc *TrackCache) SetRecorder(r CacheRecorder) {
	tc.recorder = r
}

func (tc *TrackCache) Get(trackID string) (*qobuz.Track, bool) {
	track, ok := tc.lru.Get(trackID)
	if ok {
		tc.hits++
		if tc.recorder != nil {
			tc.recorder.RecordCacheHit()
		}
	} else {
		tc.misses++
		if tc.recorder != nil {
			tc.recorder.RecordCacheMiss()
		}
	}
	return track, ok
}

func (tc *TrackCache) Add(trackID string, track *qobuz.Track) {
	tc.lru.Add(trackID, track)
}

func (tc *TrackCache) Len() int {
	return tc.lru.Len()
}

func (tc *TrackCache) Hits() uint64 {
	return tc.hits
}

func (tc *TrackCache) Misses() uint64 {
	return tc.misses
}
