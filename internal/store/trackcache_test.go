package store

import (
	"strconv"
	"testing"

	"github.com/OrfiDev/orpheusdl-qobuz/internal/qobuz"
)

type fakeCacheRecorder struct {
	hits   int
	misses int
}

func (r *fakeCacheRecorder) RecordCacheHit()  { r.hits++ }
func (r *fakeCacheRecorder) RecordCacheMiss() { r.misses++ }

func TestTrackCache_AddAndGet(t *testing.T) {
	cache, err := NewTrackCache(10)
	if err != nil {
		t.Fatalf("NewTrackCache() error = %v", err)
	}

	if _, ok := cache.Get("42"); ok {
		t.Error("Get() on an empty cache reported a hit")
	}

	cache.Add("42", &qobuz.Track{ID: 42, Title: "One"})

	track, ok := cache.Get("42")
	if !ok {
		t.Fatal("Get() missed a cached track")
	}
	if track.Title != "One" {
		t.Errorf("Title = %q, expected One", track.Title)
	}

	if cache.Hits() != 1 || cache.Misses() != 1 {
		t.Errorf("hits/misses = %d/%d, expected 1/1", cache.Hits(), cache.Misses())
	}
}

func TestTrackCache_Recorder(t *testing.T) {
	cache, err := NewTrackCache(10)
	if err != nil {
		t.Fatalf("NewTrackCache() error = %v", err)
	}

	recorder := &fakeCacheRecorder{}
	cache.SetRecorder(recorder)

	cache.Get("missing")
	cache.Add("1", &qobuz.Track{ID: 1})
	cache.Get("1")
	cache.Get("1")

	if recorder.misses != 1 {
		t.Errorf("recorded misses = %d, expected 1", recorder.misses)
	}
	if recorder.hits != 2 {
		t.Errorf("recorded hits = %d, expected 2", recorder.hits)
	}
}

func TestTrackCache_EvictsOldest(t *testing.T) {
	cache, err := NewTrackCache(2)
	if err != nil {
		t.Fatalf("NewTrackCache() error = %v", err)
	}

	for i := 1; i <= 3; i++ {
		id := strconv.Itoa(i)
		cache.Add(id, &qobuz.Track{ID: int64(i)})
	}

	if cache.Len() != 2 {
		t.Errorf("Len() = %d, expected 2", cache.Len())
	}
	if _, ok := cache.Get("1"); ok {
		t.Error("oldest entry survived past the cache size")
	}
	if _, ok := cache.Get("3"); !ok {
		t.Error("newest entry was evicted")
	}
}

func TestTrackCache_DefaultSize(t *testing.T) {
	cache, err := NewTrackCache(0)
	if err != nil {
		t.Fatalf("NewTrackCache() error = %v", err)
	}

	cache.Add("1", &qobuz.Track{ID: 1})
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, expected 1", cache.Len())
	}
}
