package overlay

import (
	"sort"
	"testing"
)

func TestLabelCacheFreesEvictedTextures(t *testing.T) {
	var freed []uint32
	cache, err := newLabelCache(2, func(tex uint32) { freed = append(freed, tex) })
	if err != nil {
		t.Fatal(err)
	}

	cache.Add("0.050", label{tex: 1})
	cache.Add("0.075", label{tex: 2})
	// Drawing 0.050 again keeps it; 0.075 becomes the oldest.
	if _, ok := cache.Get("0.050"); !ok {
		t.Fatal("expected 0.050 to be cached")
	}
	cache.Add("0.100", label{tex: 3})

	if len(freed) != 1 || freed[0] != 2 {
		t.Fatalf("expected only texture 2 to be freed, got %v", freed)
	}
	if _, ok := cache.Get("0.050"); !ok {
		t.Fatal("recently drawn label was evicted")
	}

	cache.Purge()
	sort.Slice(freed, func(i, j int) bool { return freed[i] < freed[j] })
	if len(freed) != 3 || freed[0] != 1 || freed[1] != 2 || freed[2] != 3 {
		t.Fatalf("expected every texture freed after purge, got %v", freed)
	}
}

func TestLabelCacheRejectsZeroSize(t *testing.T) {
	if _, err := newLabelCache(0, func(uint32) {}); err == nil {
		t.Fatal("expected an error for an empty cache")
	}
}
