package memory

import (
	"context"
	"testing"
	"time"

	"notequiz/internal/domain"
)

func TestQuestionCacheExpires(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cache := NewQuestionCache(time.Minute)
	cache.clock = func() time.Time { return now }

	cache.Put(context.Background(), "k", sampleModule("m").Questions)

	qs, ok := cache.Get(context.Background(), "k")
	if !ok || len(qs) != 1 {
		t.Fatalf("expected cache hit, got %v %v", qs, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := cache.Get(context.Background(), "k"); ok {
		t.Fatalf("expected entry expired")
	}
}

func TestQuestionCacheDisabledWithoutTTL(t *testing.T) {
	cache := NewQuestionCache(0)
	cache.Put(context.Background(), "k", []domain.Question{{Question: "q", Options: []string{"a", "b", "c", "d"}}})
	if _, ok := cache.Get(context.Background(), "k"); ok {
		t.Fatalf("expected no caching with zero ttl")
	}
}

func TestStaticModuleLoaderReturnsDemo(t *testing.T) {
	modules, err := NewStaticModuleLoader(DemoModule()).LoadModules(context.Background())
	if err != nil {
		t.Fatalf("load modules: %v", err)
	}
	if len(modules) != 1 || modules[0].Title != "Capital Cities" || len(modules[0].Questions) != 3 {
		t.Fatalf("unexpected demo modules: %+v", modules)
	}
}
