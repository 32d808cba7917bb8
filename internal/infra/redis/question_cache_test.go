package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"notequiz/internal/domain"
)

func TestQuestionCacheRoundTripsThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewQuestionCache(newClient(mr), time.Minute)
	ctx := context.Background()

	if _, ok := cache.Get(ctx, "abc"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	cache.Put(ctx, "abc", sampleQuestions())
	if !mr.Exists("quiz:questions:abc") {
		t.Fatalf("expected redis key to be set")
	}

	got, ok := cache.Get(ctx, "abc")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if len(got) != 1 || got[0].Answer != 1 || got[0].Options[1] != "4" {
		t.Fatalf("unexpected cached questions: %+v", got)
	}
}

func TestQuestionCacheExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewQuestionCache(newClient(mr), time.Minute)
	cache.Put(context.Background(), "abc", sampleQuestions())

	mr.FastForward(2 * time.Minute)
	if _, ok := cache.Get(context.Background(), "abc"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestQuestionCacheIgnoresCorruptEntries(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set("quiz:questions:abc", "not json"); err != nil {
		t.Fatalf("seed key: %v", err)
	}
	cache := NewQuestionCache(newClient(mr), time.Minute)
	if _, ok := cache.Get(context.Background(), "abc"); ok {
		t.Fatalf("expected corrupt entry to be a miss")
	}
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{Question: "What is 2 + 2?", Options: []string{"3", "4", "5", "6"}, Answer: 1},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
