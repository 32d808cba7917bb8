package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"notequiz/internal/domain"
)

// QuestionCache keeps validated question sets in process with a TTL.
type QuestionCache struct {
	ttl   time.Duration
	clock func() time.Time
	rnd   *rand.Rand

	mu    sync.Mutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionCache(ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedQuestions),
	}
}

func (c *QuestionCache) Get(_ context.Context, key string) ([]domain.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok {
		return nil, false
	}
	if !entry.expiresAt.After(c.clock()) {
		delete(c.cache, key)
		return nil, false
	}
	return cloneQuestions(entry.questions), true
}

func (c *QuestionCache) Put(_ context.Context, key string, questions []domain.Question) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = cachedQuestions{
		questions: cloneQuestions(questions),
		expiresAt: c.clock().Add(c.ttlWithJitterLocked()),
	}
}

func (c *QuestionCache) ttlWithJitterLocked() time.Duration {
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func cloneQuestions(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
