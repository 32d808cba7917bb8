package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"notequiz/internal/domain"
)

// QuestionCache stores validated question sets as JSON strings:
//
//	SET quiz:questions:{fingerprint} {json} EX ttl
//
// Cache failures are treated as misses; generation never fails because of Redis.
type QuestionCache struct {
	client *redis.Client
	ttl    time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionCache(client *redis.Client, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) Get(ctx context.Context, key string) ([]domain.Question, bool) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(raw, &questions); err != nil || len(questions) == 0 {
		return nil, false
	}
	return questions, true
}

func (c *QuestionCache) Put(ctx context.Context, key string, questions []domain.Question) {
	if c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(questions)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(key), raw, c.ttlWithJitter()).Err()
}

func (c *QuestionCache) key(fingerprint string) string {
	return "quiz:questions:" + fingerprint
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
