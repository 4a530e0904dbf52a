package redis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/quiz"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// BankLoader fetches raw CSV bank text from a backing store.
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (string, error)
}

// BankRepository caches raw bank text in Redis and falls back to a loader on cache miss.
// Banks are stored as: SET quiz:bank:{bankID}:raw {csv}
// Parsing happens on every read so the cache holds exactly what the backing store holds.
type BankRepository struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewBankRepository(client *redis.Client, loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.Bank, error) {
	key := r.rawKey(bankID)

	raw, err := r.client.Get(ctx, key).Result()
	if err == nil {
		return parseBank(bankID, raw)
	}
	if !errors.Is(err, redis.Nil) {
		log.Printf("redis get %s: %v", key, err)
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if raw, err := r.client.Get(ctx, key).Result(); err == nil {
			return raw, nil
		}

		raw, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return "", err
		}
		if err := r.client.Set(ctx, key, raw, r.ttlWithJitter()).Err(); err != nil {
			log.Printf("redis set %s: %v", key, err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return parseBank(bankID, result.(string))
}

// Invalidate drops a cached bank so the next read goes to the loader.
func (r *BankRepository) Invalidate(ctx context.Context, bankID string) error {
	return r.client.Del(ctx, r.rawKey(bankID)).Err()
}

func (r *BankRepository) rawKey(bankID string) string {
	return "quiz:bank:" + bankID + ":raw"
}

func parseBank(bankID, raw string) (domain.Bank, error) {
	bank := quiz.Parse(raw)
	if len(bank) == 0 {
		return nil, fmt.Errorf("bank %s: %w", bankID, domain.ErrEmptyBank)
	}
	return bank, nil
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	jitter := r.rnd.Int63n(jitterMax + 1)
	r.rndMu.Unlock()
	return r.ttl + time.Duration(jitter)
}
