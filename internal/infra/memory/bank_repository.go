package memory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/quiz"

	"golang.org/x/sync/singleflight"
)

// BankLoader fetches raw CSV bank text from a backing store (file, SQL table, etc).
type BankLoader interface {
	LoadBank(ctx context.Context, bankID string) (string, error)
}

// BankRepository parses banks once and caches them with TTL to avoid repeated loads.
type BankRepository struct {
	loader BankLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	bank      domain.Bank
	expiresAt time.Time
}

func NewBankRepository(loader BankLoader, ttl time.Duration) *BankRepository {
	return &BankRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedBank),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.Bank, error) {
	if bank, ok := r.cached(bankID); ok {
		return bank, nil
	}

	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		if bank, ok := r.cached(bankID); ok {
			return bank, nil
		}

		raw, err := r.loader.LoadBank(ctx, bankID)
		if err != nil {
			return nil, err
		}
		bank, dropped := quiz.ParseReport(raw)
		if dropped > 0 {
			log.Printf("bank %s: dropped %d malformed records", bankID, dropped)
		}
		if len(bank) == 0 {
			return nil, fmt.Errorf("bank %s: %w", bankID, domain.ErrEmptyBank)
		}

		r.mu.Lock()
		r.cache[bankID] = cachedBank{
			bank:      bank,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return bank, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(domain.Bank), nil
}

func (r *BankRepository) cached(bankID string) (domain.Bank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[bankID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return nil, false
	}
	return entry.bank, true
}

func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	jitter := r.rnd.Int63n(jitterMax + 1)
	r.rndMu.Unlock()
	return r.ttl + time.Duration(jitter)
}

// StaticBankLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticBankLoader struct {
	banks map[string]string
}

func NewStaticBankLoader(banks map[string]string) *StaticBankLoader {
	return &StaticBankLoader{banks: banks}
}

func (l *StaticBankLoader) LoadBank(_ context.Context, bankID string) (string, error) {
	if raw, ok := l.banks[bankID]; ok {
		return raw, nil
	}
	return "", domain.ErrBankNotFound
}

// FileBankLoader reads banks from CSV files, keyed by bank id.
type FileBankLoader struct {
	paths map[string]string
}

func NewFileBankLoader(paths map[string]string) *FileBankLoader {
	return &FileBankLoader{paths: paths}
}

func (l *FileBankLoader) LoadBank(_ context.Context, bankID string) (string, error) {
	path, ok := l.paths[bankID]
	if !ok {
		return "", domain.ErrBankNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read bank %s: %w", bankID, err)
	}
	return string(data), nil
}

// FallbackLoader tries each loader in order until one knows the bank.
type FallbackLoader []BankLoader

func (f FallbackLoader) LoadBank(ctx context.Context, bankID string) (string, error) {
	for _, loader := range f {
		raw, err := loader.LoadBank(ctx, bankID)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, domain.ErrBankNotFound) {
			return "", err
		}
	}
	return "", domain.ErrBankNotFound
}
