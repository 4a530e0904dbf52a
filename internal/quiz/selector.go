package quiz

import (
	"math/rand"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
)

// Selector draws random, non-repeating subsets of a bank.
// It is safe for concurrent use so one Selector can serve every session.
type Selector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewSelector() *Selector {
	return NewSelectorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSelectorWithSource allows deterministic selections in tests.
func NewSelectorWithSource(src rand.Source) *Selector {
	return &Selector{rnd: rand.New(src)}
}

// Select returns min(count, len(bank)) questions in uniformly random order.
// The input bank is never modified.
func (s *Selector) Select(bank domain.Bank, count int) []domain.Question {
	if count <= 0 || len(bank) == 0 {
		return []domain.Question{}
	}

	shuffled := make([]domain.Question, len(bank))
	copy(shuffled, bank)

	s.mu.Lock()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	s.mu.Unlock()

	if count > len(shuffled) {
		count = len(shuffled)
	}
	return shuffled[:count]
}
