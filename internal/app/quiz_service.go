package app

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/quiz"

	"github.com/google/uuid"
)

// SessionRepository abstracts where open sessions live (in-memory, Redis-marked, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// sessionToucher is implemented by stores that keep a liveness marker which
// player activity should extend.
type sessionToucher interface {
	Touch(ctx context.Context, sessionID string) error
}

// BankRepository loads parsed question banks (from cache/backing store).
type BankRepository interface {
	GetBank(ctx context.Context, bankID string) (domain.Bank, error)
}

// QuizService hosts independent play-throughs, one Session per player connection.
type QuizService struct {
	sessions SessionRepository
	banks    BankRepository
	selector *quiz.Selector
	count    int
	now      func() time.Time
}

func NewQuizService(store SessionRepository, banks BankRepository, questionCount int) *QuizService {
	return &QuizService{
		sessions: store,
		banks:    banks,
		selector: quiz.NewSelector(),
		count:    questionCount,
		now:      time.Now,
	}
}

// NewQuizServiceWithClock is test-only for deterministic feedback windows.
func NewQuizServiceWithClock(store SessionRepository, banks BankRepository, questionCount int, selector *quiz.Selector, now func() time.Time) *QuizService {
	return &QuizService{sessions: store, banks: banks, selector: selector, count: questionCount, now: now}
}

// Open creates a session in the Start phase for the given bank.
func (s *QuizService) Open(ctx context.Context, bankID string) (*Session, error) {
	bank, err := s.banks.GetBank(ctx, bankID)
	if err != nil {
		return nil, err
	}
	if err := quiz.CheckBank(bank, s.count); err != nil {
		if !errors.Is(err, domain.ErrInsufficientBank) {
			return nil, err
		}
		log.Printf("bank %s: %v; sessions will be shorter", bankID, err)
	}

	session := newSession(uuid.NewString(), bankID, quiz.NewMachineWithClock(bank, s.count, s.selector, s.now))
	s.sessions.Put(session)
	sessionsOpened.Inc()
	activeSessions.Inc()
	return session, nil
}

// Begin handles a start click.
func (s *QuizService) Begin(ctx context.Context, sessionID string) (domain.Snapshot, bool, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, false, domain.ErrSessionNotFound
	}
	s.touch(ctx, sessionID)
	snap, changed := session.begin()
	return snap, changed, nil
}

// SubmitAnswer handles an option click.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID string, label domain.Label) (domain.Snapshot, bool, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, false, domain.ErrSessionNotFound
	}
	s.touch(ctx, sessionID)
	snap, changed := session.submitAnswer(label)
	return snap, changed, nil
}

// Tick advances timed transitions; callers invoke it at frame cadence.
func (s *QuizService) Tick(_ context.Context, sessionID string, now time.Time) (domain.Snapshot, bool, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, false, domain.ErrSessionNotFound
	}
	snap, changed := session.tick(now)
	return snap, changed, nil
}

// Restart handles a restart click.
func (s *QuizService) Restart(ctx context.Context, sessionID string) (domain.Snapshot, bool, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, false, domain.ErrSessionNotFound
	}
	s.touch(ctx, sessionID)
	snap, changed := session.restart()
	return snap, changed, nil
}

// Snapshot returns the current render state of a session.
func (s *QuizService) Snapshot(_ context.Context, sessionID string) (domain.Snapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Subscribe returns a channel that receives a snapshot after every state change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, sessionID string) (<-chan domain.Snapshot, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Close drops a session once its player disconnects.
func (s *QuizService) Close(_ context.Context, sessionID string) {
	if _, ok := s.sessions.Get(sessionID); !ok {
		return
	}
	s.sessions.Delete(sessionID)
	activeSessions.Dec()
}

func (s *QuizService) touch(ctx context.Context, sessionID string) {
	t, ok := s.sessions.(sessionToucher)
	if !ok {
		return
	}
	if err := t.Touch(ctx, sessionID); err != nil {
		log.Printf("touch session %s: %v", sessionID, err)
	}
}

// Session serializes clicks and ticks for one Machine and fans out snapshots.
type Session struct {
	id     string
	bankID string

	mu          sync.Mutex
	machine     *quiz.Machine
	subscribers map[chan domain.Snapshot]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id, bankID string, machine *quiz.Machine) *Session {
	return newSession(id, bankID, machine)
}

func newSession(id, bankID string, machine *quiz.Machine) *Session {
	s := &Session{
		id:          id,
		bankID:      bankID,
		machine:     machine,
		subscribers: make(map[chan domain.Snapshot]struct{}),
	}
	machine.OnResult(func(g domain.Grade) {
		resultsTotal.WithLabelValues(string(g.Tier)).Inc()
		log.Printf("session %s finished bank %s: %d/%d (%s)", id, bankID, g.Score, g.Total, g.Tier)
	})
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// BankID returns the bank the session draws questions from.
func (s *Session) BankID() string {
	return s.bankID
}

// Snapshot returns the current render state.
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) begin() (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(s.machine.Begin())
}

func (s *Session) submitAnswer(label domain.Label) (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.machine.SubmitAnswer(label)
	if changed {
		outcome := "incorrect"
		if fb := s.machine.Snapshot().Feedback; fb != nil && fb.Correct {
			outcome = "correct"
		}
		answersTotal.WithLabelValues(outcome).Inc()
	}
	return s.applyLocked(changed)
}

func (s *Session) tick(now time.Time) (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(s.machine.Tick(now))
}

func (s *Session) restart() (domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(s.machine.Restart())
}

func (s *Session) applyLocked(changed bool) (domain.Snapshot, bool) {
	if changed {
		return s.broadcastLocked(), true
	}
	return s.snapshotLocked(), false
}

func (s *Session) subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.Snapshot {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Slow reader: drop the oldest pending snapshot so the latest one always lands.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}

func (s *Session) snapshotLocked() domain.Snapshot {
	snap := s.machine.Snapshot()
	snap.SessionID = s.id
	return snap
}
