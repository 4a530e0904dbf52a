package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/infra/memory"
	"timed-quiz-service/internal/quiz"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func newTestService(c *clock) (*app.QuizService, *memory.SessionStore) {
	store := memory.NewSessionStore()
	banks := memory.NewBankRepository(memory.NewStaticBankLoader(map[string]string{
		quiz.DefaultBankID: quiz.DefaultBank,
		"short":            `"only","a","b","c","d","B"`,
		"junk":             "nothing,to,see",
	}), 5*time.Minute)
	return app.NewQuizServiceWithClock(store, banks, 4, quiz.NewSelectorWithSource(rand.NewSource(9)), c.Now), store
}

func correctFor(snap domain.Snapshot) domain.Label {
	return snap.Question.Correct
}

func TestOpenAndPlay(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	service, store := newTestService(c)

	session, err := service.Open(ctx, quiz.DefaultBankID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected session stored")
	}

	snap, changed, err := service.Begin(ctx, session.ID())
	if err != nil || !changed {
		t.Fatalf("begin: changed=%v err=%v", changed, err)
	}
	if snap.SessionID != session.ID() || snap.Phase != domain.PhaseQuiz || snap.Total != 4 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	for i := 0; i < 4; i++ {
		snap, _ = service.Snapshot(ctx, session.ID())
		snap, changed, _ = service.SubmitAnswer(ctx, session.ID(), correctFor(snap))
		if !changed || snap.Phase != domain.PhaseFeedback || !snap.Feedback.Correct {
			t.Fatalf("answer %d: unexpected snapshot %+v", i, snap)
		}
		c.now = c.now.Add(quiz.FeedbackDuration)
		if _, changed, _ = service.Tick(ctx, session.ID(), c.now); !changed {
			t.Fatalf("tick %d did not advance", i)
		}
	}

	snap, _ = service.Snapshot(ctx, session.ID())
	if snap.Phase != domain.PhaseResult || snap.Score != 4 || snap.Grade == nil {
		t.Fatalf("unexpected result %+v", snap)
	}

	snap, changed, _ = service.Restart(ctx, session.ID())
	if !changed || snap.Phase != domain.PhaseStart || snap.Score != 0 || snap.Index != 0 {
		t.Fatalf("unexpected restart %+v", snap)
	}

	service.Close(ctx, session.ID())
	if store.Len() != 0 {
		t.Fatalf("expected session removed on close")
	}
}

func TestDuplicateAnswersScoreOnce(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Unix(0, 0)}
	service, _ := newTestService(c)

	session, _ := service.Open(ctx, quiz.DefaultBankID)
	snap, _, _ := service.Begin(ctx, session.ID())
	label := correctFor(snap)

	_, first, _ := service.SubmitAnswer(ctx, session.ID(), label)
	_, second, _ := service.SubmitAnswer(ctx, session.ID(), label)
	if !first || second {
		t.Fatalf("expected only first answer accepted, got %v %v", first, second)
	}
	snap, _ = service.Snapshot(ctx, session.ID())
	if snap.Score != 1 || snap.Index != 1 {
		t.Fatalf("duplicate answer changed progress: %+v", snap)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Unix(0, 0)}
	service, _ := newTestService(c)

	session, _ := service.Open(ctx, quiz.DefaultBankID)
	ch, cancel, err := service.Subscribe(ctx, session.ID())
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer cancel()

	initial := <-ch
	if initial.Phase != domain.PhaseStart {
		t.Fatalf("expected start snapshot, got %s", initial.Phase)
	}

	if _, _, err := service.Begin(ctx, session.ID()); err != nil {
		t.Fatalf("begin: %v", err)
	}
	update := <-ch
	if update.Phase != domain.PhaseQuiz || update.Question == nil {
		t.Fatalf("expected quiz snapshot, got %+v", update)
	}

	// No-op transitions do not broadcast.
	_, _, _ = service.Restart(ctx, session.ID())
	_, _, _ = service.Tick(ctx, session.ID(), c.now.Add(time.Hour))
	select {
	case extra := <-ch:
		t.Fatalf("unexpected broadcast %+v", extra)
	default:
	}
}

func TestSlowSubscriberGetsLatest(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Unix(0, 0)}
	service, _ := newTestService(c)

	session, _ := service.Open(ctx, quiz.DefaultBankID)
	ch, cancel, _ := service.Subscribe(ctx, session.ID())
	defer cancel()

	// Fill well past the buffer without reading.
	for round := 0; round < 5; round++ {
		snap, _, _ := service.Begin(ctx, session.ID())
		for snap.Phase != domain.PhaseResult {
			snap, _, _ = service.SubmitAnswer(ctx, session.ID(), domain.LabelA)
			c.now = c.now.Add(quiz.FeedbackDuration)
			snap, _, _ = service.Tick(ctx, session.ID(), c.now)
		}
		_, _, _ = service.Restart(ctx, session.ID())
	}

	var last domain.Snapshot
	for len(ch) > 0 {
		last = <-ch
	}
	if last.Phase != domain.PhaseStart {
		t.Fatalf("expected latest snapshot to be start, got %s", last.Phase)
	}
}

func TestShortBankStillPlayable(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Unix(0, 0)}
	service, _ := newTestService(c)

	session, err := service.Open(ctx, "short")
	if err != nil {
		t.Fatalf("expected short bank to open, got %v", err)
	}
	snap, _, _ := service.Begin(ctx, session.ID())
	if snap.Total != 1 {
		t.Fatalf("expected session of 1, got %d", snap.Total)
	}
}

func TestOpenAndLookupErrors(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(&clock{now: time.Unix(0, 0)})

	if _, err := service.Open(ctx, "missing"); !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected bank not found, got %v", err)
	}
	if _, err := service.Open(ctx, "junk"); !errors.Is(err, domain.ErrEmptyBank) {
		t.Fatalf("expected empty bank, got %v", err)
	}
	if _, _, err := service.Begin(ctx, "nope"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, _, err := service.SubmitAnswer(ctx, "nope", domain.LabelA); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, _, err := service.Tick(ctx, "nope", time.Now()); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, _, err := service.Restart(ctx, "nope"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
	if _, _, err := service.Subscribe(ctx, "nope"); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session error, got %v", err)
	}
	service.Close(ctx, "nope")
}
