package redis

import (
	"context"
	"testing"
	"time"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/quiz"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	machine := quiz.NewMachine(quiz.Parse(quiz.DefaultBank), 4, nil)
	store.Put(app.NewSession("s1", quiz.DefaultBankID, machine))
	if !mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("quiz:session:s1"); got != quiz.DefaultBankID {
		t.Fatalf("expected bank id in marker, got %q", got)
	}

	mr.FastForward(30 * time.Second)
	if err := store.Touch(context.Background(), "s1"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if ttl := mr.TTL("quiz:session:s1"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed to 1m, got %v", ttl)
	}

	store.Delete("s1")
	if mr.Exists("quiz:session:s1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed locally")
	}
}
