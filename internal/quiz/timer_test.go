package quiz

import (
	"testing"
	"time"
)

func TestFeedbackTimer(t *testing.T) {
	var timer FeedbackTimer
	start := time.Unix(1_700_000_000, 0)

	due := timer.Arm(start, FeedbackDuration)
	if got := due.Sub(start); got != 3*time.Second {
		t.Fatalf("expected 3s window, got %v", got)
	}
	if timer.Expired(due, start) {
		t.Fatalf("expired immediately")
	}
	if timer.Expired(due, due.Add(-time.Millisecond)) {
		t.Fatalf("expired 1ms early")
	}
	if !timer.Expired(due, due) {
		t.Fatalf("expected expiry exactly at due time")
	}
	if !timer.Expired(due, due.Add(time.Hour)) {
		t.Fatalf("expected expiry after due time")
	}
}
