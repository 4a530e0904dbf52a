package quiz

import "time"

// FeedbackDuration is how long answer feedback stays on screen.
const FeedbackDuration = 3000 * time.Millisecond

// FeedbackTimer computes and checks deadlines against a caller-supplied clock.
// It holds no state and starts no goroutines; a new Arm supersedes an old
// deadline simply because the caller keeps only the latest one.
type FeedbackTimer struct{}

// Arm returns the instant d after now.
func (FeedbackTimer) Arm(now time.Time, d time.Duration) time.Time {
	return now.Add(d)
}

// Expired reports whether now has reached dueAt.
func (FeedbackTimer) Expired(dueAt, now time.Time) bool {
	return !now.Before(dueAt)
}
