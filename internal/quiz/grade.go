package quiz

import (
	"fmt"
	"math"

	"timed-quiz-service/internal/domain"
)

const (
	messageCorrect   = "Correct! Well done!"
	messageIncorrect = "Incorrect, keep going!"
)

// Grade buckets a final score into a result tier.
func Grade(score, total int) domain.Grade {
	g := domain.Grade{Score: score, Total: total}

	var pct float64
	if total > 0 {
		pct = float64(score) / float64(total) * 100
	}
	g.Percent = int(math.Round(pct))

	switch {
	case total > 0 && score == total:
		g.Tier, g.Color = domain.TierPerfect, domain.ColorGreen
		g.Message = "Perfect! You have mastered the material!"
	case pct >= 75:
		g.Tier, g.Color = domain.TierGreat, domain.ColorBlue
		g.Message = "Great job! You know this well!"
	case pct >= 50:
		g.Tier, g.Color = domain.TierGood, domain.ColorOrange
		g.Message = "Not bad! Review the basics a little more."
	default:
		g.Tier, g.Color = domain.TierRetry, domain.ColorRed
		g.Message = "Keep at it! Let's go over the fundamentals again."
	}
	return g
}

// CheckBank reports whether bank can fill a session of count questions.
// ErrInsufficientBank is advisory: a shorter session is still playable.
func CheckBank(bank domain.Bank, count int) error {
	if len(bank) == 0 {
		return domain.ErrEmptyBank
	}
	if len(bank) < count {
		return fmt.Errorf("%w: have %d, want %d", domain.ErrInsufficientBank, len(bank), count)
	}
	return nil
}
