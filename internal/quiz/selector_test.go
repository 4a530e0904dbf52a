package quiz

import (
	"math/rand"
	"testing"

	"timed-quiz-service/internal/domain"
)

func TestSelectSizeAndUniqueness(t *testing.T) {
	bank := Parse(DefaultBank)
	selector := NewSelectorWithSource(rand.NewSource(7))

	tests := []struct {
		count int
		want  int
	}{
		{count: -1, want: 0},
		{count: 0, want: 0},
		{count: 1, want: 1},
		{count: 4, want: 4},
		{count: 6, want: 6},
		{count: 10, want: 6},
	}
	for _, tc := range tests {
		selected := selector.Select(bank, tc.count)
		if len(selected) != tc.want {
			t.Fatalf("Select(bank, %d) returned %d questions, want %d", tc.count, len(selected), tc.want)
		}
		seen := make(map[string]bool)
		for _, q := range selected {
			if seen[q.Text] {
				t.Fatalf("duplicate question %q", q.Text)
			}
			seen[q.Text] = true
			if !inBank(bank, q) {
				t.Fatalf("question %q not from bank", q.Text)
			}
		}
	}
}

func TestSelectDoesNotMutateBank(t *testing.T) {
	bank := Parse(DefaultBank)
	order := make([]string, len(bank))
	for i, q := range bank {
		order[i] = q.Text
	}

	selector := NewSelectorWithSource(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		_ = selector.Select(bank, 4)
	}
	for i, q := range bank {
		if q.Text != order[i] {
			t.Fatalf("bank reordered at %d: %q != %q", i, q.Text, order[i])
		}
	}
}

func TestSelectEmptyBank(t *testing.T) {
	selected := NewSelector().Select(nil, 4)
	if selected == nil || len(selected) != 0 {
		t.Fatalf("expected empty non-nil selection, got %v", selected)
	}
}

func TestSelectVariesOrder(t *testing.T) {
	bank := Parse(DefaultBank)
	selector := NewSelectorWithSource(rand.NewSource(42))

	first := texts(selector.Select(bank, 4))
	for i := 0; i < 50; i++ {
		if texts(selector.Select(bank, 4)) != first {
			return
		}
	}
	t.Fatalf("50 selections all matched %q", first)
}

func TestSelectCoversEveryPosition(t *testing.T) {
	bank := Parse(DefaultBank)
	selector := NewSelectorWithSource(rand.NewSource(3))

	firsts := make(map[string]int)
	for i := 0; i < 600; i++ {
		firsts[selector.Select(bank, len(bank))[0].Text]++
	}
	if len(firsts) != len(bank) {
		t.Fatalf("expected every question to lead at least once, got %d distinct leaders", len(firsts))
	}
	for text, n := range firsts {
		if n < 50 {
			t.Fatalf("question %q led only %d/600 times", text, n)
		}
	}
}

func inBank(bank domain.Bank, q domain.Question) bool {
	for _, b := range bank {
		if b.Text == q.Text && b.Correct == q.Correct {
			return true
		}
	}
	return false
}

func texts(questions []domain.Question) string {
	out := ""
	for _, q := range questions {
		out += q.Text + "|"
	}
	return out
}
