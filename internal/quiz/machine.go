package quiz

import (
	"time"

	"timed-quiz-service/internal/domain"
)

// Machine owns the progress of one play-through and moves it through
// Start -> Quiz -> Feedback -> (Quiz | Result) -> Start.
//
// Every operation is a no-op returning false when called in the wrong phase,
// so duplicate clicks and redundant ticks are harmless. Machine is not safe
// for concurrent use; callers serialize clicks and ticks onto one goroutine
// or behind one lock.
type Machine struct {
	bank     domain.Bank
	count    int
	selector *Selector
	timer    FeedbackTimer
	now      func() time.Time
	onResult func(domain.Grade)

	selected      []domain.Question
	fresh         bool
	index         int
	score         int
	phase         domain.Phase
	feedback      *domain.Feedback
	resultEntered bool
}

// NewMachine prepares a session of up to count questions drawn from bank.
func NewMachine(bank domain.Bank, count int, selector *Selector) *Machine {
	return NewMachineWithClock(bank, count, selector, time.Now)
}

// NewMachineWithClock allows deterministic feedback deadlines in tests.
func NewMachineWithClock(bank domain.Bank, count int, selector *Selector, now func() time.Time) *Machine {
	if selector == nil {
		selector = NewSelector()
	}
	m := &Machine{
		bank:     bank,
		count:    count,
		selector: selector,
		now:      now,
		phase:    domain.PhaseStart,
	}
	m.selected = m.selector.Select(m.bank, m.count)
	m.fresh = true
	return m
}

// OnResult registers fn to run once each time a play-through reaches Result.
func (m *Machine) OnResult(fn func(domain.Grade)) {
	m.onResult = fn
}

// Phase returns the current phase.
func (m *Machine) Phase() domain.Phase {
	return m.phase
}

// Begin starts a play-through. It plays the selection drawn at construction
// or by Restart, and draws a new one only if that selection was already played.
func (m *Machine) Begin() bool {
	if m.phase != domain.PhaseStart {
		return false
	}
	selected := m.selected
	if !m.fresh {
		selected = m.selector.Select(m.bank, m.count)
	}
	if len(selected) == 0 {
		return false
	}
	m.reset(selected)
	m.fresh = false
	m.phase = domain.PhaseQuiz
	return true
}

// SubmitAnswer scores the current question and opens the feedback window.
// A second submission before the window closes is ignored, so each question
// is scored at most once.
func (m *Machine) SubmitAnswer(label domain.Label) bool {
	if m.phase != domain.PhaseQuiz || m.index >= len(m.selected) {
		return false
	}
	label = NormalizeLabel(string(label))
	if !label.Valid() {
		return false
	}

	current := m.selected[m.index]
	fb := &domain.Feedback{
		Correct: label == current.Correct,
		DueAt:   m.timer.Arm(m.now(), FeedbackDuration),
	}
	if fb.Correct {
		m.score++
		fb.Message, fb.Color = messageCorrect, domain.ColorGreen
	} else {
		fb.Message, fb.Color = messageIncorrect, domain.ColorRed
	}

	m.index++
	m.feedback = fb
	m.phase = domain.PhaseFeedback
	return true
}

// Tick closes the feedback window once now reaches its deadline. It is meant
// to be called every frame and acts at most once per window.
func (m *Machine) Tick(now time.Time) bool {
	if m.phase != domain.PhaseFeedback || m.feedback == nil {
		return false
	}
	if !m.timer.Expired(m.feedback.DueAt, now) {
		return false
	}

	if m.index < len(m.selected) {
		m.feedback = nil
		m.phase = domain.PhaseQuiz
		return true
	}

	if m.resultEntered {
		return false
	}
	m.resultEntered = true
	m.feedback = nil
	m.phase = domain.PhaseResult
	if m.onResult != nil {
		m.onResult(Grade(m.score, len(m.selected)))
	}
	return true
}

// Restart returns a finished play-through to Start with a new selection,
// which the next Begin plays.
func (m *Machine) Restart() bool {
	if m.phase != domain.PhaseResult {
		return false
	}
	m.reset(m.selector.Select(m.bank, m.count))
	m.fresh = true
	m.phase = domain.PhaseStart
	return true
}

func (m *Machine) reset(selected []domain.Question) {
	m.selected = selected
	m.index = 0
	m.score = 0
	m.feedback = nil
	m.resultEntered = false
}

// Snapshot returns a copy of everything a renderer may read.
func (m *Machine) Snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		Phase: m.phase,
		Score: m.score,
		Index: m.index,
		Total: len(m.selected),
	}

	switch m.phase {
	case domain.PhaseStart:
	case domain.PhaseQuiz:
		if m.index < len(m.selected) {
			q := cloneQuestion(m.selected[m.index])
			snap.Question = &q
		}
	case domain.PhaseFeedback:
		if m.feedback != nil {
			fb := *m.feedback
			snap.Feedback = &fb
		}
	case domain.PhaseResult:
		g := Grade(m.score, len(m.selected))
		snap.Grade = &g
	}
	return snap
}

func cloneQuestion(q domain.Question) domain.Question {
	options := make(map[domain.Label]string, len(q.Options))
	for k, v := range q.Options {
		options[k] = v
	}
	q.Options = options
	return q
}
