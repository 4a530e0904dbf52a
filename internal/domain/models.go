package domain

import (
	"fmt"
	"time"
)

// Label identifies one of the four answer options.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
)

// Labels lists option labels in presentation order.
var Labels = []Label{LabelA, LabelB, LabelC, LabelD}

// Valid reports whether l is one of A, B, C or D.
func (l Label) Valid() bool {
	switch l {
	case LabelA, LabelB, LabelC, LabelD:
		return true
	}
	return false
}

// Question is an immutable multiple-choice question with exactly four options.
type Question struct {
	Text    string           `json:"text"`
	Options map[Label]string `json:"options"`
	Correct Label            `json:"-"`
}

// Valid reports whether all four options are present and Correct names one of them.
func (q Question) Valid() bool {
	if len(q.Options) != len(Labels) {
		return false
	}
	for _, l := range Labels {
		if _, ok := q.Options[l]; !ok {
			return false
		}
	}
	_, ok := q.Options[q.Correct]
	return ok && q.Correct.Valid()
}

// Bank is the ordered set of validated questions parsed from raw content.
type Bank []Question

// Phase is the stage of a play-through.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseQuiz
	PhaseFeedback
	PhaseResult
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseQuiz:
		return "quiz"
	case PhaseFeedback:
		return "feedback"
	case PhaseResult:
		return "result"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText encodes the phase by name so snapshots stay readable on the wire.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Color is a presentation hint; the renderer decides how to draw it.
type Color string

const (
	ColorGreen  Color = "green"
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorOrange Color = "orange"
)

// Feedback is the pending outcome shown between answering and the next question.
type Feedback struct {
	Message string    `json:"message"`
	Correct bool      `json:"correct"`
	Color   Color     `json:"color"`
	DueAt   time.Time `json:"dueAt"`
}

// Tier buckets a final percentage.
type Tier string

const (
	TierPerfect Tier = "perfect"
	TierGreat   Tier = "great"
	TierGood    Tier = "good"
	TierRetry   Tier = "retry"
)

// Grade summarizes a finished play-through.
type Grade struct {
	Score   int    `json:"score"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
	Tier    Tier   `json:"tier"`
	Message string `json:"message"`
	Color   Color  `json:"color"`
}

// Snapshot is the read-only view handed to renderers.
type Snapshot struct {
	SessionID string    `json:"sessionId,omitempty"`
	Phase     Phase     `json:"phase"`
	Question  *Question `json:"question,omitempty"`
	Score     int       `json:"score"`
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	Feedback  *Feedback `json:"feedback,omitempty"`
	Grade     *Grade    `json:"grade,omitempty"`
}
