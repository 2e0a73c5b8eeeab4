// Package match maps two scores onto the rope and decides the winner.
package match

import "sync"

// Winner identifies the side that won a match.
type Winner string

const (
	NoWinner Winner = ""
	Player1  Winner = "player1"
	Player2  Winner = "player2"
)

// Rope geometry. Each point of lead moves the rope Span/LeadForFull percent.
const (
	Center      = 50.0
	Span        = 40.0
	LeadForFull = 20.0

	Player1Threshold = 10.0 // Raw position at or below this ends the match for player1
	Player2Threshold = 90.0 // Raw position at or above this ends the match for player2
)

// Position returns the raw (unclamped) rope position for scores a and b.
// Position(a, b) + Position(b, a) == 100 for all a, b.
func Position(a, b float64) float64 {
	return Center - (a-b)/LeadForFull*Span
}

// Display clamps a raw position to [0, 100].
func Display(raw float64) float64 {
	if raw < 0 {
		return 0
	}
	if raw > 100 {
		return 100
	}
	return raw
}

// Scores is a pair of side scores.
type Scores struct {
	Player1 float64 `json:"player1"`
	Player2 float64 `json:"player2"`
}

// Outcome is the evaluator's output for one pair of scores.
type Outcome struct {
	Position float64 `json:"position"` // Clamped to [0, 100]
	Raw      float64 `json:"raw"`
	Winner   Winner  `json:"winner,omitempty"`
	Ended    bool    `json:"ended"`
	Frozen   *Scores `json:"frozen,omitempty"` // Scores at the instant the match ended
}

// Evaluator tracks one match and latches its result.
// Thresholds are checked against the raw position; only the reported value is clamped.
type Evaluator struct {
	mu     sync.Mutex
	ended  bool
	winner Winner
	frozen Scores
	last   float64
}

// NewEvaluator creates an evaluator for a fresh match.
func NewEvaluator() *Evaluator {
	return &Evaluator{last: Center}
}

// Evaluate maps live scores onto the rope. Once a side wins, the winner and
// the frozen scores stay fixed until Reset, whatever the live scores do.
func (e *Evaluator) Evaluate(player1, player2 float64) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ended {
		return e.outcome()
	}

	raw := Position(player1, player2)
	e.last = raw

	switch {
	case raw <= Player1Threshold:
		e.winner = Player1
	case raw >= Player2Threshold:
		e.winner = Player2
	}
	if e.winner != NoWinner {
		e.ended = true
		e.frozen = Scores{Player1: player1, Player2: player2}
	}
	return e.outcome()
}

// Peek reports the outcome for the given scores without ending the match.
func (e *Evaluator) Peek(player1, player2 float64) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ended {
		return e.outcome()
	}
	raw := Position(player1, player2)
	return Outcome{Position: Display(raw), Raw: raw}
}

func (e *Evaluator) outcome() Outcome {
	o := Outcome{
		Position: Display(e.last),
		Raw:      e.last,
		Winner:   e.winner,
		Ended:    e.ended,
	}
	if e.ended {
		frozen := e.frozen
		o.Frozen = &frozen
	}
	return o
}

// Ended reports whether the match has a winner.
func (e *Evaluator) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}

// Reset starts a new match.
func (e *Evaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ended = false
	e.winner = NoWinner
	e.frozen = Scores{}
	e.last = Center
}
