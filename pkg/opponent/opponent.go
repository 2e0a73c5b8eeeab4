// Package opponent provides the AI side of a solo tug-of-war match.
//
// Two designs exist. Rate is frame-driven: it accumulates elapsed time and
// scores at irregular intervals that shrink as the player's score grows.
// Pull runs on its own timer and pulls harder and more often the further
// it falls behind.
package opponent

import "time"

// Opponent is an autonomous scorer that reacts to the player's score.
type Opponent interface {
	// Update reports the player's current score and the time since the last update.
	Update(userScore float64, dt time.Duration)
	// Score returns the opponent's score.
	Score() float64
	// Reset zeros the score and clears pending timers.
	Reset()
	// Start begins (or resumes) scoring.
	Start()
	// Stop cancels pending timers. No score changes after Stop.
	Stop()
}

// Kind names an opponent design.
type Kind string

const (
	KindRate Kind = "rate"
	KindPull Kind = "pull"
)
