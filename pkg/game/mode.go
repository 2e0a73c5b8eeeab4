package game

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-tonguetug/pkg/opponent"
	"github.com/teslashibe/go-tonguetug/pkg/tracking"
)

// Mode selects who plays against whom.
type Mode string

const (
	ModeSolo      Mode = "solo"      // One player against the rate-based AI
	ModeChallenge Mode = "challenge" // One player against the pull-based AI
	ModeVersus    Mode = "versus"    // Two players sharing one camera
)

// Modes lists the supported modes.
var Modes = []Mode{ModeSolo, ModeChallenge, ModeVersus}

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case ModeSolo, ModeChallenge, ModeVersus:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Players returns how many human players the mode tracks.
func (m Mode) Players() int {
	if m == ModeVersus {
		return 2
	}
	return 1
}

// Opponent returns the AI design for the mode, or "" if there is none.
func (m Mode) Opponent() opponent.Kind {
	switch m {
	case ModeSolo:
		return opponent.KindRate
	case ModeChallenge:
		return opponent.KindPull
	}
	return ""
}

// TrackingConfig returns the mode's tracking preset.
func (m Mode) TrackingConfig() tracking.Config {
	switch m {
	case ModeSolo:
		return tracking.SensitiveConfig()
	case ModeVersus:
		return tracking.StrictConfig()
	}
	return tracking.DefaultConfig()
}
