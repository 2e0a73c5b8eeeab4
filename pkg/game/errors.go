package game

import (
	"errors"

	"github.com/teslashibe/go-tonguetug/pkg/landmark"
)

var (
	// ErrSourceInit means the landmark source could not start. It is terminal for the run.
	ErrSourceInit = errors.New("landmark source failed to initialize")

	// ErrInvalidFrame is returned for frames with a bad size or too many faces.
	ErrInvalidFrame = landmark.ErrInvalidFrame

	// ErrUnknownMode is returned for a mode name that is not solo, challenge or versus.
	ErrUnknownMode = errors.New("unknown game mode")

	// ErrStopped is returned by a closed source and when pushing frames to it.
	ErrStopped = errors.New("stopped")

	// ErrRunning is returned when Run is called on a runner that is already running.
	ErrRunning = errors.New("runner already running")
)
