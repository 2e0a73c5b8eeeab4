package game

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-tonguetug/pkg/landmark"
)

// Source delivers landmark frames to a Runner.
type Source interface {
	// Start prepares the source. An error here is terminal for the run.
	Start(ctx context.Context) error
	// Next blocks until the next frame. io.EOF or ErrStopped ends the run;
	// any other error skips one frame.
	Next(ctx context.Context) (landmark.Frame, error)
	// Close releases the source.
	Close() error
}

// ChannelSource is fed by Push, typically from the websocket ingest.
// When the buffer is full the oldest frame is dropped.
type ChannelSource struct {
	frames  chan landmark.Frame
	done    chan struct{}
	once    sync.Once
	dropped atomic.Uint64
}

// NewChannelSource creates a source buffering up to size frames.
func NewChannelSource(size int) *ChannelSource {
	if size <= 0 {
		size = 8
	}
	return &ChannelSource{
		frames: make(chan landmark.Frame, size),
		done:   make(chan struct{}),
	}
}

// Start fails only if the source was already closed.
func (c *ChannelSource) Start(ctx context.Context) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
		return nil
	}
}

// Push queues a frame.
func (c *ChannelSource) Push(frame landmark.Frame) error {
	select {
	case <-c.done:
		return ErrStopped
	default:
	}

	select {
	case c.frames <- frame:
		return nil
	default:
	}

	// Full: drop the oldest and retry once.
	select {
	case <-c.frames:
		c.dropped.Add(1)
	default:
	}
	select {
	case c.frames <- frame:
	default:
		c.dropped.Add(1)
	}
	return nil
}

// Next returns the next pushed frame.
func (c *ChannelSource) Next(ctx context.Context) (landmark.Frame, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case <-c.done:
		return landmark.Frame{}, ErrStopped
	case <-ctx.Done():
		return landmark.Frame{}, ctx.Err()
	}
}

// Close stops the source. Safe to call more than once.
func (c *ChannelSource) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// Dropped returns how many frames were discarded because the buffer was full.
func (c *ChannelSource) Dropped() uint64 {
	return c.dropped.Load()
}

// ReplaySource reads frames from a JSON Lines recording, one landmark.Frame
// per line. With Pace set, it waits out the gaps between recorded timestamps.
type ReplaySource struct {
	Path string
	Pace bool
	Loop bool

	open    func() (io.ReadCloser, error)
	rc      io.ReadCloser
	scanner *bufio.Scanner
	lastTS  int64
	line    int
}

// NewReplaySource creates a source reading the file at path.
func NewReplaySource(path string, pace bool) *ReplaySource {
	return &ReplaySource{
		Path: path,
		Pace: pace,
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// NewReaderSource replays from an in-memory reader. Loop is not supported.
func NewReaderSource(r io.Reader, pace bool) *ReplaySource {
	return &ReplaySource{
		Path: "<reader>",
		Pace: pace,
		open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

// Start opens the recording.
func (r *ReplaySource) Start(ctx context.Context) error {
	rc, err := r.open()
	if err != nil {
		return fmt.Errorf("open recording %s: %w", r.Path, err)
	}
	r.rc = rc
	r.scanner = bufio.NewScanner(rc)
	r.scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	r.lastTS = 0
	r.line = 0
	return nil
}

// Next decodes the next line. A malformed line is returned as an error and skipped.
func (r *ReplaySource) Next(ctx context.Context) (landmark.Frame, error) {
	if r.scanner == nil {
		return landmark.Frame{}, ErrStopped
	}
	if err := ctx.Err(); err != nil {
		return landmark.Frame{}, err
	}

	for {
		if r.scanner.Scan() {
			break
		}
		if err := r.scanner.Err(); err != nil {
			return landmark.Frame{}, fmt.Errorf("read recording: %w", err)
		}
		if !r.Loop {
			return landmark.Frame{}, io.EOF
		}
		if err := r.rewind(ctx); err != nil {
			return landmark.Frame{}, err
		}
	}
	r.line++

	raw := r.scanner.Bytes()
	if len(raw) == 0 {
		return landmark.Frame{}, fmt.Errorf("%w: line %d is empty", ErrInvalidFrame, r.line)
	}

	var frame landmark.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return landmark.Frame{}, fmt.Errorf("%w: line %d: %v", ErrInvalidFrame, r.line, err)
	}

	if r.Pace && r.lastTS > 0 && frame.Timestamp > r.lastTS {
		gap := time.Duration(frame.Timestamp-r.lastTS) * time.Millisecond
		timer := time.NewTimer(gap)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return landmark.Frame{}, ctx.Err()
		}
	}
	if frame.Timestamp > 0 {
		r.lastTS = frame.Timestamp
	}
	return frame, nil
}

func (r *ReplaySource) rewind(ctx context.Context) error {
	if err := r.Close(); err != nil {
		return err
	}
	if err := r.Start(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStopped, err)
	}
	return nil
}

// Close releases the file.
func (r *ReplaySource) Close() error {
	if r.rc == nil {
		return nil
	}
	err := r.rc.Close()
	r.rc = nil
	r.scanner = nil
	return err
}
