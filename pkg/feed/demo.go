package feed

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/teslashibe/go-tonguetug/pkg/game"
	"github.com/teslashibe/go-tonguetug/pkg/landmark"
)

// DemoConfig shapes the synthetic players produced by Demo.
type DemoConfig struct {
	Players       int             // 1 or 2
	Width, Height int             // Reported image size
	FrameInterval time.Duration   // Timestamp step between frames
	SidePeriods   []time.Duration // Time each player holds one side, per player
	Pace          bool            // Deliver frames in real time
	Limit         int             // Frames before io.EOF; 0 runs until closed
}

// DefaultDemoConfig is two players at 20 fps, the first sweeping faster.
func DefaultDemoConfig() DemoConfig {
	return DemoConfig{
		Players:       2,
		Width:         640,
		Height:        480,
		FrameInterval: 50 * time.Millisecond,
		SidePeriods:   []time.Duration{150 * time.Millisecond, 200 * time.Millisecond},
		Pace:          true,
	}
}

const (
	demoShift   = 0.014
	demoOpening = 0.09
)

// Demo is a game.Source of synthetic faces sweeping their tongues side to side.
type Demo struct {
	config DemoConfig
	start  int64 // Unix ms of frame 0

	mu     sync.Mutex
	n      int
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

var _ game.Source = (*Demo)(nil)

// NewDemo creates a demo source; zero fields use DefaultDemoConfig.
func NewDemo(cfg DemoConfig) *Demo {
	def := DefaultDemoConfig()
	if cfg.Players <= 0 || cfg.Players > 2 {
		cfg.Players = def.Players
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = def.Width, def.Height
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = def.FrameInterval
	}
	if len(cfg.SidePeriods) < cfg.Players {
		cfg.SidePeriods = def.SidePeriods
	}
	return &Demo{config: cfg, done: make(chan struct{})}
}

// Start anchors timestamps to the current time.
func (d *Demo) Start(ctx context.Context) error {
	select {
	case <-d.done:
		return game.ErrStopped
	default:
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.start = time.Now().UnixMilli()
	d.n = 0
	if d.config.Pace {
		d.ticker = time.NewTicker(d.config.FrameInterval)
	}
	return nil
}

// Next returns the next synthetic frame.
func (d *Demo) Next(ctx context.Context) (landmark.Frame, error) {
	d.mu.Lock()
	n := d.n
	ticker := d.ticker
	d.mu.Unlock()

	if d.config.Limit > 0 && n >= d.config.Limit {
		return landmark.Frame{}, io.EOF
	}

	if ticker != nil {
		select {
		case <-ticker.C:
		case <-d.done:
			return landmark.Frame{}, game.ErrStopped
		case <-ctx.Done():
			return landmark.Frame{}, ctx.Err()
		}
	} else {
		select {
		case <-d.done:
			return landmark.Frame{}, game.ErrStopped
		case <-ctx.Done():
			return landmark.Frame{}, ctx.Err()
		default:
		}
	}

	d.mu.Lock()
	d.n++
	d.mu.Unlock()
	return d.Frame(n), nil
}

// Frame builds frame n. It does not depend on wall time beyond the start anchor.
func (d *Demo) Frame(n int) landmark.Frame {
	elapsed := time.Duration(n) * d.config.FrameInterval

	// Player 1 is rightmost in camera space
	centers := []float64{0.7, 0.3}
	if d.config.Players == 1 {
		centers = []float64{0.5}
	}

	faces := make([]landmark.Face, 0, d.config.Players)
	for i, cx := range centers {
		shift := -demoShift
		if (elapsed/d.config.SidePeriods[i])%2 == 1 {
			shift = demoShift
		}

		m := landmark.DefaultSyntheticMouth()
		m.CenterX = cx
		m.Opening = demoOpening
		m.Shift = shift
		faces = append(faces, landmark.SyntheticFace(m))
	}

	return landmark.Frame{
		Width:     d.config.Width,
		Height:    d.config.Height,
		Faces:     faces,
		Timestamp: d.start + elapsed.Milliseconds(),
	}
}

// Close stops the demo. Pending and later Next calls return game.ErrStopped.
func (d *Demo) Close() error {
	d.once.Do(func() {
		close(d.done)
		d.mu.Lock()
		if d.ticker != nil {
			d.ticker.Stop()
		}
		d.mu.Unlock()
	})
	return nil
}

// Stream sends frames from src to the server until src ends or ctx is done.
// Frames that fail to send are counted and skipped.
func (c *Client) Stream(ctx context.Context, src game.Source) (sent, failed int, err error) {
	if err := src.Start(ctx); err != nil {
		return 0, 0, err
	}
	defer src.Close()

	for {
		frame, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, game.ErrStopped) {
				return sent, failed, nil
			}
			c.logger.Debug("skipping frame", "error", err)
			failed++
			continue
		}

		if err := c.SendFrame(frame, nil); err != nil {
			if errors.Is(err, ErrNotConnected) {
				return sent, failed, err
			}
			failed++
			continue
		}
		sent++
	}
}
