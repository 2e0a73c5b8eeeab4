// tonguetug: tongue tug-of-war game server.
// Browsers stream face landmarks over /ws/landmarks; scores and the rope
// position are pushed to viewers on /ws/state.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-tonguetug/internal/config"
	"github.com/teslashibe/go-tonguetug/internal/log"
	"github.com/teslashibe/go-tonguetug/pkg/feed"
	"github.com/teslashibe/go-tonguetug/pkg/game"
	"github.com/teslashibe/go-tonguetug/pkg/ingest"
	"github.com/teslashibe/go-tonguetug/pkg/observe"
	"github.com/teslashibe/go-tonguetug/pkg/overlay"
	"github.com/teslashibe/go-tonguetug/pkg/web"
)

var (
	version    = "1.0.0"
	configPath = flag.String("config", "", "YAML game file")
	port       = flag.String("port", "", "HTTP server port (overrides config and PORT)")
	mode       = flag.String("mode", "", "Game mode: solo, challenge or versus")
	logLevel   = flag.String("log-level", "", "debug, info, warn or error")
	withImages = flag.Bool("overlay", false, "Annotate incoming JPEG frames for /ws/overlay")
	replayPath = flag.String("replay", "", "Play a recorded JSONL landmark file instead of the websocket feed")
	demo       = flag.Bool("demo", false, "Play synthetic players instead of the websocket feed")
)

func main() {
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Warn("could not load .env", "error", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Init("info")
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log.Init(cfg.Server.LogLevel)

	if err := run(cfg); err != nil {
		log.Error("exited with error", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()

	if *port != "" {
		cfg.Server.Port = *port
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *logLevel != "" {
		cfg.Server.LogLevel = *logLevel
	}
	if *withImages {
		cfg.Server.Overlay = true
	}
	return cfg, config.Validate(cfg)
}

func run(cfg *config.Config) error {
	logger := log.Component("main")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Server.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownMetrics(sctx)
	}()
	metrics := observe.DefaultMetrics()

	opts := cfg.GameOptions()
	opts.Metrics = metrics
	session, err := game.NewSession(opts)
	if err != nil {
		return err
	}

	runner := game.NewRunner(session, metrics)
	server := web.NewServer(cfg.Server.Port, session, metrics)
	server.OnStop = runner.Stop
	runner.OnState(server.PublishState)
	runner.OnStatus(server.PublishStatus)

	src := source(server, session, cfg.Server.Overlay)

	logger.Info("starting",
		"version", version,
		"session", session.ID(),
		"mode", session.Mode(),
		"port", cfg.Server.Port,
		"overlay", cfg.Server.Overlay,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return server.Shutdown()
	})
	g.Go(func() error {
		err := runner.Run(gctx, src)
		if errors.Is(err, game.ErrSourceInit) {
			return err
		}
		// A finished or stopped run leaves the server up so scores stay readable
		return nil
	})

	err = g.Wait()
	logger.Info("stopped", "frames", session.Snapshot().Frames, "skipped", runner.Skipped())
	return err
}

// source picks where frames come from: a recording, the demo, or the ingest websocket.
func source(server *web.Server, session *game.Session, annotate bool) game.Source {
	switch {
	case *replayPath != "":
		return game.NewReplaySource(*replayPath, true)
	case *demo:
		cfg := feed.DefaultDemoConfig()
		cfg.Players = session.Mode().Players()
		return feed.NewDemo(cfg)
	}

	frames := game.NewChannelSource(0)
	var renderer *overlay.Renderer
	if annotate {
		renderer = overlay.NewRenderer(overlay.DefaultQuality)
	}
	logger := log.Component("ingest")

	server.Ingest().OnFrame(func(f ingest.Frame) {
		if err := frames.Push(f.Frame); err != nil {
			return
		}
		if renderer == nil || len(f.Image) == 0 {
			return
		}
		jpeg, err := renderer.Render(f.Image, f.Frame, session.Snapshot())
		if err != nil {
			logger.Debug("overlay failed", "conn", f.ConnID, "error", err)
			return
		}
		server.PublishOverlay(jpeg)
	})
	return frames
}
