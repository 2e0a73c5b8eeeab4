// replay: streams recorded or synthetic landmark frames to a tonguetug server,
// standing in for a browser during development and load tests.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-tonguetug/internal/config"
	"github.com/teslashibe/go-tonguetug/internal/log"
	"github.com/teslashibe/go-tonguetug/pkg/feed"
	"github.com/teslashibe/go-tonguetug/pkg/game"
)

var (
	server   = flag.String("server", config.GetEnv("TONGUETUG_URL", "http://localhost:8080"), "Game server base URL")
	id       = flag.String("id", "replay", "Producer id")
	file     = flag.String("file", "", "JSONL landmark recording; empty plays synthetic players")
	loop     = flag.Bool("loop", false, "Restart the recording at end of file")
	mode     = flag.String("mode", "", "Switch the server to this mode first")
	players  = flag.Int("players", 1, "Synthetic players (1 or 2)")
	frames   = flag.Int("frames", 0, "Synthetic frames to send; 0 runs until interrupted")
	reset    = flag.Bool("reset", true, "Reset scores before streaming")
	logLevel = flag.String("log-level", "info", "debug, info, warn or error")
)

func main() {
	flag.Parse()
	log.Init(*logLevel)
	logger := log.Component("replay")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := feed.NewClient(*server, *id)
	client.OnError = func(msg string) {
		logger.Warn("server rejected message", "message", msg)
	}

	if *mode != "" {
		if _, err := client.SetMode(ctx, *mode); err != nil {
			logger.Error("set mode failed", "mode", *mode, "error", err)
			os.Exit(1)
		}
	}
	if *reset {
		if _, err := client.Reset(ctx); err != nil {
			logger.Error("reset failed", "error", err)
			os.Exit(1)
		}
	}

	if err := client.Connect(ctx); err != nil {
		logger.Error("connect failed", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	var src game.Source
	if *file != "" {
		rs := game.NewReplaySource(*file, true)
		rs.Loop = *loop
		src = rs
	} else {
		cfg := feed.DefaultDemoConfig()
		cfg.Players = *players
		cfg.Limit = *frames
		src = feed.NewDemo(cfg)
	}

	start := time.Now()
	sent, failed, err := client.Stream(ctx, src)
	if err != nil {
		logger.Error("stream ended", "error", err, "sent", sent, "failed", failed)
		os.Exit(1)
	}

	status, err := client.Status(context.Background())
	if err != nil {
		logger.Warn("could not fetch final status", "error", err)
	}
	logger.Info("done",
		"sent", sent,
		"failed", failed,
		"took", time.Since(start).Round(time.Millisecond),
	)
	if status != nil {
		for _, p := range status.State.Players {
			logger.Info("score", "player", p.ID, "count", p.Count)
		}
		if status.State.AIScore != nil {
			logger.Info("score", "player", "ai", "count", *status.State.AIScore)
		}
		logger.Info("match", "position", status.State.Match.Position, "winner", status.State.Match.Winner)
	}
}
