package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-tonguetug/pkg/game"
	"github.com/teslashibe/go-tonguetug/pkg/tracking"
)

const gameFile = `
server:
  port: "9090"
  log_level: debug
  overlay: true
mode: versus
tracking:
  smoothing_window: 7
  time_window: 800ms
  min_hold_frames: 2
estimator:
  opening_threshold: 0.25
opponent:
  base_rate: 2
  min_interval: 500ms
  max_interval: 900ms
  base_pull_interval: 2s
`

func TestLoadFromReader(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(gameFile))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.Port != "9090" || cfg.Server.LogLevel != "debug" || !cfg.Server.Overlay {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.ServiceName != "tonguetug" {
		t.Errorf("service name = %q, want default kept", cfg.Server.ServiceName)
	}
	if cfg.Mode != "versus" {
		t.Errorf("mode = %q", cfg.Mode)
	}
	if cfg.Tracking.TimeWindow != 800*time.Millisecond {
		t.Errorf("time window = %v", cfg.Tracking.TimeWindow)
	}
}

func TestLoadFromReaderEmpty(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.Port != DefaultPort || cfg.Mode != DefaultMode {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadFromReaderRejectsUnknownFields(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("mode: solo\nsurprise: 1\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad log level", func(c *Config) { c.Server.LogLevel = "loud" }, "server.log_level"},
		{"bad mode", func(c *Config) { c.Mode = "tag" }, "mode"},
		{"positive left threshold", func(c *Config) { c.Tracking.LeftThreshold = 0.1 }, "left_threshold"},
		{"confidence out of range", func(c *Config) { c.Tracking.MinConfidence = 2 }, "min_confidence"},
		{"negative confidence", func(c *Config) { c.Tracking.MinConfidence = -0.1 }, "min_confidence"},
		{"zero confidence keeps preset", func(c *Config) { c.Tracking.MinConfidence = 0 }, ""},
		{"inverted intervals", func(c *Config) {
			c.Opponent.MinInterval = 2 * time.Second
			c.Opponent.MaxInterval = time.Second
		}, "min_interval"},
		{"weak pull multiplier", func(c *Config) { c.Opponent.MaxPullMultiplier = 0.5 }, "max_pull_multiplier"},
		{"opening threshold", func(c *Config) { c.Estimator.OpeningThreshold = 1.5 }, "opening_threshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateUnknownModeWrapsSentinel(t *testing.T) {
	cfg := Default()
	cfg.Mode = "tag"
	if err := Validate(cfg); !errors.Is(err, game.ErrUnknownMode) {
		t.Errorf("err = %v, want ErrUnknownMode", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game.yaml")
	if err := os.WriteFile(path, []byte(gameFile), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("Load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("GAME_MODE", "challenge")
	t.Setenv("OVERLAY", "true")
	t.Setenv("LOG_LEVEL", "")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Server.Port != "7000" || cfg.Mode != "challenge" || !cfg.Server.Overlay {
		t.Errorf("after env = %+v", cfg)
	}
	if cfg.Server.LogLevel != DefaultLogLevel {
		t.Errorf("empty LOG_LEVEL should keep %q, got %q", DefaultLogLevel, cfg.Server.LogLevel)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env should not fail: %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TONGUETUG_TEST_VALUE=from-dotenv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TONGUETUG_TEST_VALUE", "")
	os.Unsetenv("TONGUETUG_TEST_VALUE")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := GetEnv("TONGUETUG_TEST_VALUE", "fallback"); got != "from-dotenv" {
		t.Errorf("value = %q", got)
	}
}

func TestGameOptions(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(gameFile))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	opts := cfg.GameOptions()
	if opts.Mode != game.ModeVersus {
		t.Errorf("mode = %q", opts.Mode)
	}
	if opts.Tuning == nil || opts.Tuning.SmoothingWindow != 7 || opts.Tuning.TimeWindowMs != 800 || opts.Tuning.MinHoldFrames != 2 {
		t.Errorf("tuning = %+v", opts.Tuning)
	}
	if opts.Estimator.OpeningThreshold != 0.25 {
		t.Errorf("estimator = %+v", opts.Estimator)
	}
	if opts.Rate.BaseRate != 2 || opts.Rate.MaxInterval != 900*time.Millisecond {
		t.Errorf("rate = %+v", opts.Rate)
	}
	if opts.Pull.BasePullInterval != 2*time.Second {
		t.Errorf("pull = %+v", opts.Pull)
	}

	session, err := game.NewSession(opts)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if got := session.Tuning(); got.SmoothingWindow != 7 || got.MinHoldFrames != 2 {
		t.Errorf("session tuning = %+v", got)
	}

	if Default().GameOptions().Tuning != nil {
		t.Error("default config should not override tuning")
	}
}

func TestMinConfidenceZeroKeepsPreset(t *testing.T) {
	preset := tracking.DefaultConfig().MinConfidence

	tests := []struct {
		name string
		set  float64
		want float64
	}{
		{"zero keeps preset", 0, preset},
		{"explicit floor applies", 0.6, 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Tracking.SmoothingWindow = 7
			cfg.Tracking.MinConfidence = tt.set
			if err := Validate(cfg); err != nil {
				t.Fatalf("Validate: %v", err)
			}

			session, err := game.NewSession(cfg.GameOptions())
			if err != nil {
				t.Fatalf("NewSession: %v", err)
			}
			if got := session.Tuning().MinConfidence; got != tt.want {
				t.Errorf("MinConfidence = %v, want %v", got, tt.want)
			}
		})
	}
}
