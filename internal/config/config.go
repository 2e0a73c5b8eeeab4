// Package config provides configuration loading for go-tonguetug commands:
// environment variables (optionally from a .env file) and a YAML game file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-tonguetug/pkg/game"
	"github.com/teslashibe/go-tonguetug/pkg/opponent"
	"github.com/teslashibe/go-tonguetug/pkg/tracking"
	"github.com/teslashibe/go-tonguetug/pkg/tracking/detection"
)

// Default server configuration.
const (
	DefaultPort     = "8080"
	DefaultLogLevel = "info"
	DefaultMode     = "solo"
)

// Server holds process-level settings.
type Server struct {
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	Overlay     bool   `yaml:"overlay"`      // Annotate incoming JPEG frames
	ServiceName string `yaml:"service_name"` // Reported in metrics
}

// Tracking mirrors tracking.Config in YAML form. Zero values mean "use the mode preset".
type Tracking struct {
	SmoothingWindow int           `yaml:"smoothing_window"`
	MinConfidence   float64       `yaml:"min_confidence"` // (0, 1]; 0 keeps the preset floor
	LeftThreshold   float64       `yaml:"left_threshold"`
	RightThreshold  float64       `yaml:"right_threshold"`
	TimeWindow      time.Duration `yaml:"time_window"`
	MinHoldFrames   int           `yaml:"min_hold_frames"`
}

// Opponent mirrors the opponent configs in YAML form. Zero values mean "use defaults".
type Opponent struct {
	BaseRate    float64       `yaml:"base_rate"`
	Randomness  float64       `yaml:"randomness"`
	MinInterval time.Duration `yaml:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval"`

	BasePullStrength  float64       `yaml:"base_pull_strength"`
	BasePullInterval  time.Duration `yaml:"base_pull_interval"`
	MaxPullMultiplier float64       `yaml:"max_pull_multiplier"`
}

// Estimator mirrors detection.EstimatorConfig. Zero values mean "use defaults".
type Estimator struct {
	OpeningThreshold  float64 `yaml:"opening_threshold"`
	ConfidenceSlope   float64 `yaml:"confidence_slope"`
	AmplificationGain float64 `yaml:"amplification_gain"`
}

// Config is the whole game file.
type Config struct {
	Server    Server    `yaml:"server"`
	Mode      string    `yaml:"mode"`
	Tracking  Tracking  `yaml:"tracking"`
	Estimator Estimator `yaml:"estimator"`
	Opponent  Opponent  `yaml:"opponent"`
}

// Default returns a configuration with every server field populated.
func Default() *Config {
	return &Config{
		Server: Server{
			Port:        DefaultPort,
			LogLevel:    DefaultLogLevel,
			ServiceName: "tonguetug",
		},
		Mode: DefaultMode,
	}
}

// LoadDotEnv loads a .env file into the process environment.
// A missing file is not an error; system environment variables are used instead.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// GetEnv returns the value of the environment variable named by the key,
// or fallback if the variable is not set.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

// GetEnvBool parses a boolean environment variable, returning fallback when unset or invalid.
func GetEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// Load reads the YAML game file at path on top of Default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r on top of Default and validates the result.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides file values with PORT, LOG_LEVEL, GAME_MODE and OVERLAY.
func (c *Config) ApplyEnv() {
	c.Server.Port = GetEnv("PORT", c.Server.Port)
	c.Server.LogLevel = GetEnv("LOG_LEVEL", c.Server.LogLevel)
	c.Mode = GetEnv("GAME_MODE", c.Mode)
	c.Server.Overlay = GetEnvBool("OVERLAY", c.Server.Overlay)
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing every failure found.
func Validate(cfg *Config) error {
	var errs []error

	switch cfg.Server.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Mode != "" {
		if _, err := game.ParseMode(cfg.Mode); err != nil {
			errs = append(errs, fmt.Errorf("mode: %w", err))
		}
	}

	t := cfg.Tracking
	if t.SmoothingWindow < 0 {
		errs = append(errs, fmt.Errorf("tracking.smoothing_window %d must not be negative", t.SmoothingWindow))
	}
	if t.MinConfidence < 0 || t.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("tracking.min_confidence %.2f is out of range (0, 1]", t.MinConfidence))
	}
	if t.LeftThreshold > 0 {
		errs = append(errs, fmt.Errorf("tracking.left_threshold %g must not be positive", t.LeftThreshold))
	}
	if t.RightThreshold < 0 {
		errs = append(errs, fmt.Errorf("tracking.right_threshold %g must not be negative", t.RightThreshold))
	}
	if t.TimeWindow < 0 {
		errs = append(errs, fmt.Errorf("tracking.time_window %v must not be negative", t.TimeWindow))
	}

	e := cfg.Estimator
	if e.OpeningThreshold < 0 || e.OpeningThreshold >= 1 {
		errs = append(errs, fmt.Errorf("estimator.opening_threshold %.2f is out of range [0, 1)", e.OpeningThreshold))
	}
	if e.ConfidenceSlope < 0 || e.AmplificationGain < 0 {
		errs = append(errs, errors.New("estimator.confidence_slope and estimator.amplification_gain must not be negative"))
	}

	o := cfg.Opponent
	if o.Randomness < 0 || o.Randomness >= 1 {
		errs = append(errs, fmt.Errorf("opponent.randomness %.2f is out of range [0, 1)", o.Randomness))
	}
	if o.MinInterval > 0 && o.MaxInterval > 0 && o.MinInterval > o.MaxInterval {
		errs = append(errs, fmt.Errorf("opponent.min_interval %v exceeds max_interval %v", o.MinInterval, o.MaxInterval))
	}
	if o.MaxPullMultiplier != 0 && o.MaxPullMultiplier < 1 {
		errs = append(errs, fmt.Errorf("opponent.max_pull_multiplier %.2f must be at least 1", o.MaxPullMultiplier))
	}

	return errors.Join(errs...)
}

// GameOptions converts the file into session options.
// Tracking values are applied as tuning so they survive mode changes.
func (c *Config) GameOptions() game.Options {
	opts := game.Options{
		Mode: game.Mode(c.Mode),
		Estimator: detection.EstimatorConfig{
			OpeningThreshold:  c.Estimator.OpeningThreshold,
			ConfidenceSlope:   c.Estimator.ConfidenceSlope,
			AmplificationGain: c.Estimator.AmplificationGain,
		},
		Rate: opponent.RateConfig{
			BaseRate:    c.Opponent.BaseRate,
			Randomness:  c.Opponent.Randomness,
			MinInterval: c.Opponent.MinInterval,
			MaxInterval: c.Opponent.MaxInterval,
		},
		Pull: opponent.PullConfig{
			BasePullStrength:  c.Opponent.BasePullStrength,
			BasePullInterval:  c.Opponent.BasePullInterval,
			MaxPullMultiplier: c.Opponent.MaxPullMultiplier,
		},
	}

	if c.Tracking != (Tracking{}) {
		t := c.Tracking
		opts.Tuning = &tracking.TuningParams{
			SmoothingWindow: t.SmoothingWindow,
			MinConfidence:   t.MinConfidence,
			LeftThreshold:   t.LeftThreshold,
			RightThreshold:  t.RightThreshold,
			TimeWindowMs:    int(t.TimeWindow / time.Millisecond),
			MinHoldFrames:   t.MinHoldFrames,
		}
	}
	return opts
}
