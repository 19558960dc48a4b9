// Package config loads runtime settings from CHORDSYNTH_* environment
// variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cwbudde/algo-chord/internal/mathx"
	"github.com/cwbudde/algo-chord/synth"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port           int
	AllowedOrigins []string
	RequestTimeout time.Duration

	// Engine
	SampleRate           int
	Channels             int
	MaxDuration          float64 // seconds per chord
	MaxProgressionChords int
	PresetsFile          string // optional JSON/YAML preset overrides

	// Artifact cache
	CacheSize int

	// Logging
	LogLevel    string
	Development bool
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:           envInt("CHORDSYNTH_PORT", 8080),
		AllowedOrigins: envList("CHORDSYNTH_ALLOWED_ORIGINS", []string{"*"}),
		RequestTimeout: time.Duration(envInt("CHORDSYNTH_REQUEST_TIMEOUT", 30)) * time.Second,

		SampleRate:           envInt("CHORDSYNTH_SAMPLE_RATE", synth.DefaultSampleRate),
		Channels:             mathx.Clamp(envInt("CHORDSYNTH_CHANNELS", 1), 1, 2),
		MaxDuration:          envFloat("CHORDSYNTH_MAX_DURATION", synth.DefaultMaxDuration),
		MaxProgressionChords: envInt("CHORDSYNTH_MAX_CHORDS", synth.DefaultMaxProgressionChords),
		PresetsFile:          envStr("CHORDSYNTH_PRESETS_FILE", ""),

		CacheSize: mathx.Max(envInt("CHORDSYNTH_CACHE_SIZE", 64), 1),

		LogLevel:    envStr("CHORDSYNTH_LOG_LEVEL", "info"),
		Development: envBool("CHORDSYNTH_DEV", false),
	}
}

// Engine returns the synth configuration described by c.
func (c Config) Engine() synth.Config {
	cfg := synth.DefaultConfig()
	cfg.SampleRate = c.SampleRate
	cfg.Channels = c.Channels
	cfg.MaxDuration = c.MaxDuration
	cfg.MaxProgressionChords = c.MaxProgressionChords
	return cfg
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
