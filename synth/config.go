package synth

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-chord/irsynth"
)

// Output format defaults.
const (
	DefaultSampleRate           = 44100
	DefaultMaxDuration          = 30.0
	DefaultMaxProgressionChords = 64
)

// Config fixes the engine's output format and request limits.
type Config struct {
	SampleRate int
	// Channels is 1 (mono) or 2 (stereo duplicate with a stereo room).
	Channels int
	// MaxDuration caps a single chord's length in seconds; longer requests
	// are clamped, not rejected.
	MaxDuration          float64
	MaxProgressionChords int
	// Room is the template for the room IRs. Its sample rate and channel
	// count are forced to the output format, and its decay applies to
	// presets that leave RoomDecay at zero.
	Room irsynth.RoomConfig
}

// DefaultConfig returns 44.1 kHz mono output with a 30 s chord limit.
func DefaultConfig() Config {
	return Config{
		SampleRate:           DefaultSampleRate,
		Channels:             1,
		MaxDuration:          DefaultMaxDuration,
		MaxProgressionChords: DefaultMaxProgressionChords,
		Room:                 irsynth.DefaultRoomConfig(DefaultSampleRate),
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample rate must be in [8000,192000], got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	}
	if !(c.MaxDuration > 0) || math.IsInf(c.MaxDuration, 0) {
		return fmt.Errorf("max duration must be > 0")
	}
	if c.MaxProgressionChords < 1 {
		return fmt.Errorf("max progression chords must be >= 1")
	}
	if err := c.roomConfig(c.Room.Decay).Validate(); err != nil {
		return fmt.Errorf("room: %w", err)
	}
	return nil
}

// roomConfig returns the room template at the output format with the given
// decay.
func (c *Config) roomConfig(decay float64) irsynth.RoomConfig {
	room := c.Room
	room.SampleRate = c.SampleRate
	room.Channels = c.Channels
	room.Decay = decay
	return room
}

// checkDuration rejects non-positive and non-finite durations, and those
// too short to hold a single sample frame, and clamps the rest to
// MaxDuration.
func (c *Config) checkDuration(d float64) (float64, error) {
	if math.IsNaN(d) || math.IsInf(d, 0) || d <= 0 {
		return 0, fmt.Errorf("duration must be a finite value > 0, got %v", d)
	}
	if d > c.MaxDuration {
		d = c.MaxDuration
	}
	if frameCount(d, c.SampleRate) == 0 {
		return 0, fmt.Errorf("duration %v s is shorter than one sample at %d Hz", d, c.SampleRate)
	}
	return d, nil
}
