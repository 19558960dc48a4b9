// Package irsynth builds the synthetic room impulse responses used by the
// engine's room stage.
//
// A room is velvet noise: one signed unit impulse per grid cell at a random
// position, under an exponential envelope that falls 60 dB over the decay
// time. The first reflections are thinned out so the room opens up
// gradually, and a one-pole low-pass that closes over time darkens the
// tail. Each channel is scaled to unit energy, so convolving with it keeps
// the level of a broadband input.
package irsynth

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Decay limits in seconds (RT60).
const (
	DefaultDecay = 1.2
	MinDecay     = 0.05
	MaxDecay     = 6.0
)

const (
	// earlySeconds is the span after the pre-delay over which reflection
	// density ramps up to its full value.
	earlySeconds = 0.08
	// ln(1000): an amplitude falls 60 dB when exp(-decayLn*t/T) reaches 1e-3.
	decayLn = 6.907755278982137
)

var ErrInvalidRoom = errors.New("irsynth: invalid room")

// RoomConfig describes a room. Zero values are invalid; start from
// DefaultRoomConfig.
type RoomConfig struct {
	SampleRate int
	// Channels is 1 or 2. Stereo rooms get a second, partly decorrelated IR.
	Channels int
	// Decay is the RT60 in seconds and also the IR length.
	Decay float64
	// PreDelay is the gap before the first reflection, in seconds.
	PreDelay float64
	// Density is the number of impulses per second once the room is diffuse.
	Density float64
	// Damping in [0,1) sets how far the tail's low-pass closes by the end.
	Damping float64
	// Spread in [0,1] blends the right channel from a copy of the left (0)
	// to an independent sequence (1).
	Spread float64
	Seed   int64
}

// DefaultRoomConfig returns a medium room at sampleRate.
func DefaultRoomConfig(sampleRate int) RoomConfig {
	return RoomConfig{
		SampleRate: sampleRate,
		Channels:   2,
		Decay:      DefaultDecay,
		PreDelay:   0.012,
		Density:    2000,
		Damping:    0.6,
		Spread:     0.7,
		Seed:       1,
	}
}

// Validate reports the first out-of-range field.
func (c RoomConfig) Validate() error {
	switch {
	case c.SampleRate < 8000:
		return fmt.Errorf("%w: sample rate %d < 8000", ErrInvalidRoom, c.SampleRate)
	case c.Channels != 1 && c.Channels != 2:
		return fmt.Errorf("%w: channels must be 1 or 2, got %d", ErrInvalidRoom, c.Channels)
	case !(c.Decay >= MinDecay && c.Decay <= MaxDecay):
		return fmt.Errorf("%w: decay %v s outside [%v,%v]", ErrInvalidRoom, c.Decay, MinDecay, MaxDecay)
	case !(c.PreDelay >= 0 && c.PreDelay < c.Decay):
		return fmt.Errorf("%w: pre-delay %v s must be in [0, decay)", ErrInvalidRoom, c.PreDelay)
	case !(c.Density > 0) || math.IsInf(c.Density, 0):
		return fmt.Errorf("%w: density must be > 0", ErrInvalidRoom)
	case !(c.Damping >= 0 && c.Damping < 1):
		return fmt.Errorf("%w: damping %v outside [0,1)", ErrInvalidRoom, c.Damping)
	case !(c.Spread >= 0 && c.Spread <= 1):
		return fmt.Errorf("%w: spread %v outside [0,1]", ErrInvalidRoom, c.Spread)
	}
	return nil
}

// Room is an impulse response with one slice per output channel. It is not
// modified after GenerateRoom returns and may be shared between goroutines.
type Room struct {
	SampleRate int
	Decay      float64
	IR         [][]float64
}

// Len returns the IR length in samples.
func (r *Room) Len() int {
	if len(r.IR) == 0 {
		return 0
	}
	return len(r.IR[0])
}

// Channels returns the number of IR channels.
func (r *Room) Channels() int { return len(r.IR) }

// Channel returns the IR for output channel ch. A mono room serves every
// channel. Callers must not modify the returned slice.
func (r *Room) Channel(ch int) []float64 {
	if len(r.IR) == 0 {
		return nil
	}
	if ch < 0 || ch >= len(r.IR) {
		ch = len(r.IR) - 1
	}
	return r.IR[ch]
}

// GenerateRoom builds the room described by cfg. The result depends only on
// cfg.
func GenerateRoom(cfg RoomConfig) (*Room, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	left := velvet(cfg, rng)
	irs := [][]float64{left}
	if cfg.Channels == 2 {
		other := velvet(cfg, rng)
		right := make([]float64, len(left))
		for i := range right {
			right[i] = (1-cfg.Spread)*left[i] + cfg.Spread*other[i]
		}
		irs = append(irs, right)
	}
	for _, ir := range irs {
		darken(ir, cfg.Damping)
		unitEnergy(ir)
	}
	return &Room{SampleRate: cfg.SampleRate, Decay: cfg.Decay, IR: irs}, nil
}

// velvet returns one decaying velvet-noise sequence. The first sample after
// the pre-delay always carries an impulse, so the sequence is never silent.
func velvet(cfg RoomConfig, rng *rand.Rand) []float64 {
	sr := float64(cfg.SampleRate)
	n := int(math.Round(cfg.Decay * sr))
	out := make([]float64, n)

	first := int(math.Round(cfg.PreDelay * sr))
	if first >= n {
		first = n - 1
	}
	out[first] = 1

	cell := sr / cfg.Density
	if cell < 1 {
		cell = 1
	}
	for pos := float64(first) + cell; pos < float64(n); pos += cell {
		idx := int(pos + rng.Float64()*cell)
		sign := 1.0
		if rng.Intn(2) == 0 {
			sign = -1
		}
		// Draw both values every cell so the sequence does not depend on
		// which impulses the ramp drops.
		keep := rng.Float64()
		if idx >= n {
			break
		}
		since := float64(idx-first) / sr
		if ramp := since / earlySeconds; ramp < 1 && keep > ramp*ramp {
			continue
		}
		t := float64(idx) / sr
		out[idx] += sign * math.Exp(-decayLn*t/cfg.Decay)
	}
	return out
}

// darken runs a one-pole low-pass whose pole moves from 0 to damping over
// the length of ir.
func darken(ir []float64, damping float64) {
	if damping == 0 || len(ir) == 0 {
		return
	}
	var y float64
	step := damping / float64(len(ir))
	for i, x := range ir {
		a := step * float64(i)
		y = (1-a)*x + a*y
		ir[i] = y
	}
}

func unitEnergy(ir []float64) {
	var e float64
	for _, v := range ir {
		e += v * v
	}
	if e == 0 {
		return
	}
	g := 1 / math.Sqrt(e)
	for i := range ir {
		ir[i] *= g
	}
}
