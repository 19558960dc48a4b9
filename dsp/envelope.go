package dsp

import (
	"fmt"
	"math"
)

// ADSR holds envelope timing in seconds and the sustain level in [0,1].
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Validate rejects negative or non-finite times and a sustain level outside
// [0,1].
func (a ADSR) Validate() error {
	for _, v := range []struct {
		name string
		val  float64
	}{
		{"attack", a.Attack},
		{"decay", a.Decay},
		{"release", a.Release},
	} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) || v.val < 0 {
			return fmt.Errorf("%s must be a finite value >= 0, got %v", v.name, v.val)
		}
	}
	if math.IsNaN(a.Sustain) || a.Sustain < 0 || a.Sustain > 1 {
		return fmt.Errorf("sustain must be in [0,1], got %v", a.Sustain)
	}
	return nil
}

// Envelope is an ADSR gain curve fitted to one note duration. It is a value
// type; build one per render with NewEnvelope.
type Envelope struct {
	attack   float64
	decay    float64
	sustain  float64
	release  float64
	duration float64
}

// NewEnvelope fits adsr to duration. When attack+decay+release exceeds the
// duration the three stages are scaled down proportionally so the curve keeps
// its shape and the sustain stage collapses to nothing.
func NewEnvelope(adsr ADSR, duration float64) Envelope {
	e := Envelope{
		attack:   nonNegative(adsr.Attack),
		decay:    nonNegative(adsr.Decay),
		sustain:  clamp01(adsr.Sustain),
		release:  nonNegative(adsr.Release),
		duration: nonNegative(duration),
	}
	if total := e.attack + e.decay + e.release; total > e.duration && total > 0 {
		scale := e.duration / total
		e.attack *= scale
		e.decay *= scale
		e.release *= scale
	}
	return e
}

// Duration returns the note length the envelope was fitted to.
func (e Envelope) Duration() float64 { return e.duration }

// Stages returns the effective attack, decay and release times after fitting.
func (e Envelope) Stages() (attack, decay, release float64) {
	return e.attack, e.decay, e.release
}

// At returns the gain at time t seconds after note start, in [0,1].
func (e Envelope) At(t float64) float64 {
	if t <= 0 {
		if e.attack > 0 || e.duration <= 0 {
			return 0
		}
		t = 0
	}
	if t >= e.duration {
		return 0
	}

	releaseStart := e.duration - e.release
	var g float64
	switch {
	case t < e.attack:
		g = t / e.attack
	case t < e.attack+e.decay:
		g = 1.0 - (1.0-e.sustain)*(t-e.attack)/e.decay
	case t < releaseStart:
		g = e.sustain
	default:
		// Fitting guarantees decay has finished, so release starts at sustain.
		g = e.sustain * (e.duration - t) / e.release
	}
	return clamp01(g)
}

// Fill writes the envelope sampled at sampleRate into dst.
func (e Envelope) Fill(dst []float64, sampleRate int) {
	sr := float64(sampleRate)
	for i := range dst {
		dst[i] = e.At(float64(i) / sr)
	}
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
