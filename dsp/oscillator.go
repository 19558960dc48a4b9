package dsp

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-approx"
)

// Shape selects the basis waveform of a voice.
type Shape int

const (
	ShapeSine Shape = iota
	ShapeTriangle
	ShapeSawtooth
	ShapeSquare
	// ShapeAdditive sums a fundamental and harmonic sine partials.
	ShapeAdditive
)

var shapeNames = [...]string{
	ShapeSine:     "sine",
	ShapeTriangle: "triangle",
	ShapeSawtooth: "sawtooth",
	ShapeSquare:   "square",
	ShapeAdditive: "additive",
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("Shape(%d)", int(s))
	}
	return shapeNames[s]
}

// ParseShape maps a shape name (case-insensitive; "saw" is accepted) to a Shape.
func ParseShape(name string) (Shape, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "saw" {
		return ShapeSawtooth, nil
	}
	for i, s := range shapeNames {
		if s == n {
			return Shape(i), nil
		}
	}
	return 0, fmt.Errorf("unknown waveform shape %q", name)
}

// Partial is one sine component of an additive voice: frequency ratio to the
// fundamental, linear weight and exponential decay rate in 1/s.
type Partial struct {
	Ratio  float64 `json:"ratio" yaml:"ratio"`
	Weight float64 `json:"weight" yaml:"weight"`
	Decay  float64 `json:"decay" yaml:"decay"`
}

// Oscillator evaluates one basis waveform at a fixed frequency. Samples are
// computed from absolute time so any index can be queried independently.
type Oscillator struct {
	shape      Shape
	freq       float64
	sampleRate float64
	dt         float64 // phase increment per sample
	partials   []Partial
}

// NewOscillator prepares a basis waveform. Partials are only used by
// ShapeAdditive; components at or above Nyquist are dropped. An additive
// oscillator without audible partials degrades to a plain sine.
func NewOscillator(shape Shape, freq float64, sampleRate int, partials []Partial) *Oscillator {
	o := &Oscillator{
		shape:      shape,
		freq:       freq,
		sampleRate: float64(sampleRate),
		dt:         freq / float64(sampleRate),
	}
	if shape == ShapeAdditive {
		nyquist := 0.5 * o.sampleRate
		for _, p := range partials {
			if p.Ratio <= 0 || p.Weight == 0 || p.Ratio*freq >= nyquist {
				continue
			}
			o.partials = append(o.partials, p)
		}
		if len(o.partials) == 0 {
			o.shape = ShapeSine
		}
	}
	return o
}

// Shape returns the effective shape (after the additive fallback).
func (o *Oscillator) Shape() Shape { return o.shape }

// At returns the basis sample for index i, t = i / sampleRate.
func (o *Oscillator) At(i int) float64 {
	t := float64(i) / o.sampleRate
	switch o.shape {
	case ShapeSine:
		return math.Sin(2 * math.Pi * o.freq * t)
	case ShapeTriangle:
		phase := frac(o.freq * t)
		return 2*math.Abs(2*phase-1) - 1
	case ShapeSawtooth:
		phase := frac(o.freq * t)
		return 2*phase - 1 - polyBLEP(phase, o.dt)
	case ShapeSquare:
		phase := frac(o.freq * t)
		v := 1.0
		if phase >= 0.5 {
			v = -1.0
		}
		return v + polyBLEP(phase, o.dt) - polyBLEP(frac(phase+0.5), o.dt)
	case ShapeAdditive:
		var sum float64
		for _, p := range o.partials {
			amp := p.Weight
			if p.Decay > 0 {
				amp *= float64(approx.FastExp(float32(-p.Decay * t)))
			}
			sum += amp * math.Sin(2*math.Pi*p.Ratio*o.freq*t)
		}
		return sum
	}
	panic(fmt.Sprintf("dsp: unhandled shape %v", o.shape))
}

// polyBLEP is the two-sample polynomial correction that removes most of the
// aliasing of a naive step discontinuity at phase 0.
func polyBLEP(phase, dt float64) float64 {
	if dt <= 0 || dt >= 0.5 {
		return 0
	}
	switch {
	case phase < dt:
		x := phase / dt
		return x + x - x*x - 1
	case phase > 1-dt:
		x := (phase - 1) / dt
		return x*x + x + x + 1
	}
	return 0
}

func frac(x float64) float64 {
	return x - math.Floor(x)
}
