package dsp

import (
	"math"
	"testing"
)

func TestParseShape(t *testing.T) {
	for _, s := range []Shape{ShapeSine, ShapeTriangle, ShapeSawtooth, ShapeSquare, ShapeAdditive} {
		got, err := ParseShape(s.String())
		if err != nil {
			t.Fatalf("ParseShape(%q): %v", s.String(), err)
		}
		if got != s {
			t.Fatalf("round trip mismatch: got=%v want=%v", got, s)
		}
	}
	if got, err := ParseShape(" SAW "); err != nil || got != ShapeSawtooth {
		t.Fatalf("saw alias: got=%v err=%v", got, err)
	}
	if _, err := ParseShape("noise"); err == nil {
		t.Fatalf("expected error for unknown shape")
	}
}

func TestOscillatorSineMatchesFormula(t *testing.T) {
	const sr = 44100
	o := NewOscillator(ShapeSine, 440, sr, nil)
	for _, i := range []int{0, 1, 100, 44099} {
		want := math.Sin(2 * math.Pi * 440 * float64(i) / sr)
		if got := o.At(i); got != want {
			t.Fatalf("sample %d: got=%f want=%f", i, got, want)
		}
	}
}

func TestOscillatorShapesStayBounded(t *testing.T) {
	const sr = 44100
	for _, shape := range []Shape{ShapeSine, ShapeTriangle, ShapeSawtooth, ShapeSquare} {
		o := NewOscillator(shape, 261.63, sr, nil)
		var energy float64
		for i := 0; i < sr/10; i++ {
			v := o.At(i)
			if math.IsNaN(v) || math.Abs(v) > 1.0+1e-9 {
				t.Fatalf("%v sample %d out of range: %f", shape, i, v)
			}
			energy += v * v
		}
		if energy < 1 {
			t.Fatalf("%v produced near silence: energy=%f", shape, energy)
		}
	}
}

func TestSawtoothIsBandLimitedAtWrap(t *testing.T) {
	const sr = 44100
	freq := 1000.0
	o := NewOscillator(ShapeSawtooth, freq, sr, nil)
	// The naive sawtooth jumps by 2 at every wrap; the corrected one spreads
	// the step so consecutive samples never differ by the full swing.
	maxStep := 0.0
	for i := 1; i < sr/10; i++ {
		d := math.Abs(o.At(i) - o.At(i-1))
		if d > maxStep {
			maxStep = d
		}
	}
	if maxStep >= 1.9 {
		t.Fatalf("expected softened discontinuity, max step=%f", maxStep)
	}
}

func TestAdditiveDropsPartialsAboveNyquist(t *testing.T) {
	partials := []Partial{
		{Ratio: 1, Weight: 1},
		{Ratio: 30, Weight: 0.5},
	}
	o := NewOscillator(ShapeAdditive, 1000, 44100, partials)
	if len(o.partials) != 1 {
		t.Fatalf("expected the 30 kHz partial to be dropped, got %d partials", len(o.partials))
	}
	high := NewOscillator(ShapeAdditive, 30000, 44100, partials)
	if high.Shape() != ShapeSine {
		t.Fatalf("expected sine fallback when no partial is audible, got %v", high.Shape())
	}
}

func TestAdditivePartialsDecay(t *testing.T) {
	const sr = 44100
	o := NewOscillator(ShapeAdditive, 220, sr, []Partial{{Ratio: 1, Weight: 1, Decay: 6}})
	early := peakAbs(o, 0, sr/10)
	late := peakAbs(o, sr, sr+sr/10)
	if late >= early*0.1 {
		t.Fatalf("expected strong decay after 1s: early=%f late=%f", early, late)
	}
}

func TestLowpassAttenuatesHighFrequencies(t *testing.T) {
	const sr = 44100
	measure := func(freq float64) float64 {
		lp := NewLowpass(1000, sr, 0.707)
		o := NewOscillator(ShapeSine, freq, sr, nil)
		buf := make([]float64, sr/2)
		for i := range buf {
			buf[i] = o.At(i)
		}
		lp.ProcessInPlace(buf)
		var rms float64
		for _, v := range buf[sr/4:] {
			rms += v * v
		}
		return math.Sqrt(rms / float64(len(buf[sr/4:])))
	}
	low := measure(200)
	high := measure(8000)
	if high >= low*0.1 {
		t.Fatalf("lowpass ineffective: low=%f high=%f", low, high)
	}
}

func TestBiquadReset(t *testing.T) {
	lp := NewLowpass(500, 48000, 0.707)
	first := lp.Process(1)
	lp.Process(0.5)
	lp.Reset()
	if got := lp.Process(1); got != first {
		t.Fatalf("reset did not clear state: got=%f want=%f", got, first)
	}
}

func peakAbs(o *Oscillator, from, to int) float64 {
	m := 0.0
	for i := from; i < to; i++ {
		if v := math.Abs(o.At(i)); v > m {
			m = v
		}
	}
	return m
}
