package preset

import "github.com/cwbudde/algo-chord/dsp"

// Builtin returns a registry with the stock presets. "piano" is the default.
func Builtin() *Registry {
	return NewRegistry(BuiltinPresets()...)
}

// BuiltinPresets returns fresh copies of the stock presets.
func BuiltinPresets() []Preset {
	return []Preset{
		{
			Name:  "piano",
			Shape: dsp.ShapeAdditive,
			Harmonics: []dsp.Partial{
				{Ratio: 1, Weight: 1.0, Decay: 1.2},
				{Ratio: 2, Weight: 0.5, Decay: 2.4},
				{Ratio: 3, Weight: 0.25, Decay: 3.6},
				{Ratio: 4, Weight: 0.12, Decay: 4.8},
				{Ratio: 5, Weight: 0.06, Decay: 6.0},
			},
			ADSR: dsp.ADSR{Attack: 0.005, Decay: 0.12, Sustain: 0.20, Release: 0.15},
		},
		{
			Name:   "strings",
			Shape:  dsp.ShapeSawtooth,
			ADSR:   dsp.ADSR{Attack: 0.4, Decay: 0.3, Sustain: 0.7, Release: 0.6},
			Gain:   0.8,
			Cutoff: 3500,
		},
		{
			Name:  "pluck",
			Shape: dsp.ShapeTriangle,
			ADSR:  dsp.ADSR{Attack: 0.002, Decay: 0.08, Sustain: 0.0, Release: 0.10},
		},
		{
			Name:   "accordion",
			Shape:  dsp.ShapeSawtooth,
			ADSR:   dsp.ADSR{Attack: 0.20, Decay: 0.20, Sustain: 0.80, Release: 0.20},
			Gain:   0.7,
			Cutoff: 5000,
		},
		{
			Name:  "pad",
			Shape: dsp.ShapeAdditive,
			Harmonics: []dsp.Partial{
				{Ratio: 1, Weight: 1.0},
				{Ratio: 2, Weight: 0.35},
				{Ratio: 3, Weight: 0.15},
				{Ratio: 1.003, Weight: 0.4},
			},
			ADSR:      dsp.ADSR{Attack: 0.60, Decay: 0.50, Sustain: 0.70, Release: 0.80},
			Gain:      0.6,
			RoomMix:   0.35,
			RoomDecay: 1.8,
		},
		{
			Name:   "organ",
			Shape:  dsp.ShapeSquare,
			ADSR:   dsp.ADSR{Attack: 0.01, Decay: 0.05, Sustain: 0.9, Release: 0.08},
			Gain:   0.5,
			Cutoff: 2500,
		},
		{
			Name:  "sine",
			Shape: dsp.ShapeSine,
			ADSR:  dsp.ADSR{Attack: 0.01, Decay: 0.05, Sustain: 0.8, Release: 0.1},
		},
	}
}
