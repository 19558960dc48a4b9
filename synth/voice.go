package synth

import (
	"math"

	"github.com/cwbudde/algo-chord/dsp"
	"github.com/cwbudde/algo-chord/preset"
)

// RenderNote synthesizes one note of freq Hz lasting duration seconds.
// It returns exactly round(duration*sampleRate) samples of
// gain * envelope(t) * basis(t). Output is not normalized.
func RenderNote(freq, duration float64, sampleRate int, p preset.Preset) []float64 {
	n := frameCount(duration, sampleRate)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	osc := dsp.NewOscillator(p.Shape, freq, sampleRate, p.Harmonics)
	var lp *dsp.Biquad
	if p.Cutoff > 0 {
		lp = dsp.NewLowpass(p.Cutoff, float64(sampleRate), 0)
	}
	env := dsp.NewEnvelope(p.ADSR, duration)
	gain := p.VoiceGain()
	sr := float64(sampleRate)

	for i := range out {
		v := osc.At(i)
		if lp != nil {
			v = lp.Process(v)
		}
		out[i] = gain * env.At(float64(i)/sr) * v
	}
	return out
}

func frameCount(duration float64, sampleRate int) int {
	if !(duration > 0) || sampleRate <= 0 {
		return 0
	}
	return int(math.Round(duration * float64(sampleRate)))
}
