package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

const (
	pitchWindow = 8192
	// A lag counts as the period once its correlation reaches this fraction
	// of the best one; picking the first such lag avoids octave errors.
	periodThreshold = 0.9

	silenceThreshold = 1e-6
)

var (
	ErrTooShort = errors.New("analysis: signal too short")
	ErrNoPitch  = errors.New("analysis: no periodicity found")
)

// EstimateFundamental returns the fundamental frequency of samples in
// [minHz, maxHz], found from the autocorrelation of up to 8192 samples
// after the first non-silent one.
func EstimateFundamental(samples []float64, sampleRate int, minHz, maxHz float64) (float64, error) {
	if sampleRate <= 0 || !(minHz > 0) || !(maxHz > minHz) {
		return 0, fmt.Errorf("analysis: bad search range %v..%v Hz at %d Hz", minHz, maxHz, sampleRate)
	}
	x := samples[onset(samples, silenceThreshold):]
	if len(x) > pitchWindow {
		x = x[:pitchWindow]
	}
	minLag := int(math.Floor(float64(sampleRate) / maxHz))
	maxLag := int(math.Ceil(float64(sampleRate) / minHz))
	if minLag < 1 {
		minLag = 1
	}
	if len(x) < 2*maxLag {
		return 0, ErrTooShort
	}

	r, err := autocorrelate(x)
	if err != nil {
		return 0, err
	}
	if r[0] <= 0 {
		return 0, ErrNoPitch
	}

	// Lags inside the zero-lag lobe correlate trivially well; the search
	// starts where r first stops falling or turns negative.
	start := pastZeroLagLobe(r, maxLag)
	if start < minLag {
		start = minLag
	}

	best := 0.0
	for lag := start; lag <= maxLag; lag++ {
		if v := r[lag] / r[0]; v > best {
			best = v
		}
	}
	if best <= 0.1 {
		return 0, ErrNoPitch
	}
	for lag := start; lag <= maxLag; lag++ {
		v := r[lag] / r[0]
		if v < periodThreshold*best {
			continue
		}
		// Climb to the local maximum, then refine between samples.
		for lag < maxLag && r[lag+1] > r[lag] {
			lag++
		}
		return float64(sampleRate) / (float64(lag) + parabolicOffset(r, lag)), nil
	}
	return 0, ErrNoPitch
}

// pastZeroLagLobe returns the first lag at which r is no longer positive
// or stops decreasing, capped at maxLag.
func pastZeroLagLobe(r []float64, maxLag int) int {
	lag := 1
	for lag < maxLag && r[lag] > 0 && r[lag+1] < r[lag] {
		lag++
	}
	return lag
}

// autocorrelate returns r[k] = sum x[i]*x[i+k] for k >= 0, computed as the
// FFT convolution of x with its reverse.
func autocorrelate(x []float64) ([]float64, error) {
	n := len(x)
	a := make([]float32, n)
	b := make([]float32, n)
	for i, v := range x {
		a[i] = float32(v)
		b[n-1-i] = float32(v)
	}
	full := make([]float32, 2*n-1)
	if err := algofft.ConvolveReal(full, a, b); err != nil {
		return nil, fmt.Errorf("autocorrelation: %w", err)
	}
	r := make([]float64, n)
	for k := range r {
		r[k] = float64(full[n-1+k])
	}
	return r, nil
}

func parabolicOffset(r []float64, i int) float64 {
	if i <= 0 || i >= len(r)-1 {
		return 0
	}
	a, b, c := r[i-1], r[i], r[i+1]
	den := a - 2*b + c
	if den == 0 {
		return 0
	}
	off := 0.5 * (a - c) / den
	if off < -0.5 || off > 0.5 {
		return 0
	}
	return off
}

// DominantFrequency returns the centre frequency of the strongest bin of a
// Hann-windowed FFT over the first power-of-two block of samples.
func DominantFrequency(samples []float64, sampleRate int) (float64, error) {
	size := 1
	for size*2 <= len(samples) && size*2 <= 65536 {
		size *= 2
	}
	if size < 256 || sampleRate <= 0 {
		return 0, ErrTooShort
	}
	plan, err := algofft.NewPlanReal64(size)
	if err != nil {
		return 0, fmt.Errorf("fft plan: %w", err)
	}
	buf := make([]float64, size)
	for i := range buf {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(size-1))
		buf[i] = samples[i] * w
	}
	bins := make([]complex128, size/2+1)
	plan.Forward(bins, buf)

	bestBin := 0
	best := 0.0
	for k := 1; k < size/2; k++ {
		if m := cmplx.Abs(bins[k]); m > best {
			best = m
			bestBin = k
		}
	}
	if bestBin == 0 {
		return 0, ErrNoPitch
	}
	return float64(bestBin) * float64(sampleRate) / float64(size), nil
}

// onset returns the index of the first sample louder than threshold, or
// len(x) when there is none.
func onset(x []float64, threshold float64) int {
	for i, v := range x {
		if v > threshold || v < -threshold {
			return i
		}
	}
	return len(x)
}
