// Package analysis measures rendered audio: level statistics, decay rate and
// pitch estimates.
package analysis

import (
	"math"
)

const (
	levelFrame = 256
	levelHop   = 128

	// floorDB stands in for the level of digital silence.
	floorDB      = -240.0
	// decayRange is how far below the peak the decay fit extends.
	decayRange   = 60.0
	// minFitFrames is the fewest post-peak frames decayRate fits.
	minFitFrames = 6
)

// Stats summarizes a mono signal.
type Stats struct {
	SampleRate int     `json:"sample_rate"`
	Frames     int     `json:"frames"`
	Duration   float64 `json:"duration_s"`
	Peak       float64 `json:"peak"`
	PeakDBFS   float64 `json:"peak_dbfs"`
	RMS        float64 `json:"rms"`
	RMSDBFS    float64 `json:"rms_dbfs"`
	CrestDB    float64 `json:"crest_db"`
	// DecayDBPerS is the slope of the RMS envelope after its peak; zero when
	// the signal is too short or never decays.
	DecayDBPerS float64 `json:"decay_db_per_s"`
	// Clipped counts samples at or beyond full scale.
	Clipped int `json:"clipped"`
}

// Measure computes level statistics for samples at sampleRate.
func Measure(samples []float64, sampleRate int) Stats {
	s := Stats{SampleRate: sampleRate, Frames: len(samples)}
	if sampleRate > 0 {
		s.Duration = float64(len(samples)) / float64(sampleRate)
	}
	var sumSq float64
	for _, v := range samples {
		a := math.Abs(v)
		s.Peak = math.Max(s.Peak, a)
		if a >= 1.0 {
			s.Clipped++
		}
		sumSq += v * v
	}
	if len(samples) > 0 {
		s.RMS = math.Sqrt(sumSq / float64(len(samples)))
	}
	s.PeakDBFS = dbfs(s.Peak)
	s.RMSDBFS = dbfs(s.RMS)
	if s.RMS == 0 || sampleRate <= 0 {
		return s
	}
	s.CrestDB = s.PeakDBFS - s.RMSDBFS

	hop := float64(levelHop) / float64(sampleRate)
	if slope, ok := decayRate(frameLevels(samples), hop); ok {
		s.DecayDBPerS = slope
	}
	return s
}

// dbfs converts a linear level to dB relative to full scale, never going
// below floorDB.
func dbfs(level float64) float64 {
	if level <= 0 {
		return floorDB
	}
	return math.Max(20*math.Log10(level), floorDB)
}

// frameLevels returns the RMS level in dBFS of overlapping frames of x.
func frameLevels(x []float64) []float64 {
	if len(x) < levelFrame {
		return nil
	}
	levels := make([]float64, 0, 1+(len(x)-levelFrame)/levelHop)
	for start := 0; start+levelFrame <= len(x); start += levelHop {
		var sumSq float64
		for _, v := range x[start : start+levelFrame] {
			sumSq += v * v
		}
		levels = append(levels, dbfs(math.Sqrt(sumSq/levelFrame)))
	}
	return levels
}

// decayRate fits a line through the level curve from its loudest frame
// until the level has dropped by decayRange dB, and returns the slope in
// dB per second. ok is false when there are too few frames to fit.
func decayRate(levels []float64, hopSeconds float64) (slope float64, ok bool) {
	if len(levels) == 0 {
		return 0, false
	}
	top := 0
	for i, l := range levels {
		if l > levels[top] {
			top = i
		}
	}
	end := top + 1
	for end < len(levels) && levels[end] >= levels[top]-decayRange {
		end++
	}
	tail := levels[top+1 : end]
	if len(tail) < minFitFrames {
		return 0, false
	}
	return lineSlope(tail, hopSeconds)
}

// lineSlope is the least-squares slope of ys sampled every dx.
func lineSlope(ys []float64, dx float64) (float64, bool) {
	n := float64(len(ys))
	meanX := dx * (n - 1) / 2
	var meanY float64
	for _, y := range ys {
		meanY += y
	}
	meanY /= n

	var num, den float64
	for i, y := range ys {
		dxi := float64(i)*dx - meanX
		num += dxi * (y - meanY)
		den += dxi * dxi
	}
	if den == 0 {
		return 0, false
	}
	slope := num / den
	return slope, !math.IsNaN(slope) && !math.IsInf(slope, 0)
}
