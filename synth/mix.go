package synth

import (
	"math"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-chord/irsynth"
	"github.com/cwbudde/algo-chord/preset"
	"github.com/cwbudde/algo-chord/theory"
)

const roomPartSize = 512

// Buffer is interleaved float PCM owned by the render call that produced it.
type Buffer struct {
	SampleRate int
	Channels   int
	Data       []float64
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Data) / b.Channels
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Peak returns the largest absolute sample value.
func (b *Buffer) Peak() float64 {
	return peakAbs(b.Data)
}

// Mono returns the per-frame channel average.
func (b *Buffer) Mono() []float64 {
	if b.Channels == 1 {
		return append([]float64(nil), b.Data...)
	}
	frames := b.Frames()
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < b.Channels; c++ {
			sum += b.Data[i*b.Channels+c]
		}
		out[i] = sum / float64(b.Channels)
	}
	return out
}

// mixChord renders every pitch of ch, sums them, applies the room stage and
// peak-normalizes the result.
func mixChord(ch theory.Chord, p preset.Preset, duration float64, sampleRate, channels int, room *irsynth.Room) *Buffer {
	n := frameCount(duration, sampleRate)
	dry := make([]float64, n)
	for _, pitch := range ch.Pitches {
		voice := RenderNote(pitch.Frequency(), duration, sampleRate, p)
		for i, v := range voice {
			dry[i] += v
		}
	}
	for i := range dry {
		dry[i] = dspcore.FlushDenormals(dry[i])
	}

	buf := &Buffer{SampleRate: sampleRate, Channels: channels, Data: make([]float64, n*channels)}
	for c := 0; c < channels; c++ {
		out := dry
		if p.RoomMix > 0 && room != nil {
			out = applyRoom(dry, room.Channel(c), p.RoomMix)
		}
		for i, v := range out {
			buf.Data[i*channels+c] = v
		}
	}
	normalize(buf.Data)
	return buf
}

// applyRoom returns dry + mix*(dry * ir), truncated to len(dry). A failing
// convolver leaves the dry signal untouched.
func applyRoom(dry, ir []float64, mix float64) []float64 {
	if len(dry) == 0 || len(ir) == 0 {
		return dry
	}
	ola, err := dspconv.NewOverlapAdd(ir, roomPartSize)
	if err != nil {
		return dry
	}
	wet, err := ola.Process(dry)
	if err != nil {
		return dry
	}
	out := make([]float64, len(dry))
	for i := range out {
		v := dry[i]
		if i < len(wet) {
			v += mix * wet[i]
		}
		out[i] = v
	}
	return out
}

// normalize divides every sample by the peak when the peak exceeds 1.
// Quieter buffers, including silence, are left as they are.
func normalize(data []float64) {
	peak := peakAbs(data)
	if peak <= 1.0 {
		return
	}
	for i := range data {
		data[i] /= peak
	}
}

func peakAbs(data []float64) float64 {
	m := 0.0
	for _, v := range data {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}
