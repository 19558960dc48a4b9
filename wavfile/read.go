package wavfile

import (
	"fmt"
	"math"
	"os"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"golang.org/x/exp/constraints"
)

// ReadMono decodes a PCM WAV file and averages its channels into one. It
// returns the samples and the file's sample rate.
func ReadMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("wavfile: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("wavfile: %s is not a RIFF/WAVE file: %w", path, ErrInvalidFormat)
	}
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("wavfile: decode %s: %w", path, err)
	}
	if pcm == nil || pcm.Format == nil {
		return nil, 0, fmt.Errorf("wavfile: %s has no fmt chunk: %w", path, ErrInvalidFormat)
	}
	mono, err := downmix(pcm.Data, pcm.Format.NumChannels)
	if err != nil {
		return nil, 0, fmt.Errorf("wavfile: %s: %w", path, err)
	}
	return mono, pcm.Format.SampleRate, nil
}

// ReadMonoAt is ReadMono with the result converted to rate. The output
// keeps the file's playing time, so it holds round(n*rate/fileRate) samples.
func ReadMonoAt(path string, rate int) ([]float64, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("wavfile: target rate %d: %w", rate, ErrInvalidFormat)
	}
	samples, fileRate, err := ReadMono(path)
	if err != nil {
		return nil, err
	}
	return convertRate(samples, fileRate, rate)
}

// downmix averages interleaved frames of channels samples. A trailing
// partial frame is dropped.
func downmix[T constraints.Float](data []T, channels int) ([]float64, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%d channels: %w", channels, ErrInvalidFormat)
	}
	mono := make([]float64, len(data)/channels)
	scale := 1 / float64(channels)
	for i := range mono {
		var sum float64
		for _, v := range data[i*channels : (i+1)*channels] {
			sum += float64(v)
		}
		mono[i] = sum * scale
	}
	return mono, nil
}

func convertRate(in []float64, from, to int) ([]float64, error) {
	if from == to || len(in) == 0 {
		return in, nil
	}
	if from <= 0 {
		return nil, fmt.Errorf("wavfile: source rate %d: %w", from, ErrInvalidFormat)
	}
	r, err := dspresample.NewForRates(
		float64(from),
		float64(to),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, fmt.Errorf("wavfile: resample %d -> %d Hz: %w", from, to, err)
	}
	out := r.Process(in)

	want := int(math.Round(float64(len(in)) * float64(to) / float64(from)))
	if len(out) >= want {
		return out[:want], nil
	}
	return append(out, make([]float64, want-len(out))...), nil
}
