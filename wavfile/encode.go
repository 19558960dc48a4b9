// Package wavfile encodes rendered float buffers as 16-bit PCM WAV and reads
// WAV files back for inspection.
package wavfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

const (
	// BitDepth is the only sample width Encode produces.
	BitDepth = 16
	// HeaderSize is the size of the canonical RIFF/WAVE header Encode writes.
	HeaderSize = 44

	pcmFormat = 1
	maxInt16  = 32767
	minInt16  = -32768
)

// ErrInvalidFormat is returned for unusable sample rates, channel counts or
// WAV payloads.
var ErrInvalidFormat = errors.New("wavfile: invalid format")

// Encode writes interleaved samples as a 16-bit PCM RIFF/WAVE file.
// Each sample is scaled by 32767, rounded and clamped to the int16 range.
// An empty buffer still yields a valid file with a zero-length data chunk.
func Encode(samples []float64, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidFormat, sampleRate)
	}
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidFormat, channels)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("%w: %d samples do not divide into %d channels", ErrInvalidFormat, len(samples), channels)
	}

	ws := &memWriteSeeker{buf: make([]byte, 0, HeaderSize+2*len(samples))}
	enc := gowav.NewEncoder(ws, sampleRate, BitDepth, channels, pcmFormat)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: channels,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: BitDepth,
	}
	for i, v := range samples {
		buf.Data[i] = QuantizeSample(v)
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("write pcm: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize header: %w", err)
	}
	return ws.Bytes(), nil
}

// QuantizeSample maps a float sample to a 16-bit integer:
// round(x*32767) clamped to [-32768, 32767]. NaN maps to 0.
func QuantizeSample(x float64) int {
	if math.IsNaN(x) {
		return 0
	}
	v := math.Round(x * maxInt16)
	if v > maxInt16 {
		return maxInt16
	}
	if v < minInt16 {
		return minInt16
	}
	return int(v)
}

// WriteFile encodes samples and writes them to path, creating parent
// directories as needed.
func WriteFile(path string, samples []float64, sampleRate, channels int) error {
	data, err := Encode(samples, sampleRate, channels)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Info describes the format of an encoded WAV payload.
type Info struct {
	SampleRate int
	BitDepth   int
	Channels   int
	DataBytes  int
	Frames     int
}

// Duration returns the playing time in seconds.
func (i Info) Duration() float64 {
	if i.SampleRate <= 0 {
		return 0
	}
	return float64(i.Frames) / float64(i.SampleRate)
}

// DecodeInfo parses the header of a WAV payload.
func DecodeInfo(data []byte) (Info, error) {
	dec := gowav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return Info{}, fmt.Errorf("%w: not a RIFF/WAVE payload", ErrInvalidFormat)
	}
	if err := dec.FwdToPCM(); err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	info := Info{
		SampleRate: int(dec.SampleRate),
		BitDepth:   int(dec.BitDepth),
		Channels:   int(dec.NumChans),
		DataBytes:  int(dec.PCMLen()),
	}
	if frameBytes := info.Channels * info.BitDepth / 8; frameBytes > 0 {
		info.Frames = info.DataBytes / frameBytes
	}
	return info, nil
}

// memWriteSeeker is an in-memory io.WriteSeeker; the encoder seeks back to
// patch chunk sizes once the data length is known.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		if end > cap(m.buf) {
			grown := make([]byte, len(m.buf), 2*end)
			copy(grown, m.buf)
			m.buf = grown
		}
		m.buf = m.buf[:end]
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(m.pos)
	case io.SeekEnd:
		base = int64(len(m.buf))
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	next := base + offset
	if next < 0 {
		return 0, fmt.Errorf("seek: negative position %d", next)
	}
	m.pos = int(next)
	return next, nil
}

func (m *memWriteSeeker) Bytes() []byte {
	return m.buf
}
