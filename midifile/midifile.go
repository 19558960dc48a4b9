// Package midifile exports chords as a Standard MIDI File.
package midifile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cwbudde/algo-chord/theory"
)

const (
	// TicksPerQuarter is the file resolution.
	TicksPerQuarter = 960
	// DefaultBPM is used when Write gets a non-positive tempo.
	DefaultBPM = 120.0

	channel  = 0
	velocity = 96
)

var ErrNoChords = errors.New("midifile: no chords")

// Write encodes chords as a single-track SMF. Each chord sounds for
// perChordDuration seconds with all its pitches struck together. A pitch
// repeated inside one chord is written once, since a MIDI channel cannot
// hold the same key twice.
func Write(w io.Writer, chords []theory.Chord, perChordDuration, bpm float64) error {
	if len(chords) == 0 {
		return ErrNoChords
	}
	if math.IsNaN(perChordDuration) || math.IsInf(perChordDuration, 0) || perChordDuration <= 0 {
		return fmt.Errorf("midifile: duration must be > 0, got %v", perChordDuration)
	}
	if !(bpm > 0) || math.IsInf(bpm, 0) {
		bpm = DefaultBPM
	}
	length := durationTicks(perChordDuration, bpm)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaTrackSequenceName("chordsynth"))
	tr.Add(0, smf.MetaTempo(bpm))

	for _, ch := range chords {
		if err := ch.Validate(); err != nil {
			return fmt.Errorf("midifile: chord %q: %w", ch.Symbol, err)
		}
		keys := uniqueKeys(ch)
		for _, k := range keys {
			tr.Add(0, midi.NoteOn(channel, k, velocity))
		}
		for i, k := range keys {
			delta := uint32(0)
			if i == 0 {
				delta = length
			}
			tr.Add(delta, midi.NoteOff(channel, k))
		}
	}
	tr.Close(0)

	if err := s.Add(tr); err != nil {
		return fmt.Errorf("midifile: add track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("midifile: write: %w", err)
	}
	return nil
}

// WriteFile is Write to a new file at path.
func WriteFile(path string, chords []theory.Chord, perChordDuration, bpm float64) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, chords, perChordDuration, bpm); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func durationTicks(seconds, bpm float64) uint32 {
	ticks := math.Round(seconds * bpm / 60.0 * TicksPerQuarter)
	if ticks < 1 {
		ticks = 1
	}
	if ticks > math.MaxUint32 {
		ticks = math.MaxUint32
	}
	return uint32(ticks)
}

func uniqueKeys(ch theory.Chord) []uint8 {
	seen := make(map[int]bool, len(ch.Pitches))
	keys := make([]uint8, 0, len(ch.Pitches))
	for _, p := range ch.Pitches {
		n := p.MIDI()
		if n < 0 || n > 127 || seen[n] {
			continue
		}
		seen[n] = true
		keys = append(keys, uint8(n))
	}
	return keys
}
