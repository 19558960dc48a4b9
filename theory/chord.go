package theory

import (
	"errors"
	"fmt"
	"strings"
)

// Voicing octaves used when a chord symbol is resolved to pitches.
const (
	RootOctave = 4
	BassOctave = 3
)

// ErrEmptyChord is returned when a chord has no pitches.
var ErrEmptyChord = errors.New("chord has no pitches")

// ParseError describes a chord symbol that could not be resolved.
type ParseError struct {
	Symbol string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid chord symbol %q: %s", e.Symbol, e.Reason)
}

// Chord is an ordered set of pitches tagged with the symbol it came from.
// Pitches are root first, or bass first for slash chords. Duplicates are
// allowed.
type Chord struct {
	Symbol  string
	Pitches []Pitch
	// Bass is set for slash chords; it equals Pitches[0].
	Bass *Pitch
}

// NewChord builds a chord from explicit pitches. An empty symbol is replaced
// by the space-joined note names.
func NewChord(symbol string, pitches ...Pitch) (Chord, error) {
	c := Chord{Symbol: symbol, Pitches: append([]Pitch(nil), pitches...)}
	if c.Symbol == "" {
		c.Symbol = strings.Join(c.NoteNames(), " ")
	}
	if err := c.Validate(); err != nil {
		return Chord{}, err
	}
	return c, nil
}

// Validate checks the non-empty invariant and every pitch.
func (c Chord) Validate() error {
	if len(c.Pitches) == 0 {
		return ErrEmptyChord
	}
	for i, p := range c.Pitches {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("pitch %d: %w", i, err)
		}
	}
	return nil
}

// NoteNames returns the display names in chord order, e.g. ["C4" "E4" "G4"].
func (c Chord) NoteNames() []string {
	names := make([]string, len(c.Pitches))
	for i, p := range c.Pitches {
		names[i] = p.String()
	}
	return names
}

// Frequencies returns the fundamental of every pitch in chord order.
func (c Chord) Frequencies() []float64 {
	freqs := make([]float64, len(c.Pitches))
	for i, p := range c.Pitches {
		freqs[i] = p.Frequency()
	}
	return freqs
}

// ParseChord resolves a chord symbol such as "Cmaj7", "F#m7b5" or "Cmaj7/E"
// to absolute pitches. The chord is voiced upward from the root at
// RootOctave; a slash bass is prepended at BassOctave.
func ParseChord(symbol string) (Chord, error) {
	trimmed := strings.TrimSpace(symbol)
	if trimmed == "" {
		return Chord{}, &ParseError{Symbol: symbol, Reason: "empty symbol"}
	}

	body, bassText, hasBass := strings.Cut(trimmed, "/")
	if hasBass && strings.Contains(bassText, "/") {
		return Chord{}, &ParseError{Symbol: symbol, Reason: "more than one bass note"}
	}

	root, n, err := scanNoteClass(body)
	if err != nil {
		return Chord{}, &ParseError{Symbol: symbol, Reason: err.Error()}
	}
	quality, ok := lookupQuality(body[n:])
	if !ok {
		return Chord{}, &ParseError{Symbol: symbol, Reason: fmt.Sprintf("unknown chord quality %q", body[n:])}
	}

	rootPitch := Pitch{Class: root, Octave: RootOctave}
	chord := Chord{Symbol: trimmed}
	if hasBass {
		bassClass, err := ParseNoteClass(strings.TrimSpace(bassText))
		if err != nil {
			return Chord{}, &ParseError{Symbol: symbol, Reason: "bass note: " + err.Error()}
		}
		bass := Pitch{Class: bassClass, Octave: BassOctave}
		chord.Pitches = append(chord.Pitches, bass)
		chord.Bass = &bass
	}
	for _, interval := range quality.intervals {
		chord.Pitches = append(chord.Pitches, rootPitch.Transpose(interval))
	}
	if err := chord.Validate(); err != nil {
		return Chord{}, &ParseError{Symbol: symbol, Reason: err.Error()}
	}
	return chord, nil
}

// ParseProgression parses every symbol and fails on the first bad one.
func ParseProgression(symbols []string) ([]Chord, error) {
	chords := make([]Chord, 0, len(symbols))
	for _, s := range symbols {
		c, err := ParseChord(s)
		if err != nil {
			return nil, err
		}
		chords = append(chords, c)
	}
	return chords, nil
}
