package theory

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NoteClass is one of the 12 semitone classes, C = 0 ... B = 11.
type NoteClass int

const (
	C NoteClass = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

// Playable octave range.
const (
	MinOctave = 0
	MaxOctave = 8
)

const (
	a4Freq = 440.0
	a4MIDI = 69
)

var classNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var naturals = map[byte]NoteClass{
	'C': C, 'D': D, 'E': E, 'F': F, 'G': G, 'A': A, 'B': B,
}

// String returns the canonical (sharp) spelling.
func (c NoteClass) String() string {
	if c < C || c > B {
		return fmt.Sprintf("NoteClass(%d)", int(c))
	}
	return classNames[c]
}

// Valid reports whether c is one of the 12 classes.
func (c NoteClass) Valid() bool {
	return c >= C && c <= B
}

// ParseNoteClass accepts a letter A-G (any case) followed by at most one
// accidental: '#', 'b', 'x' (double sharp) or "##". Enharmonic spellings
// collapse onto the canonical sharp label, e.g. Db -> C#, E# -> F, Cb -> B.
func ParseNoteClass(s string) (NoteClass, error) {
	class, n, err := scanNoteClass(s)
	if err != nil {
		return 0, err
	}
	if n != len(s) {
		return 0, fmt.Errorf("unexpected %q after note name", s[n:])
	}
	return class, nil
}

// scanNoteClass reads a note class from the start of s and reports how many
// bytes it consumed.
func scanNoteClass(s string) (NoteClass, int, error) {
	if s == "" {
		return 0, 0, fmt.Errorf("empty note name")
	}
	base, ok := naturals[upper(s[0])]
	if !ok {
		return 0, 0, fmt.Errorf("invalid note letter %q", s[0])
	}
	offset := 0
	n := 1
	rest := s[1:]
	switch {
	case strings.HasPrefix(rest, "##"):
		offset, n = 2, 3
	case strings.HasPrefix(rest, "♯"):
		offset, n = 1, 1+len("♯")
	case strings.HasPrefix(rest, "♭"):
		offset, n = -1, 1+len("♭")
	case len(rest) > 0 && rest[0] == '#':
		offset, n = 1, 2
	case len(rest) > 0 && rest[0] == 'b':
		offset, n = -1, 2
	case len(rest) > 0 && (rest[0] == 'x' || rest[0] == 'X'):
		offset, n = 2, 2
	}
	return NoteClass((int(base) + offset + 12) % 12), n, nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// Pitch is an absolute pitch: note class plus octave (scientific pitch
// notation, C4 = middle C).
type Pitch struct {
	Class  NoteClass
	Octave int
}

// NewPitch validates class and octave.
func NewPitch(class NoteClass, octave int) (Pitch, error) {
	p := Pitch{Class: class, Octave: octave}
	if err := p.Validate(); err != nil {
		return Pitch{}, err
	}
	return p, nil
}

// MustPitch is NewPitch for literals; it panics on invalid input.
func MustPitch(class NoteClass, octave int) Pitch {
	p, err := NewPitch(class, octave)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePitch parses a note name with octave such as "C4", "Eb3" or "F#5".
func ParsePitch(s string) (Pitch, error) {
	s = strings.TrimSpace(s)
	class, n, err := scanNoteClass(s)
	if err != nil {
		return Pitch{}, fmt.Errorf("parse pitch %q: %w", s, err)
	}
	if n >= len(s) {
		return Pitch{}, fmt.Errorf("parse pitch %q: missing octave", s)
	}
	octave, err := strconv.Atoi(s[n:])
	if err != nil {
		return Pitch{}, fmt.Errorf("parse pitch %q: invalid octave %q", s, s[n:])
	}
	p, err := NewPitch(class, octave)
	if err != nil {
		return Pitch{}, fmt.Errorf("parse pitch %q: %w", s, err)
	}
	return p, nil
}

// Validate checks the class and the playable octave range.
func (p Pitch) Validate() error {
	if !p.Class.Valid() {
		return fmt.Errorf("invalid note class %d", int(p.Class))
	}
	if p.Octave < MinOctave || p.Octave > MaxOctave {
		return fmt.Errorf("octave %d outside %d..%d", p.Octave, MinOctave, MaxOctave)
	}
	return nil
}

// MIDI returns the MIDI note number (C4 = 60, A4 = 69).
func (p Pitch) MIDI() int {
	return int(p.Class) + (p.Octave+1)*12
}

// Frequency returns the equal-tempered fundamental in Hz, A4 = 440 Hz.
func (p Pitch) Frequency() float64 {
	return MIDIToFrequency(p.MIDI())
}

// Transpose shifts the pitch by the given number of semitones. The result
// may fall outside the playable range; callers validate.
func (p Pitch) Transpose(semitones int) Pitch {
	return PitchFromMIDI(p.MIDI() + semitones)
}

func (p Pitch) String() string {
	return p.Class.String() + strconv.Itoa(p.Octave)
}

// PitchFromMIDI is the inverse of Pitch.MIDI.
func PitchFromMIDI(note int) Pitch {
	octave := floorDiv(note, 12) - 1
	class := NoteClass(note - (octave+1)*12)
	return Pitch{Class: class, Octave: octave}
}

// MIDIToFrequency converts a MIDI note number to Hz.
func MIDIToFrequency(note int) float64 {
	return a4Freq * math.Exp2(float64(note-a4MIDI)/12.0)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
