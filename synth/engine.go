// Package synth renders chords and progressions to PCM and WAV.
//
// An Engine owns an immutable preset registry and one room impulse response
// per room decay the registry uses.
// Every render allocates its own buffers, so one Engine serves concurrent
// callers without locking.
package synth

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-chord/irsynth"
	"github.com/cwbudde/algo-chord/preset"
	"github.com/cwbudde/algo-chord/theory"
	"github.com/cwbudde/algo-chord/wavfile"
)

// Artifact is an encoded render.
type Artifact struct {
	WAV        []byte
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	Duration   float64
}

// ChordNotes pairs a progression chord with its note names.
type ChordNotes struct {
	Symbol string   `json:"chord"`
	Notes  []string `json:"notes"`
}

// Engine renders chords with a fixed output format and preset table.
type Engine struct {
	cfg     Config
	presets *preset.Registry
	// rooms maps an RT60 in seconds to its IR. It is filled once by
	// NewEngine and only read afterwards.
	rooms map[float64]*irsynth.Room
}

// NewEngine validates cfg and prepares a room IR for every distinct room
// decay among the presets that use the room stage. A nil registry means the
// built-in presets.
func NewEngine(cfg Config, presets *preset.Registry) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("synth config: %w", err)
	}
	if presets == nil {
		presets = preset.Builtin()
	}
	e := &Engine{cfg: cfg, presets: presets, rooms: make(map[float64]*irsynth.Room)}
	for _, p := range presets.All() {
		if p.RoomMix <= 0 {
			continue
		}
		decay := e.roomDecay(p)
		if _, ok := e.rooms[decay]; ok {
			continue
		}
		room, err := irsynth.GenerateRoom(cfg.roomConfig(decay))
		if err != nil {
			return nil, fmt.Errorf("room ir for preset %q: %w", p.Name, err)
		}
		e.rooms[decay] = room
	}
	e.cfg.Room = cfg.roomConfig(cfg.Room.Decay)
	return e, nil
}

func (e *Engine) roomDecay(p preset.Preset) float64 {
	if p.RoomDecay > 0 {
		return p.RoomDecay
	}
	return e.cfg.Room.Decay
}

// roomFor returns the IR for p, or nil when p has no room stage.
func (e *Engine) roomFor(p preset.Preset) *irsynth.Room {
	if p.RoomMix <= 0 {
		return nil
	}
	return e.rooms[e.roomDecay(p)]
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Presets returns the registry used for lookups.
func (e *Engine) Presets() *preset.Registry { return e.presets }

// ChordDuration returns the length in seconds each chord is actually
// rendered for when duration is requested, after clamping to MaxDuration.
func (e *Engine) ChordDuration(duration float64) (float64, error) {
	d, err := e.cfg.checkDuration(duration)
	if err != nil {
		return 0, newError("chord duration", "", ErrInvalidDuration, err)
	}
	return d, nil
}

// RenderChord renders ch for duration seconds and encodes it as WAV. It
// returns the artifact and the chord's note names in chord order.
func (e *Engine) RenderChord(ch theory.Chord, presetName string, duration float64) (*Artifact, []string, error) {
	buf, err := e.RenderChordBuffer(ch, presetName, duration)
	if err != nil {
		return nil, nil, err
	}
	art, err := e.encode(buf, ch.Symbol)
	if err != nil {
		return nil, nil, err
	}
	return art, ch.NoteNames(), nil
}

// RenderChordSymbol parses symbol and renders it like RenderChord.
func (e *Engine) RenderChordSymbol(symbol, presetName string, duration float64) (*Artifact, []string, error) {
	if _, err := e.cfg.checkDuration(duration); err != nil {
		return nil, nil, newError("render chord", symbol, ErrInvalidDuration, err)
	}
	ch, err := theory.ParseChord(symbol)
	if err != nil {
		return nil, nil, newError("parse chord", symbol, ErrInvalidChordSymbol, err)
	}
	return e.RenderChord(ch, presetName, duration)
}

// RenderChordBuffer renders ch without encoding.
func (e *Engine) RenderChordBuffer(ch theory.Chord, presetName string, duration float64) (*Buffer, error) {
	d, err := e.cfg.checkDuration(duration)
	if err != nil {
		return nil, newError("render chord", ch.Symbol, ErrInvalidDuration, err)
	}
	if err := ch.Validate(); err != nil {
		return nil, newError("render chord", ch.Symbol, ErrInvalidChordSymbol, err)
	}
	p := e.presets.Lookup(presetName)
	return mixChord(ch, p, d, e.cfg.SampleRate, e.cfg.Channels, e.roomFor(p)), nil
}

// RenderProgression renders every chord for perChordDuration seconds and
// concatenates the results in order. Each chord is normalized on its own.
func (e *Engine) RenderProgression(chords []theory.Chord, presetName string, perChordDuration float64) (*Artifact, []ChordNotes, error) {
	buf, notes, err := e.RenderProgressionBuffer(chords, presetName, perChordDuration)
	if err != nil {
		return nil, nil, err
	}
	art, err := e.encode(buf, progressionLabel(chords))
	if err != nil {
		return nil, nil, err
	}
	return art, notes, nil
}

// RenderProgressionSymbols parses symbols and renders them like
// RenderProgression. The first unparseable symbol fails the whole request.
func (e *Engine) RenderProgressionSymbols(symbols []string, presetName string, perChordDuration float64) (*Artifact, []ChordNotes, error) {
	if err := e.checkProgression(len(symbols), strings.Join(symbols, " "), perChordDuration); err != nil {
		return nil, nil, err
	}
	chords := make([]theory.Chord, 0, len(symbols))
	for _, s := range symbols {
		ch, err := theory.ParseChord(s)
		if err != nil {
			return nil, nil, newError("parse chord", s, ErrInvalidChordSymbol, err)
		}
		chords = append(chords, ch)
	}
	return e.RenderProgression(chords, presetName, perChordDuration)
}

// RenderProgressionBuffer renders a progression without encoding.
func (e *Engine) RenderProgressionBuffer(chords []theory.Chord, presetName string, perChordDuration float64) (*Buffer, []ChordNotes, error) {
	label := progressionLabel(chords)
	if err := e.checkProgression(len(chords), label, perChordDuration); err != nil {
		return nil, nil, err
	}
	for _, ch := range chords {
		if err := ch.Validate(); err != nil {
			return nil, nil, newError("render progression", ch.Symbol, ErrInvalidChordSymbol, err)
		}
	}
	d, _ := e.cfg.checkDuration(perChordDuration)
	p := e.presets.Lookup(presetName)

	frames := frameCount(d, e.cfg.SampleRate)
	out := &Buffer{
		SampleRate: e.cfg.SampleRate,
		Channels:   e.cfg.Channels,
		Data:       make([]float64, 0, frames*e.cfg.Channels*len(chords)),
	}
	notes := make([]ChordNotes, 0, len(chords))
	for _, ch := range chords {
		part := mixChord(ch, p, d, e.cfg.SampleRate, e.cfg.Channels, e.roomFor(p))
		out.Data = append(out.Data, part.Data...)
		notes = append(notes, ChordNotes{Symbol: ch.Symbol, Notes: ch.NoteNames()})
	}
	return out, notes, nil
}

func (e *Engine) checkProgression(count int, label string, duration float64) error {
	if count == 0 {
		return newError("render progression", label, ErrEmptyProgression, nil)
	}
	if count > e.cfg.MaxProgressionChords {
		return newError("render progression", label, ErrProgressionTooLong,
			fmt.Errorf("%d chords, limit is %d", count, e.cfg.MaxProgressionChords))
	}
	if _, err := e.cfg.checkDuration(duration); err != nil {
		return newError("render progression", label, ErrInvalidDuration, err)
	}
	return nil
}

func (e *Engine) encode(buf *Buffer, label string) (*Artifact, error) {
	data, err := wavfile.Encode(buf.Data, buf.SampleRate, buf.Channels)
	if err != nil {
		return nil, newError("encode", label, ErrEncoding, err)
	}
	return &Artifact{
		WAV:        data,
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels,
		BitDepth:   wavfile.BitDepth,
		Frames:     buf.Frames(),
		Duration:   buf.Duration(),
	}, nil
}

func progressionLabel(chords []theory.Chord) string {
	symbols := make([]string, len(chords))
	for i, ch := range chords {
		symbols[i] = ch.Symbol
	}
	return strings.Join(symbols, " ")
}
