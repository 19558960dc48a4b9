package midifile

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/cwbudde/algo-chord/theory"
)

type noteEvent struct {
	tick int64
	key  uint8
	on   bool
}

func readEvents(t *testing.T, data []byte) ([]noteEvent, float64) {
	t.Helper()
	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if len(s.Tracks) != 1 {
		t.Fatalf("tracks=%d want 1", len(s.Tracks))
	}
	var events []noteEvent
	var bpm float64
	var abs int64
	for _, ev := range s.Tracks[0] {
		abs += int64(ev.Delta)
		var ch, key, vel uint8
		switch {
		case ev.Message.GetNoteOn(&ch, &key, &vel):
			events = append(events, noteEvent{tick: abs, key: key, on: true})
		case ev.Message.GetNoteOff(&ch, &key, &vel):
			events = append(events, noteEvent{tick: abs, key: key})
		case ev.Message.GetMetaTempo(&bpm):
		}
	}
	return events, bpm
}

func TestWriteRoundTrip(t *testing.T) {
	chords, err := theory.ParseProgression([]string{"C", "G7"})
	if err != nil {
		t.Fatalf("ParseProgression: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, chords, 1.0, 120); err != nil {
		t.Fatalf("Write: %v", err)
	}
	events, bpm := readEvents(t, buf.Bytes())
	if math.Abs(bpm-120) > 1e-6 {
		t.Fatalf("tempo=%f", bpm)
	}

	// One second at 120 bpm is two quarters.
	const length = 2 * TicksPerQuarter
	want := []noteEvent{
		{0, 60, true}, {0, 64, true}, {0, 67, true},
		{length, 60, false}, {length, 64, false}, {length, 67, false},
		{length, 67, true}, {length, 71, true}, {length, 74, true}, {length, 77, true},
		{2 * length, 67, false}, {2 * length, 71, false}, {2 * length, 74, false}, {2 * length, 77, false},
	}
	if len(events) != len(want) {
		t.Fatalf("events=%v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d = %+v want %+v", i, events[i], want[i])
		}
	}
}

func TestWriteSlashChordAndDuplicates(t *testing.T) {
	c4 := theory.MustPitch(theory.C, 4)
	dup, err := theory.NewChord("", c4, c4, theory.MustPitch(theory.E, 4))
	if err != nil {
		t.Fatalf("NewChord: %v", err)
	}
	slash, err := theory.ParseChord("Cmaj7/E")
	if err != nil {
		t.Fatalf("ParseChord: %v", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, []theory.Chord{dup, slash}, 0.5, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}
	events, bpm := readEvents(t, buf.Bytes())
	if math.Abs(bpm-DefaultBPM) > 1e-6 {
		t.Fatalf("default tempo not applied: %f", bpm)
	}
	var ons []uint8
	for _, e := range events {
		if e.on {
			ons = append(ons, e.key)
		}
	}
	want := []uint8{60, 64, 52, 60, 64, 67, 71}
	if len(ons) != len(want) {
		t.Fatalf("note-ons=%v want %v", ons, want)
	}
	for i := range want {
		if ons[i] != want[i] {
			t.Fatalf("note-ons=%v want %v", ons, want)
		}
	}
}

func TestWriteErrors(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil, 1, 120); !errors.Is(err, ErrNoChords) {
		t.Fatalf("err=%v want ErrNoChords", err)
	}
	c, _ := theory.ParseChord("C")
	if err := Write(&buf, []theory.Chord{c}, 0, 120); err == nil {
		t.Fatalf("expected duration error")
	}
	if err := Write(&buf, []theory.Chord{{Symbol: "empty"}}, 1, 120); err == nil {
		t.Fatalf("expected empty chord error")
	}
}

func TestWriteFile(t *testing.T) {
	c, _ := theory.ParseChord("Am")
	path := filepath.Join(t.TempDir(), "out", "am.mid")
	if err := WriteFile(path, []theory.Chord{c}, 2, 90); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := smf.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if mt, ok := s.TimeFormat.(smf.MetricTicks); !ok || mt.Resolution() != TicksPerQuarter {
		t.Fatalf("time format=%v", s.TimeFormat)
	}
}

func TestDurationTicks(t *testing.T) {
	if got := durationTicks(0.5, 120); got != TicksPerQuarter {
		t.Fatalf("half second at 120 bpm = %d ticks", got)
	}
	if got := durationTicks(1e-9, 120); got != 1 {
		t.Fatalf("tiny duration = %d ticks, want 1", got)
	}
}
