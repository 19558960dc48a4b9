package synth

import (
	"bytes"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/cwbudde/algo-chord/analysis"
	"github.com/cwbudde/algo-chord/dsp"
	"github.com/cwbudde/algo-chord/preset"
	"github.com/cwbudde/algo-chord/theory"
	"github.com/cwbudde/algo-chord/wavfile"
)

var flatSine = preset.Preset{
	Name:  "flat",
	Shape: dsp.ShapeSine,
	ADSR:  dsp.ADSR{Attack: 0, Decay: 0, Sustain: 1, Release: 0},
}

func newTestEngine(t *testing.T, mutate func(*Config), presets ...preset.Preset) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	var reg *preset.Registry
	if len(presets) > 0 {
		reg = preset.NewRegistry(append(preset.BuiltinPresets(), presets...)...)
	}
	e, err := NewEngine(cfg, reg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func mustChord(t *testing.T, names ...string) theory.Chord {
	t.Helper()
	pitches := make([]theory.Pitch, len(names))
	for i, n := range names {
		p, err := theory.ParsePitch(n)
		if err != nil {
			t.Fatalf("ParsePitch(%q): %v", n, err)
		}
		pitches[i] = p
	}
	ch, err := theory.NewChord("", pitches...)
	if err != nil {
		t.Fatalf("NewChord: %v", err)
	}
	return ch
}

func TestRenderNoteLength(t *testing.T) {
	p := preset.Builtin().Lookup("piano")
	for _, d := range []float64{0.5, 1.0, 2.0} {
		got := len(RenderNote(440, d, 44100, p))
		want := int(math.Round(d * 44100))
		if got != want {
			t.Fatalf("duration %.1f: got %d samples want %d", d, got, want)
		}
	}
	if n := len(RenderNote(440, 0, 44100, p)); n != 0 {
		t.Fatalf("zero duration produced %d samples", n)
	}
}

func TestRenderNoteMatchesEnvelopeTimesBasis(t *testing.T) {
	const sr = 44100
	p := preset.Preset{
		Name:  "s",
		Shape: dsp.ShapeSine,
		ADSR:  dsp.ADSR{Attack: 0.1, Decay: 0.1, Sustain: 0.7, Release: 0.2},
	}
	out := RenderNote(440, 1.0, sr, p)
	env := dsp.NewEnvelope(p.ADSR, 1.0)
	for _, i := range []int{0, 100, 4410, 22050, 40000, sr - 1} {
		tt := float64(i) / sr
		want := env.At(tt) * math.Sin(2*math.Pi*440*tt)
		if math.Abs(out[i]-want) > 1e-12 {
			t.Fatalf("sample %d: got=%f want=%f", i, out[i], want)
		}
	}
}

func TestRenderNoteAppliesGainAndCutoff(t *testing.T) {
	base := preset.Preset{Name: "a", Shape: dsp.ShapeSawtooth, ADSR: dsp.ADSR{Sustain: 1}}
	quiet := base
	quiet.Gain = 0.5
	a := RenderNote(220, 0.1, 44100, base)
	b := RenderNote(220, 0.1, 44100, quiet)
	for i := range a {
		if math.Abs(b[i]-0.5*a[i]) > 1e-12 {
			t.Fatalf("gain not applied at %d: %f vs %f", i, b[i], a[i])
		}
	}

	filtered := base
	filtered.Cutoff = 500
	c := RenderNote(220, 0.1, 44100, filtered)
	if peakAbs(c) >= peakAbs(a) {
		t.Fatalf("low-pass should soften the sawtooth: raw=%f filtered=%f", peakAbs(a), peakAbs(c))
	}
}

func TestMixNormalizesLoudChords(t *testing.T) {
	e := newTestEngine(t, nil, flatSine)
	ch := mustChord(t, "C4", "E4", "G4", "B4")
	buf, err := e.RenderChordBuffer(ch, "flat", 0.5)
	if err != nil {
		t.Fatalf("RenderChordBuffer: %v", err)
	}
	if got := buf.Peak(); got != 1.0 {
		t.Fatalf("peak after normalization = %.17g, want exactly 1", got)
	}

	raw := make([]float64, buf.Frames())
	for _, p := range ch.Pitches {
		for i, v := range RenderNote(p.Frequency(), 0.5, 44100, flatSine) {
			raw[i] += v
		}
	}
	scale := peakAbs(raw)
	if scale <= 1 {
		t.Fatalf("test chord should clip before normalization, peak=%f", scale)
	}
	for i := range raw {
		if math.Abs(buf.Data[i]-raw[i]/scale) > 1e-12 {
			t.Fatalf("normalization is not a uniform scale at %d", i)
		}
	}
}

func TestMixLeavesQuietChordsUntouched(t *testing.T) {
	e := newTestEngine(t, nil, flatSine)
	ch := mustChord(t, "A4")
	buf, err := e.RenderChordBuffer(ch, "flat", 0.25)
	if err != nil {
		t.Fatalf("RenderChordBuffer: %v", err)
	}
	want := RenderNote(440, 0.25, 44100, flatSine)
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Fatalf("sample %d scaled: got=%f want=%f", i, buf.Data[i], want[i])
		}
	}
}

func TestNormalizeKeepsSilence(t *testing.T) {
	data := []float64{0, 0, 0}
	normalize(data)
	for _, v := range data {
		if v != 0 {
			t.Fatalf("silence changed: %v", data)
		}
	}
}

func TestUnknownPresetFallsBackToDefault(t *testing.T) {
	e := newTestEngine(t, nil)
	ch := mustChord(t, "C4", "E4", "G4")
	piano, _, err := e.RenderChord(ch, "piano", 0.5)
	if err != nil {
		t.Fatalf("RenderChord(piano): %v", err)
	}
	unknown, _, err := e.RenderChord(ch, "theremin", 0.5)
	if err != nil {
		t.Fatalf("unknown preset must not fail: %v", err)
	}
	if !bytes.Equal(piano.WAV, unknown.WAV) {
		t.Fatalf("unknown preset did not render as the default preset")
	}
}

func TestRenderChordEndToEnd(t *testing.T) {
	e := newTestEngine(t, nil)
	ch := mustChord(t, "C4", "E4", "G4", "B4")
	art, notes, err := e.RenderChord(ch, "piano", 2.0)
	if err != nil {
		t.Fatalf("RenderChord: %v", err)
	}
	if math.Abs(art.Duration-2.0) > 1.0/44100 {
		t.Fatalf("duration=%f", art.Duration)
	}
	if art.Frames != 88200 || art.SampleRate != 44100 || art.BitDepth != 16 || art.Channels != 1 {
		t.Fatalf("unexpected artifact metadata: %+v", art)
	}
	want := []string{"C4", "E4", "G4", "B4"}
	if len(notes) != len(want) {
		t.Fatalf("notes=%v", notes)
	}
	for i := range want {
		if notes[i] != want[i] {
			t.Fatalf("notes=%v want %v", notes, want)
		}
	}

	info, err := wavfile.DecodeInfo(art.WAV)
	if err != nil {
		t.Fatalf("DecodeInfo: %v", err)
	}
	if info.SampleRate != 44100 || info.BitDepth != 16 || info.Channels != 1 {
		t.Fatalf("header mismatch: %+v", info)
	}
	if info.DataBytes == 0 || info.Frames != art.Frames {
		t.Fatalf("data length inconsistent: %+v frames=%d", info, art.Frames)
	}
}

func TestRenderChordSymbolSlashChord(t *testing.T) {
	e := newTestEngine(t, nil)
	_, notes, err := e.RenderChordSymbol("Cmaj7/E", "strings", 0.5)
	if err != nil {
		t.Fatalf("RenderChordSymbol: %v", err)
	}
	if len(notes) != 5 || notes[0] != "E3" {
		t.Fatalf("slash bass not rendered first: %v", notes)
	}
}

func TestRenderProgressionConcatenates(t *testing.T) {
	e := newTestEngine(t, nil)
	art, chords, err := e.RenderProgressionSymbols([]string{"C", "Am", "F", "G7"}, "pluck", 0.5)
	if err != nil {
		t.Fatalf("RenderProgressionSymbols: %v", err)
	}
	if art.Frames != 4*22050 {
		t.Fatalf("frames=%d want %d", art.Frames, 4*22050)
	}
	if len(chords) != 4 || chords[1].Symbol != "Am" || chords[3].Notes[3] != "F5" {
		t.Fatalf("unexpected chord notes: %+v", chords)
	}

	buf, _, err := e.RenderProgressionBuffer([]theory.Chord{mustChord(t, "C4", "E4", "G4"), mustChord(t, "A3")}, "pluck", 0.5)
	if err != nil {
		t.Fatalf("RenderProgressionBuffer: %v", err)
	}
	second, err := e.RenderChordBuffer(mustChord(t, "A3"), "pluck", 0.5)
	if err != nil {
		t.Fatalf("RenderChordBuffer: %v", err)
	}
	for i, v := range second.Data {
		if buf.Data[22050+i] != v {
			t.Fatalf("second chord differs at %d", i)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.MaxProgressionChords = 2 })
	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"bad symbol", func() error { _, _, err := e.RenderChordSymbol("H7", "piano", 1); return err }, ErrInvalidChordSymbol},
		{"empty symbol", func() error { _, _, err := e.RenderChordSymbol("  ", "piano", 1); return err }, ErrInvalidChordSymbol},
		{"zero duration", func() error { _, _, err := e.RenderChordSymbol("C", "piano", 0); return err }, ErrInvalidDuration},
		{"negative duration", func() error { _, _, err := e.RenderChordSymbol("C", "piano", -1); return err }, ErrInvalidDuration},
		{"nan duration", func() error { _, _, err := e.RenderChordSymbol("C", "piano", math.NaN()); return err }, ErrInvalidDuration},
		{"inf duration", func() error { _, _, err := e.RenderChord(mustChord(t, "C4"), "piano", math.Inf(1)); return err }, ErrInvalidDuration},
		{"empty chord", func() error { _, _, err := e.RenderChord(theory.Chord{Symbol: "x"}, "piano", 1); return err }, ErrInvalidChordSymbol},
		{"empty progression", func() error { _, _, err := e.RenderProgressionSymbols(nil, "piano", 1); return err }, ErrEmptyProgression},
		{"too many chords", func() error {
			_, _, err := e.RenderProgressionSymbols([]string{"C", "F", "G"}, "piano", 1)
			return err
		}, ErrProgressionTooLong},
		{"sub-sample duration", func() error { _, _, err := e.RenderChordSymbol("C", "pad", 1e-5); return err }, ErrInvalidDuration},
		{"sub-sample progression", func() error {
			_, _, err := e.RenderProgressionSymbols([]string{"C", "G"}, "pad", 1e-5)
			return err
		}, ErrInvalidDuration},
		{"sub-sample chord duration", func() error { _, err := e.ChordDuration(1e-5); return err }, ErrInvalidDuration},
		{"bad chord in progression", func() error {
			_, _, err := e.RenderProgressionSymbols([]string{"C", "Xm"}, "piano", 1)
			return err
		}, ErrInvalidChordSymbol},
	}
	for _, c := range cases {
		err := c.run()
		if !errors.Is(err, c.want) {
			t.Fatalf("%s: err=%v want %v", c.name, err, c.want)
		}
		var se *Error
		if !errors.As(err, &se) {
			t.Fatalf("%s: error is not *synth.Error: %T", c.name, err)
		}
	}

	_, _, err := e.RenderChordSymbol("C/Q", "piano", 1)
	var pe *theory.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("parse error not preserved in chain: %v", err)
	}
}

func TestDurationIsClampedToMax(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.MaxDuration = 0.5 })
	art, _, err := e.RenderChord(mustChord(t, "C4"), "sine", 10)
	if err != nil {
		t.Fatalf("RenderChord: %v", err)
	}
	if art.Frames != 22050 {
		t.Fatalf("frames=%d want clamp to 22050", art.Frames)
	}
}

func TestChordDurationMatchesRenderedLength(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.MaxDuration = 0.5 })
	for _, tc := range []struct{ in, want float64 }{
		{0.25, 0.25},
		{0.5, 0.5},
		{60, 0.5},
		// One frame at 44.1 kHz is about 22.7 us; half of it still rounds up.
		{1.2e-5, 1.2e-5},
	} {
		got, err := e.ChordDuration(tc.in)
		if err != nil {
			t.Fatalf("ChordDuration(%v): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ChordDuration(%v)=%v want %v", tc.in, got, tc.want)
		}
	}

	art, _, err := e.RenderProgressionSymbols([]string{"C", "G"}, "sine", 60)
	if err != nil {
		t.Fatalf("RenderProgressionSymbols: %v", err)
	}
	d, _ := e.ChordDuration(60)
	if math.Abs(art.Duration-2*d) > 1e-9 {
		t.Fatalf("rendered %f s, ChordDuration says %f per chord", art.Duration, d)
	}
}

func TestRenderedBassPitch(t *testing.T) {
	e := newTestEngine(t, nil)
	for _, name := range []string{"A2", "C3", "E3"} {
		ch := mustChord(t, name)
		want := ch.Pitches[0].Frequency()
		buf, err := e.RenderChordBuffer(ch, "sine", 1.0)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		got, err := analysis.EstimateFundamental(buf.Mono(), buf.SampleRate, 40, 2000)
		if err != nil {
			t.Fatalf("%s: EstimateFundamental: %v", name, err)
		}
		if math.Abs(got-want)/want > 0.005 {
			t.Fatalf("%s: estimated %f Hz want %f Hz", name, got, want)
		}
	}
}

func TestStereoDuplicatesDrySignal(t *testing.T) {
	e := newTestEngine(t, func(c *Config) { c.Channels = 2 })
	buf, err := e.RenderChordBuffer(mustChord(t, "C4", "G4"), "organ", 0.25)
	if err != nil {
		t.Fatalf("RenderChordBuffer: %v", err)
	}
	if buf.Frames() != 11025 || len(buf.Data) != 2*11025 {
		t.Fatalf("frames=%d len=%d", buf.Frames(), len(buf.Data))
	}
	for i := 0; i < buf.Frames(); i++ {
		if buf.Data[2*i] != buf.Data[2*i+1] {
			t.Fatalf("channels differ at frame %d without room", i)
		}
	}
	art, _, err := e.RenderChord(mustChord(t, "C4"), "pad", 0.25)
	if err != nil {
		t.Fatalf("RenderChord: %v", err)
	}
	if art.Channels != 2 || art.Frames != 11025 {
		t.Fatalf("stereo artifact: %+v", art)
	}
}

func TestRoomStageKeepsLengthAndAddsTail(t *testing.T) {
	dry := flatSine
	dry.Name = "dry"
	wet := flatSine
	wet.Name = "wet"
	wet.RoomMix = 0.5
	e := newTestEngine(t, nil, dry, wet)
	ch := mustChord(t, "A3")

	a, err := e.RenderChordBuffer(ch, "dry", 0.3)
	if err != nil {
		t.Fatalf("dry render: %v", err)
	}
	b, err := e.RenderChordBuffer(ch, "wet", 0.3)
	if err != nil {
		t.Fatalf("wet render: %v", err)
	}
	if len(a.Data) != len(b.Data) {
		t.Fatalf("room changed length: %d vs %d", len(a.Data), len(b.Data))
	}
	diff := 0.0
	for i := range a.Data {
		diff += math.Abs(a.Data[i] - b.Data[i])
	}
	if diff < 1e-3 {
		t.Fatalf("room stage had no audible effect")
	}
	if b.Peak() > 1.0 {
		t.Fatalf("wet render not normalized: %f", b.Peak())
	}
}

func TestRoomsFollowPresetDecay(t *testing.T) {
	const sr = 8000
	short := flatSine
	short.Name = "booth"
	short.RoomMix = 0.3
	short.RoomDecay = 0.4
	shared := flatSine
	shared.Name = "studio"
	shared.RoomMix = 0.2

	for _, channels := range []int{1, 2} {
		e := newTestEngine(t, func(c *Config) {
			c.SampleRate = sr
			c.Channels = channels
		}, short, shared)

		tests := []struct {
			name  string
			decay float64
		}{
			{"booth", 0.4},
			{"studio", e.Config().Room.Decay},
			{"pad", 1.8},
		}
		for _, tc := range tests {
			room := e.roomFor(e.Presets().Lookup(tc.name))
			if room == nil {
				t.Fatalf("%s: no room", tc.name)
			}
			if want := int(math.Round(tc.decay * sr)); room.Len() != want {
				t.Fatalf("%s: room length %d, want %d", tc.name, room.Len(), want)
			}
			if room.Channels() != channels {
				t.Fatalf("%s: %d room channels for %d output channels", tc.name, room.Channels(), channels)
			}
		}
		if len(e.rooms) != len(tests) {
			t.Fatalf("%d rooms for %d distinct decays", len(e.rooms), len(tests))
		}
		if e.roomFor(e.Presets().Lookup("piano")) != nil {
			t.Fatalf("dry preset got a room")
		}
	}
}

func TestEngineIsSafeForConcurrentUse(t *testing.T) {
	e := newTestEngine(t, nil)
	ref, _, err := e.RenderChordSymbol("Dm7", "pad", 0.25)
	if err != nil {
		t.Fatalf("reference render: %v", err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			art, _, err := e.RenderChordSymbol("Dm7", "pad", 0.25)
			if err != nil {
				errs <- err
				return
			}
			if !bytes.Equal(art.WAV, ref.WAV) {
				errs <- errors.New("concurrent render differs from reference")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestConfigValidate(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.SampleRate = 1000 },
		func(c *Config) { c.Channels = 3 },
		func(c *Config) { c.MaxDuration = 0 },
		func(c *Config) { c.MaxDuration = math.Inf(1) },
		func(c *Config) { c.MaxProgressionChords = 0 },
		func(c *Config) { c.Room.Damping = 2 },
		func(c *Config) { c.Room.Decay = 0 },
	}
	for i, m := range bad {
		cfg := DefaultConfig()
		m(&cfg)
		if _, err := NewEngine(cfg, nil); err == nil {
			t.Fatalf("case %d: expected config error", i)
		}
	}
}
