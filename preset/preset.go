// Package preset holds the named synthesis parameter bundles (timbres) and
// the immutable registry the engine looks them up in.
package preset

import (
	"sort"
	"strings"

	"github.com/cwbudde/algo-chord/dsp"
)

// DefaultName is the preset used for unknown names.
const DefaultName = "piano"

// Preset is a named bundle of synthesis parameters approximating an
// instrument timbre.
type Preset struct {
	Name  string
	Shape dsp.Shape
	// Harmonics are the partials of an additive preset; ignored otherwise.
	Harmonics []dsp.Partial
	ADSR      dsp.ADSR
	// Gain scales every voice before mixing. Zero means unity.
	Gain float64
	// Cutoff is an optional low-pass corner in Hz applied to the raw
	// waveform; zero disables it.
	Cutoff float64
	// RoomMix is the wet level of the room stage; zero disables it.
	RoomMix float64
	// RoomDecay is the room's RT60 in seconds; zero uses the engine's room.
	RoomDecay float64
}

// VoiceGain returns the effective per-voice gain.
func (p Preset) VoiceGain() float64 {
	if p.Gain <= 0 {
		return 1.0
	}
	return p.Gain
}

func (p Preset) clone() Preset {
	p.Harmonics = append([]dsp.Partial(nil), p.Harmonics...)
	return p
}

// Registry is an immutable name -> Preset table. It is safe for concurrent
// use once constructed.
type Registry struct {
	presets  map[string]Preset
	fallback Preset
}

// NewRegistry builds a registry from presets. Names are matched
// case-insensitively; later entries replace earlier ones with the same name.
// The preset named DefaultName becomes the fallback, else the first entry.
func NewRegistry(presets ...Preset) *Registry {
	r := &Registry{presets: make(map[string]Preset, len(presets))}
	for i, p := range presets {
		key := normalizeName(p.Name)
		r.presets[key] = p.clone()
		if i == 0 {
			r.fallback = r.presets[key]
		}
	}
	if def, ok := r.presets[DefaultName]; ok {
		r.fallback = def
	}
	return r
}

// Lookup returns the preset for name, or the default preset when the name is
// unknown. It never fails.
func (r *Registry) Lookup(name string) Preset {
	if p, ok := r.presets[normalizeName(name)]; ok {
		return p.clone()
	}
	return r.fallback.clone()
}

// Has reports whether name resolves to a registered preset.
func (r *Registry) Has(name string) bool {
	_, ok := r.presets[normalizeName(name)]
	return ok
}

// Default returns the fallback preset.
func (r *Registry) Default() Preset {
	return r.fallback.clone()
}

// Names lists registered preset names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.presets))
	for _, p := range r.presets {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// All returns every preset, sorted by name.
func (r *Registry) All() []Preset {
	out := make([]Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
