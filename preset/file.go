package preset

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-chord/dsp"
	"github.com/cwbudde/algo-chord/internal/mathx"
	"github.com/cwbudde/algo-chord/irsynth"
	"gopkg.in/yaml.v3"
)

// File is the JSON/YAML schema for preset override files.
type File struct {
	// Default names the fallback preset; empty keeps "piano".
	Default string           `json:"default" yaml:"default"`
	Presets map[string]Entry `json:"presets" yaml:"presets"`
}

// Entry is a partial preset. Nil fields keep the value of the preset being
// overridden, or of Base when the entry defines a new preset.
type Entry struct {
	Base      string        `json:"base" yaml:"base"`
	Shape     *string       `json:"shape" yaml:"shape"`
	Attack    *float64      `json:"attack" yaml:"attack"`
	Decay     *float64      `json:"decay" yaml:"decay"`
	Sustain   *float64      `json:"sustain" yaml:"sustain"`
	Release   *float64      `json:"release" yaml:"release"`
	Gain      *float64      `json:"gain" yaml:"gain"`
	Cutoff    *float64      `json:"cutoff" yaml:"cutoff"`
	RoomMix   *float64      `json:"room_mix" yaml:"room_mix"`
	RoomDecay *float64      `json:"room_decay" yaml:"room_decay"`
	Harmonics []dsp.Partial `json:"harmonics" yaml:"harmonics"`
}

// LoadFile reads a .json, .yaml or .yml override file and returns the
// built-in presets with the overrides applied.
func LoadFile(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported preset file extension %q (want .json, .yaml or .yml)", ext)
	}
	return ApplyFile(BuiltinPresets(), &f)
}

// ApplyFile layers f over base and builds a registry from the result.
func ApplyFile(base []Preset, f *File) (*Registry, error) {
	byName := make(map[string]Preset, len(base))
	order := make([]string, 0, len(base))
	for _, p := range base {
		key := normalizeName(p.Name)
		if _, seen := byName[key]; !seen {
			order = append(order, key)
		}
		byName[key] = p.clone()
	}
	if f == nil {
		return registryFrom(byName, order, DefaultName)
	}

	for _, name := range mathx.SortedKeys(f.Presets) {
		key := normalizeName(name)
		if key == "" {
			return nil, fmt.Errorf("preset with empty name")
		}
		entry := f.Presets[name]
		p, ok := byName[key]
		if !ok {
			baseKey := normalizeName(entry.Base)
			if baseKey == "" {
				baseKey = DefaultName
			}
			bp, found := byName[baseKey]
			if !found {
				return nil, fmt.Errorf("presets[%s].base: unknown preset %q", name, entry.Base)
			}
			p = bp.clone()
			order = append(order, key)
		}
		p.Name = strings.TrimSpace(name)
		if err := applyEntry(&p, &entry); err != nil {
			return nil, fmt.Errorf("presets[%s].%w", name, err)
		}
		byName[key] = p
	}

	def := DefaultName
	if f.Default != "" {
		def = f.Default
	}
	return registryFrom(byName, order, def)
}

func registryFrom(byName map[string]Preset, order []string, def string) (*Registry, error) {
	defKey := normalizeName(def)
	if _, ok := byName[defKey]; !ok {
		return nil, fmt.Errorf("default preset %q is not defined", def)
	}
	presets := make([]Preset, 0, len(order)+1)
	presets = append(presets, byName[defKey])
	for _, key := range order {
		if key != defKey {
			presets = append(presets, byName[key])
		}
	}
	r := NewRegistry(presets...)
	r.fallback = byName[defKey].clone()
	return r, nil
}

func applyEntry(dst *Preset, e *Entry) error {
	if e.Shape != nil {
		shape, err := dsp.ParseShape(*e.Shape)
		if err != nil {
			return fmt.Errorf("shape: %w", err)
		}
		dst.Shape = shape
	}
	adsr := dst.ADSR
	if e.Attack != nil {
		adsr.Attack = *e.Attack
	}
	if e.Decay != nil {
		adsr.Decay = *e.Decay
	}
	if e.Sustain != nil {
		adsr.Sustain = *e.Sustain
	}
	if e.Release != nil {
		adsr.Release = *e.Release
	}
	if err := adsr.Validate(); err != nil {
		return fmt.Errorf("adsr: %w", err)
	}
	dst.ADSR = adsr

	if e.Gain != nil {
		if !finite(*e.Gain) || *e.Gain <= 0 {
			return fmt.Errorf("gain must be > 0")
		}
		dst.Gain = *e.Gain
	}
	if e.Cutoff != nil {
		if !finite(*e.Cutoff) || *e.Cutoff < 0 {
			return fmt.Errorf("cutoff must be >= 0")
		}
		dst.Cutoff = *e.Cutoff
	}
	if e.RoomMix != nil {
		if !finite(*e.RoomMix) || *e.RoomMix < 0 || *e.RoomMix > 1 {
			return fmt.Errorf("room_mix must be in [0,1]")
		}
		dst.RoomMix = *e.RoomMix
	}
	if e.RoomDecay != nil {
		d := *e.RoomDecay
		if d != 0 && !(d >= irsynth.MinDecay && d <= irsynth.MaxDecay) {
			return fmt.Errorf("room_decay must be 0 or in [%v,%v] seconds", irsynth.MinDecay, irsynth.MaxDecay)
		}
		dst.RoomDecay = d
	}
	if e.Harmonics != nil {
		for i, h := range e.Harmonics {
			if !finite(h.Ratio) || h.Ratio <= 0 {
				return fmt.Errorf("harmonics[%d].ratio must be > 0", i)
			}
			if !finite(h.Weight) {
				return fmt.Errorf("harmonics[%d].weight must be finite", i)
			}
			if !finite(h.Decay) || h.Decay < 0 {
				return fmt.Errorf("harmonics[%d].decay must be >= 0", i)
			}
		}
		dst.Harmonics = append([]dsp.Partial(nil), e.Harmonics...)
	}
	if dst.Shape == dsp.ShapeAdditive && len(dst.Harmonics) == 0 {
		return fmt.Errorf("harmonics: additive shape needs at least one partial")
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
