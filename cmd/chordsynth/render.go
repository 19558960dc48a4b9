package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-chord/midifile"
	"github.com/cwbudde/algo-chord/synth"
	"github.com/cwbudde/algo-chord/theory"
)

var (
	renderPreset   string
	renderDuration float64
	renderOut      string
	renderMIDI     string
	renderBPM      float64
	renderStereo   bool
)

func init() {
	renderCmd.Flags().StringVarP(&renderPreset, "preset", "p", "piano", "instrument preset")
	renderCmd.Flags().Float64VarP(&renderDuration, "duration", "d", 2.0, "seconds per chord")
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "chord.wav", "output WAV path")
	renderCmd.Flags().StringVar(&renderMIDI, "midi", "", "also write a Standard MIDI File to this path")
	renderCmd.Flags().Float64Var(&renderBPM, "bpm", 120, "tempo of the MIDI file")
	renderCmd.Flags().BoolVar(&renderStereo, "stereo", false, "write two channels")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render CHORD...",
	Short: "Render one chord or a progression to WAV",
	Long: `Render one chord, or several chords played one after another, to a
16-bit WAV file. Each chord sounds for --duration seconds.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		if renderStereo {
			c.Channels = 2
		}
		engine, err := newEngine(c)
		if err != nil {
			return err
		}

		var (
			art   *synth.Artifact
			notes []synth.ChordNotes
		)
		if len(args) == 1 {
			var names []string
			art, names, err = engine.RenderChordSymbol(args[0], renderPreset, renderDuration)
			notes = []synth.ChordNotes{{Symbol: args[0], Notes: names}}
		} else {
			art, notes, err = engine.RenderProgressionSymbols(args, renderPreset, renderDuration)
		}
		if err != nil {
			return err
		}

		if dir := filepath.Dir(renderOut); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := os.WriteFile(renderOut, art.WAV, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", renderOut, err)
		}
		for _, n := range notes {
			fmt.Printf("%-10s %s\n", n.Symbol, strings.Join(n.Notes, " "))
		}
		fmt.Printf("Wrote %s (%.2fs, %d Hz, %d ch, %d bytes)\n",
			renderOut, art.Duration, art.SampleRate, art.Channels, len(art.WAV))

		if renderMIDI != "" {
			chords, err := theory.ParseProgression(args)
			if err != nil {
				return err
			}
			perChord, err := engine.ChordDuration(renderDuration)
			if err != nil {
				return err
			}
			if err := midifile.WriteFile(renderMIDI, chords, perChord, renderBPM); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", renderMIDI)
		}
		return nil
	},
}
