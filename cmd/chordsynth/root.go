package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-chord/internal/config"
	"github.com/cwbudde/algo-chord/internal/logger"
	"github.com/cwbudde/algo-chord/preset"
	"github.com/cwbudde/algo-chord/synth"
)

// cfg starts from the environment; flags override individual fields.
var cfg = config.Load()

var rootCmd = &cobra.Command{
	Use:   "chordsynth",
	Short: "Chord synthesizer",
	Long: `chordsynth turns chord symbols such as Cmaj7 or F#m7b5/A into
16-bit PCM WAV audio using a small set of instrument presets.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Initialize(cfg.LogLevel, cfg.Development)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfg.PresetsFile, "presets", cfg.PresetsFile, "JSON or YAML preset overrides")
	rootCmd.PersistentFlags().IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "output sample rate in Hz")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info or error")
}

// Execute runs the root command.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func loadPresets(c config.Config) (*preset.Registry, error) {
	if c.PresetsFile == "" {
		return preset.Builtin(), nil
	}
	reg, err := preset.LoadFile(c.PresetsFile)
	if err != nil {
		return nil, fmt.Errorf("load presets %q: %w", c.PresetsFile, err)
	}
	logger.Info("loaded presets from %s: %v", c.PresetsFile, reg.Names())
	return reg, nil
}

func newEngine(c config.Config) (*synth.Engine, error) {
	reg, err := loadPresets(c)
	if err != nil {
		return nil, err
	}
	return synth.NewEngine(c.Engine(), reg)
}
