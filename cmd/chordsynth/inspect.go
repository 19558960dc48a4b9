package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-chord/analysis"
	"github.com/cwbudde/algo-chord/wavfile"
)

var (
	inspectRate  int
	inspectJSON  bool
	inspectMinHz float64
	inspectMaxHz float64
)

func init() {
	inspectCmd.Flags().IntVar(&inspectRate, "rate", 0, "resample to this rate before analysis")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print JSON")
	inspectCmd.Flags().Float64Var(&inspectMinHz, "min-hz", 40, "lowest fundamental to search")
	inspectCmd.Flags().Float64Var(&inspectMaxHz, "max-hz", 2000, "highest fundamental to search")
	rootCmd.AddCommand(inspectCmd)
}

type inspectReport struct {
	File        string         `json:"file"`
	Channels    int            `json:"channels"`
	BitDepth    int            `json:"bit_depth"`
	Stats       analysis.Stats `json:"stats"`
	Fundamental float64        `json:"fundamental_hz,omitempty"`
	Dominant    float64        `json:"dominant_hz,omitempty"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE.wav",
	Short: "Print level, decay and pitch measurements of a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		info, err := wavfile.DecodeInfo(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		samples, rate, err := wavfile.ReadMono(path)
		if err != nil {
			return err
		}
		if inspectRate > 0 && inspectRate != rate {
			if samples, err = wavfile.ReadMonoAt(path, inspectRate); err != nil {
				return err
			}
			rate = inspectRate
		}

		rep := inspectReport{
			File:     path,
			Channels: info.Channels,
			BitDepth: info.BitDepth,
			Stats:    analysis.Measure(samples, rate),
		}
		if f0, err := analysis.EstimateFundamental(samples, rate, inspectMinHz, inspectMaxHz); err == nil {
			rep.Fundamental = f0
		}
		if fd, err := analysis.DominantFrequency(samples, rate); err == nil {
			rep.Dominant = fd
		}

		if inspectJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		s := rep.Stats
		fmt.Printf("%s: %d Hz, %d ch, %d-bit, %.3fs\n", path, rate, rep.Channels, rep.BitDepth, s.Duration)
		fmt.Printf("  peak      %.4f (%.2f dBFS), %d clipped\n", s.Peak, s.PeakDBFS, s.Clipped)
		fmt.Printf("  rms       %.4f (%.2f dBFS), crest %.2f dB\n", s.RMS, s.RMSDBFS, s.CrestDB)
		fmt.Printf("  decay     %.2f dB/s\n", s.DecayDBPerS)
		if rep.Fundamental > 0 {
			fmt.Printf("  f0        %.2f Hz\n", rep.Fundamental)
		}
		if rep.Dominant > 0 {
			fmt.Printf("  strongest %.2f Hz\n", rep.Dominant)
		}
		return nil
	},
}
