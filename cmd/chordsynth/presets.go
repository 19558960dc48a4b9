package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(presetsCmd)
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the available presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadPresets(cfg)
		if err != nil {
			return err
		}
		def := reg.Default().Name
		for _, p := range reg.All() {
			mark := " "
			if p.Name == def {
				mark = "*"
			}
			fmt.Printf("%s %-10s %-9s A=%.3f D=%.3f S=%.2f R=%.3f room=%.2f",
				mark, p.Name, p.Shape, p.ADSR.Attack, p.ADSR.Decay, p.ADSR.Sustain, p.ADSR.Release, p.RoomMix)
			if p.RoomDecay > 0 {
				fmt.Printf(" rt60=%.2fs", p.RoomDecay)
			}
			fmt.Println()
		}
		return nil
	},
}
