package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-chord/internal/cache"
	"github.com/cwbudde/algo-chord/internal/logger"
	"github.com/cwbudde/algo-chord/internal/server"
)

func init() {
	serveCmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "listen port")
	serveCmd.Flags().IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "number of rendered files kept in memory")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chord rendering HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := newEngine(cfg)
		if err != nil {
			return err
		}
		ec := engine.Config()
		logger.Info("engine: %d Hz, %d ch, max %.0fs per chord, %d presets",
			ec.SampleRate, ec.Channels, ec.MaxDuration, len(engine.Presets().Names()))

		srv := server.New(engine, cache.New(cfg.CacheSize), cfg.AllowedOrigins)
		return srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), cfg.RequestTimeout)
	},
}
