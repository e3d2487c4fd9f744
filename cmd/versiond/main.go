package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/indigo-web/protover"
	"github.com/indigo-web/protover/config"
	"github.com/indigo-web/protover/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to the TOML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			logger := logging.New(cfg.Name, cfg.Log)
			logger.Fatal().Err(err).Str("path", *configPath).Msg("can't load config")
		}

		cfg = loaded
	}

	logger := logging.New(cfg.Name, cfg.Log)
	app := protover.New(cfg).WithLogger(logger)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-signals
		logger.Info().Stringer("signal", sig).Msg("stopping gracefully")
		app.GracefulStop()
	}()

	err := app.
		NotifyOnStart(func() {
			for _, addr := range app.Addrs() {
				logger.Info().Msgf("listening on %s", addr)
			}
		}).
		Serve()
	if err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}
