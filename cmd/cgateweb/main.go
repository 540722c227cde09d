// cgateweb bridges a Clipsal C-Bus C-Gate gateway and an MQTT broker.
//
// For protocol and wiring details, see internal/bridge.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cgateweb/bridge/internal/bridge"
	"github.com/cgateweb/bridge/internal/config"
	"github.com/cgateweb/bridge/internal/logging"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	fmt.Printf("cgateweb %s (%s) built %s\n", version, commit, date)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run loads configuration, starts the bridge, and blocks until ctx is
// cancelled. Returning an error keeps main's exit-code handling in one
// place.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := logging.New(cfg.Logging, version)

	b, err := bridge.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("constructing bridge: %w", err)
	}

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("starting bridge: %w", err)
	}

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping bridge")

	b.Stop()
	return nil
}
