// dhtctl - operator tool for DHT Realtime
//
// Subcommands:
//
//	dhtctl publish  emit simulated DHT readings over the configured transport
//	dhtctl token    mint an API access token
//
// Both read the service configuration (DHTREALTIME_CONFIG or -config) so the
// namespace, transport and JWT secret match the running service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/dht-realtime/internal/infrastructure/config"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

var errUsage = errors.New("usage: dhtctl <publish|token> [flags]")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches to a subcommand.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "publish":
		return runPublish(ctx, args[1:], stdout)
	case "token":
		return runToken(args[1:], stdout)
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

// defaultConfig returns DHTREALTIME_CONFIG if set, otherwise the default path.
func defaultConfig() string {
	if path := os.Getenv("DHTREALTIME_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
