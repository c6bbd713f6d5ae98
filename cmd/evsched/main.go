package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evsched/internal/config"
	"evsched/internal/gateway"
)

// errSlotTaken makes `check` exit non-zero when the slot is booked.
var errSlotTaken = errors.New("slot is already booked")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errSlotTaken) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "evsched",
		Short:         "Event scheduling service with venue conflict detection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "evsched.yaml", "path to the YAML config file")
	root.AddCommand(
		newServeCmd(&configPath),
		newInitCmd(&configPath),
		newCheckCmd(&configPath),
		newSuggestCmd(&configPath),
	)
	return root
}

// openApp loads configuration and wires the services.
func openApp(configPath string) (*gateway.App, error) {
	cfg, err := gateway.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(cfg.LogLevel, os.Stderr)
	return gateway.New(cfg, logger)
}
