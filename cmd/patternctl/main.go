package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/patternbot/internal/config"
	"github.com/kailas-cloud/patternbot/internal/version"
)

func main() {
	if err := newRootCmd(config.Load).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadFunc loads the configuration for an environment name.
type loadFunc func(env string) (config.Config, error)

func newRootCmd(load loadFunc) *cobra.Command {
	var env string

	rootCmd := &cobra.Command{
		Use:           "patternctl",
		Short:         "patternctl - operate the SkyHanni pattern bot",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", config.GetEnv(), "Config environment (local, dev, prod)")

	loadConfig := func() (config.Config, error) {
		cfg, err := load(env)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}

	rootCmd.AddCommand(registerCmd(loadConfig))
	rootCmd.AddCommand(commandsCmd(loadConfig))
	rootCmd.AddCommand(patternsCmd(loadConfig))

	return rootCmd
}
