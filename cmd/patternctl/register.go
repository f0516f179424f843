package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patternbot/internal/config"
	domcmd "github.com/kailas-cloud/patternbot/internal/domain/command"
	"github.com/kailas-cloud/patternbot/internal/transport/discord"
	commanduc "github.com/kailas-cloud/patternbot/internal/usecase/command"
)

const registrarTimeout = 30 * time.Second

func registerCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Install the bot's slash commands as global application commands",
		Long: `Replace the application's global commands with the bot's catalog.
Requires discord.bot_token and discord.app_id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newRegistrar(loadConfig)
			if err != nil {
				return err
			}

			installed, err := svc.Install(cmd.Context())
			if err != nil {
				return fmt.Errorf("register commands: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Registered %d command(s):\n", len(installed))
			printCommands(cmd, installed)
			return nil
		},
	}
}

func commandsCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Inspect the application's global commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the global commands currently registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newRegistrar(loadConfig)
			if err != nil {
				return err
			}

			cmds, err := svc.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("list commands: %w", err)
			}
			if len(cmds) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No global commands registered.")
				return nil
			}
			printCommands(cmd, cmds)
			return nil
		},
	})

	return cmd
}

func newRegistrar(loadConfig func() (config.Config, error)) (*commanduc.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateRegistrar(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	client := discord.NewClient(&discord.Config{
		BaseURL:   cfg.Discord.APIBaseURL,
		BotToken:  cfg.Discord.BotToken,
		UserAgent: cfg.Discord.UserAgent,
		Timeout:   registrarTimeout,
		Logger:    zap.NewNop(),
	})
	return commanduc.New(client, cfg.Discord.AppID, domcmd.Catalog()), nil
}

func printCommands(cmd *cobra.Command, cmds []domcmd.Command) {
	out := cmd.OutOrStdout()
	for _, c := range cmds {
		id := c.ID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(out, "  /%-12s %-20s %s\n", c.Name, id, c.Description)
	}
}
