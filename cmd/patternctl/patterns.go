package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/patternbot/internal/config"
	"github.com/kailas-cloud/patternbot/internal/transport/upstream"
	interactionuc "github.com/kailas-cloud/patternbot/internal/usecase/interaction"
	patternuc "github.com/kailas-cloud/patternbot/internal/usecase/pattern"
)

func patternsCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var asJSON, asMessage bool

	cmd := &cobra.Command{
		Use:   "patterns [query]",
		Short: "Fetch the pattern document and print the keys containing query",
		Long: `Fetch the pattern document from the configured source and print every
entry whose key contains query. An empty query prints every entry.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			fetcher := upstream.NewFetcher(&upstream.Config{
				SourceURL: cfg.Patterns.SourceURL,
				Timeout:   time.Duration(cfg.Patterns.FetchTimeoutSec) * time.Second,
				UserAgent: cfg.Discord.UserAgent,
				Logger:    zap.NewNop(),
			})
			doc, err := patternuc.New(fetcher).Lookup(cmd.Context(), query)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			case asMessage:
				fmt.Fprintln(out, interactionuc.Render(doc))
				return nil
			}

			if doc.Len() == 0 {
				fmt.Fprintf(out, "No patterns found matching %q.\n", query)
				return nil
			}
			for _, e := range doc.Entries() {
				fmt.Fprintf(out, "%s\t%s\n", e.Key, e.Pattern)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as an ordered JSON object")
	cmd.Flags().BoolVarP(&asMessage, "message", "m", false, "Output the chat message the bot would send")
	cmd.MarkFlagsMutuallyExclusive("json", "message")

	return cmd
}
