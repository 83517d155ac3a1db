package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pevans/newsdocs/app"
	"github.com/pevans/newsdocs/config"
)

var (
	configPath string
	secretPath string
	debugMode  bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "newsdocs <move|combine|stars> [nobreak]",
		Short: "Merge and archive scraped news documents",
		Long: `newsdocs organizes the documents written by the scrapers.

Modes:
  move       archive documents into {site}/已读的文件/{date}
  combine    merge each site's documents by category, then archive them
             into {site}/合并过的文件/{date}
  stars      merge each site's starred documents, then archive them into
             {site}/合并过的文件/加星-{date}

Documents are separated by page breaks unless "nobreak" or --no-break is
given.`,
		Args: cobra.MaximumNArgs(2),
		RunE: runArchive,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $"+config.EnvConfig+" or "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&secretPath, "secret", "", "secret file (default $"+config.EnvSecret+" or "+config.DefaultSecretPath+")")
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "debug logging")
	root.Flags().Bool("no-break", false, "separate documents with empty paragraphs instead of page breaks")

	root.AddCommand(newScrapeCmd(), newSyncStarsCmd(), newHistoryCmd())
	return root
}

// load reads the configuration and builds the app. Usage has been
// validated by the time it runs, so usage output is silenced.
func load(cmd *cobra.Command) (*app.App, error) {
	cmd.SilenceUsage = true

	cfg, err := config.Load(configPath, secretPath)
	if err != nil {
		return nil, err
	}

	a, err := app.New(cfg, app.NewLogger(debugMode || cfg.DebugMode))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, nil
}
