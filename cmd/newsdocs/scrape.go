package main

import (
	"github.com/spf13/cobra"

	"github.com/pevans/newsdocs/app"
)

func newScrapeCmd() *cobra.Command {
	var opts app.ServiceOptions

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape every configured site once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.Service(opts)
			if err != nil {
				return err
			}

			ok, err := svc.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				a.Logger.Error("run finished with failures")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Site, "site", "", "only scrape this site")
	cmd.Flags().IntVar(&opts.Year, "year", 0, "scrape the archive pages of this year")
	return cmd
}

func newSyncStarsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync-stars",
		Short: "Move files starred on the drive into their starred folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			syncer := a.Stars()
			if syncer == nil {
				a.Logger.Warn("drive is not configured, nothing to sync")
				return nil
			}
			if err := syncer.Sync(cmd.Context()); err != nil {
				a.Logger.Error("star sync failed", "error", err)
			}
			return nil
		},
	}
}
