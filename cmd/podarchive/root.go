package main

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/raffaelramalhorosa/podcast-archiver/internal/archiver"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/config"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/downloader"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/fetcher"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/hasher"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/logging"
	"github.com/raffaelramalhorosa/podcast-archiver/internal/store"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "podarchive [feed-url]",
		Short:         "Archive a podcast feed and its episode media",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.FeedURL = args[0]
			}

			logger, err := logging.New(logging.Options{
				Level:   cfg.Logging.Level,
				Verbose: verbose,
				Format:  cfg.Logging.Format,
				Writer:  cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}

			h, err := hasher.New(cfg.Hash.Algorithm)
			if err != nil {
				return err
			}
			st, err := store.New(cfg.Archive.Root, cfg.Archive.MediaDir, logger)
			if err != nil {
				return err
			}
			logger.Info("saving to", "media", st.MediaDir())

			f := fetcher.New(&http.Client{}, cfg.FeedTimeout(), logger)
			dl := downloader.New(st, f, h, logger)
			arch := archiver.New(st, f, dl, archiver.Options{
				MediaExtension: cfg.Archive.MediaExtension,
				Logger:         logger,
			})

			report, err := arch.Run(cmd.Context(), cfg.FeedURL)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default ./"+config.DefaultPath+" when present)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	return rootCmd
}
