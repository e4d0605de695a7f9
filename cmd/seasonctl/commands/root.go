// Package commands implements the seasonctl command tree.
package commands

import (
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"nursery-platform/internal/app"
	"nursery-platform/internal/config"
	"nursery-platform/internal/services"
	"nursery-platform/pkg/metrics"
)

type options struct {
	region      string
	lang        string
	regionsFile string
	asJSON      bool

	seasons *services.SeasonService
}

func Execute() error {
	return newRootCmd(os.Stdout).Execute()
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "seasonctl",
		Short:         "Inspect regional nursery seasons from the command line",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if opts.regionsFile != "" {
				cfg.Season.RegionsFile = opts.regionsFile
			}
			if opts.lang == "" {
				opts.lang = cfg.Season.Language
			}

			logger := app.NewLogger(cfg, "seasonctl")
			logger.SetOutput(cmd.ErrOrStderr())

			opts.seasons, err = app.NewSeasonService(cfg, logger, metrics.NewCollector("seasonctl", prometheus.NewRegistry()))
			return err
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&opts.region, "region", "r", "", "region id (default: configured default region)")
	root.PersistentFlags().StringVarP(&opts.lang, "lang", "l", "", "display language, es or en (default: configured language)")
	root.PersistentFlags().StringVar(&opts.regionsFile, "regions-file", "", "YAML file overlaying the built-in regions")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")

	root.AddCommand(
		nowCmd(opts),
		calendarCmd(opts),
		previewCmd(opts),
		regionsCmd(opts),
		wateringCmd(opts),
	)
	return root
}
