package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config

	rootCmd = &cobra.Command{
		Use:   "crawler",
		Short: "Crawl people from a linked-data graph and search them by keyword",
		Long: `crawler walks a SPARQL knowledge graph from a country or keyword seed,
indexes the biographies of the people it finds and answers keyword searches
over the resulting per-country and generic indexes.

Index files are kept under storage.dataDir and re-crawled once they are older
than crawler.staleAfter.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if logLevel != "" {
				loaded.Logging.Level = logLevel
			}
			logger.SetupWriter(cmd.ErrOrStderr(), loaded.Logging.Level, loaded.Logging.Format)
			cfg = loaded
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML config file (defaults plus SP_* environment when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

// peopleOrDefault maps an unset --people flag to crawler.defaultPeople.
func peopleOrDefault(cmd *cobra.Command, people int) int {
	if !cmd.Flags().Changed("people") {
		return cfg.Crawler.DefaultPeople
	}
	return people
}
