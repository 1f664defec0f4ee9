package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var reconstructPeople int

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct COUNTRY",
	Short: "Delete a country index and rebuild it from a fresh crawl",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.service.Reconstruct(ctx, args[0], peopleOrDefault(cmd, reconstructPeople))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s rebuilt: %d people found, %d added, %d branches in %s\n",
			report.Subject, report.PeopleFound, report.AddedDocuments, report.Branches, report.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconstructCmd)
	reconstructCmd.Flags().IntVar(&reconstructPeople, "people", 0, "people the rebuilt index should hold (default crawler.defaultPeople)")
}
