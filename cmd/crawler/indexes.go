package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/subject"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "List the persisted country indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		router, err := subject.NewRouter(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		files, err := router.ListCountryFiles()
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no country indexes in", cfg.Storage.DataDir)
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COUNTRY\tUPDATED\tFILE")
		for _, f := range files {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Subject, f.Updated, f.Path)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(indexesCmd)
}
