package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/searcher/executor"
)

var (
	searchCountry     string
	searchPeople      int
	searchPrecomputed bool
)

var searchCmd = &cobra.Command{
	Use:   "search KEYWORD...",
	Short: "Find people matching every keyword",
	Long: `Search resolves each keyword against the knowledge graph and lists the people
whose biographies contain all of the resolved terms.

With --country the country's index is used, crawling it first when it is
missing or stale. Without it, every resolved keyword seeds a fresh crawl into
the generic pool. --precomputed searches the generic pool as it stands.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchCountry, "country", "", "search the index of this country")
	searchCmd.Flags().IntVar(&searchPeople, "people", 0, "people to crawl when a crawl is needed (default crawler.defaultPeople)")
	searchCmd.Flags().BoolVar(&searchPrecomputed, "precomputed", false, "search the generic pool without crawling")
	searchCmd.MarkFlagsMutuallyExclusive("country", "precomputed")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	query := strings.Join(args, " ")
	people := peopleOrDefault(cmd, searchPeople)

	var result *executor.SearchResult
	switch {
	case searchPrecomputed:
		result, err = a.service.Precomputed(ctx, query)
	case searchCountry != "":
		result, err = a.service.SearchCountry(ctx, searchCountry, query, people)
	default:
		result, err = a.service.SearchGeneric(ctx, query, people)
	}
	if err != nil {
		return err
	}
	printResult(cmd.OutOrStdout(), result)
	return nil
}

func printResult(w io.Writer, r *executor.SearchResult) {
	if !r.Found {
		fmt.Fprintln(w, "No resources were found for the combination of selected keywords.")
		return
	}
	for _, uri := range r.Results {
		fmt.Fprintln(w, uri)
	}
	fmt.Fprintf(w, "\n%d of %d people in %s matched %s\n", r.TotalHits, r.IndexSize, r.Subject, strings.Join(r.Terms, ", "))
}
