package main

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/searcher"
)

var (
	refreshPeople   int
	refreshParallel int
	refreshAll      bool
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [COUNTRY...]",
	Short: "Re-crawl country indexes that are missing or stale",
	Long: `Refresh crawls each named country whose index file is missing or older than
crawler.staleAfter. Distinct countries are crawled concurrently; a country
already being crawled by another crawl in this process is skipped. --all
refreshes every existing country index.`,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().IntVar(&refreshPeople, "people", 0, "people per crawled country (default crawler.defaultPeople)")
	refreshCmd.Flags().IntVar(&refreshParallel, "parallel", 4, "countries crawled at once")
	refreshCmd.Flags().BoolVar(&refreshAll, "all", false, "refresh every existing country index")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	countries := slices.Clone(args)
	if refreshAll {
		files, err := a.service.Indexes()
		if err != nil {
			return err
		}
		for _, f := range files {
			countries = append(countries, f.Subject)
		}
	}
	countries = distinct(countries)
	if len(countries) == 0 {
		return fmt.Errorf("no countries to refresh: name some or pass --all")
	}

	people := peopleOrDefault(cmd, refreshPeople)
	var (
		mu    sync.Mutex
		lines = make(map[string]string, len(countries))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(refreshParallel, 1))
	for _, country := range countries {
		g.Go(func() error {
			res, err := a.service.Refresh(gctx, country, people)
			var line string
			switch {
			case searcher.IsBusy(err):
				slog.Warn("country is being crawled elsewhere, skipping", "country", country)
				line = "skipped, crawl in progress"
			case err != nil:
				return fmt.Errorf("refreshing %s: %w", country, err)
			case res.Crawled:
				line = fmt.Sprintf("crawled %d people, %d added", res.Report.PeopleFound, res.Report.AddedDocuments)
			default:
				line = "up to date"
			}
			mu.Lock()
			lines[country] = line
			mu.Unlock()
			return nil
		})
	}
	err = g.Wait()

	out := cmd.OutOrStdout()
	for _, country := range countries {
		if line, ok := lines[country]; ok {
			fmt.Fprintf(out, "%s: %s\n", country, line)
		}
	}
	return err
}

// distinct trims names and drops blanks and repeats, keeping first-seen order.
func distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
