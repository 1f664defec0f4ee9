package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/config"
)

func TestDistinct(t *testing.T) {
	assert.Equal(t, []string{"Greece", "Italy"}, distinct([]string{" Greece", "Italy", "", "Greece "}))
	assert.Empty(t, distinct(nil))
}

func TestRefreshHelpScopesSkipToProcess(t *testing.T) {
	assert.Contains(t, refreshCmd.Long, "another crawl in this process")
	assert.NotContains(t, refreshCmd.Long, "another process")
}

func TestResultsLogPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "analytics.csv"), resultsLogPath(config.StorageConfig{DataDir: "data", ResultsLog: "analytics.csv"}))
	assert.Equal(t, "/var/log/analytics.csv", resultsLogPath(config.StorageConfig{DataDir: "data", ResultsLog: "/var/log/analytics.csv"}))
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &executor.SearchResult{Results: []string{}})
	assert.Equal(t, "No resources were found for the combination of selected keywords.\n", buf.String())

	buf.Reset()
	printResult(&buf, &executor.SearchResult{
		Subject:   "Greece",
		Terms:     []string{"poet"},
		Found:     true,
		TotalHits: 1,
		IndexSize: 12,
		Results:   []string{"http://dbpedia.org/resource/Odysseas_Elytis"},
	})
	assert.Equal(t, "http://dbpedia.org/resource/Odysseas_Elytis\n\n1 of 12 people in Greece matched poet\n", buf.String())
}

func TestIndexesCommandListsCountryFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Greece_index.tsv"), []byte("01/03/26 12:00:00\npoet\thttp://dbpedia.org/resource/Odysseas_Elytis\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Generic_index.tsv"), []byte("01/03/26 12:00:00\n"), 0o644))
	t.Setenv("SP_STORAGE_DATA_DIR", dir)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"indexes"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Greece")
	assert.Contains(t, out.String(), "01/03/26 12:00:00")
	assert.NotContains(t, out.String(), "Generic")
}
