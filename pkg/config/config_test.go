package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Crawler.RecursionLimit)
	assert.Equal(t, 24*time.Hour, cfg.Crawler.StaleAfter)
	assert.Equal(t, 300, cfg.Crawler.MaxPeople)
	assert.Equal(t, "http://dbpedia.org/resource/", cfg.Graph.Namespace)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlDoc := `
crawler:
  recursionLimit: 3
  maxPeople: 40
  defaultPeople: 100
storage:
  dataDir: /var/lib/crawler
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))
	t.Setenv("SP_GRAPH_ENDPOINT", "http://localhost:8890/sparql")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Crawler.RecursionLimit)
	assert.Equal(t, 40, cfg.Crawler.MaxPeople)
	assert.Equal(t, 40, cfg.Crawler.DefaultPeople, "default people is clamped to the upper bound")
	assert.Equal(t, "/var/lib/crawler", cfg.Storage.DataDir)
	assert.Equal(t, "http://localhost:8890/sparql", cfg.Graph.Endpoint)
}

func TestValidateRejectsBadLimits(t *testing.T) {
	cfg := Default()
	cfg.Crawler.RecursionLimit = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Crawler.StopPercent = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Crawler.MaxPeople = 0
	assert.Error(t, cfg.Validate())
}
