package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer"
)

func seeded() *indexer.Engine {
	e := indexer.NewEngine("test")
	e.IndexDocument("http://x/1", "alpha")
	e.IndexDocument("http://x/2", "alpha beta")
	e.IndexDocument("http://x/3", "alpha beta")
	e.IndexDocument("http://x/4", "beta")
	return e
}

func TestExecuteIntersects(t *testing.T) {
	res := New().Execute(seeded(), "test", "alpha beta", []string{"alpha", "beta"})
	assert.True(t, res.Found)
	assert.Equal(t, []string{"http://x/2", "http://x/3"}, res.Results)
	assert.Equal(t, 2, res.TotalHits)
	assert.Equal(t, 4, res.IndexSize)
}

func TestExecuteSkipsUnindexedTerm(t *testing.T) {
	res := New().Execute(seeded(), "test", "beta zzz", []string{"beta", "zzz"})
	assert.Equal(t, []string{"http://x/2", "http://x/3", "http://x/4"}, res.Results)
}

func TestExecuteNoMatch(t *testing.T) {
	res := New().Execute(seeded(), "test", "zzz", []string{"zzz"})
	assert.False(t, res.Found)
	assert.Empty(t, res.Results)
	assert.NotNil(t, res.Results)

	res = New().Execute(seeded(), "test", "", nil)
	assert.False(t, res.Found)
}
