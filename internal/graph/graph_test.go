package graph_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph/graphtest"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/metrics"
)

func TestQueryShapes(t *testing.T) {
	uri := "http://dbpedia.org/resource/Greece"

	persons := graph.PersonNeighborsQuery(uri)
	assert.Contains(t, persons, "<"+uri+"> ?p ?resource")
	assert.Contains(t, persons, "?resource ?p <"+uri+">")
	assert.Contains(t, persons, "foaf:Person")

	neighbors := graph.ResourceNeighborsQuery(uri, "http://dbpedia.org/resource/")
	assert.Contains(t, neighbors, `STRSTARTS(STR(?resource), "http://dbpedia.org/resource/")`)

	label := graph.LabelLookupQuery(`Say "hi"`)
	assert.Contains(t, label, `"Say \"hi\""@en`)
	assert.Contains(t, label, "dbo:wikiPageRedirects")

	assert.Contains(t, graph.ExistsQuery(uri), "LIMIT 1")
	assert.Contains(t, graph.CountryQuery("Greece"), `foaf:name "Greece"@en`)

	texts := graph.TextQueries(uri)
	require.Len(t, texts, 3)
	assert.Contains(t, texts[0], "dbo:abstract")
	assert.Contains(t, texts[1], "rdfs:comment")
	assert.Contains(t, texts[2], "dc:description")
}

func TestQueryEscapesIRI(t *testing.T) {
	q := graph.ExistsQuery("http://x/a> ?p ?o } #")
	assert.NotContains(t, q, "a> ?p")
}

func TestQueryEscapesLiterals(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{"plain", "Einstein", `"Einstein"@en`},
		{"quote and backslash", `Say "hi" \ bye`, `"Say \"hi\" \\ bye"@en`},
		{"echar controls", "a\tb\nc\rd\be\ff", `"a\tb\nc\rd\be\ff"@en`},
		{"other controls", "Bad\x01key\aword\v", `"Bad\u0001key\u0007word\u000B"@en`},
		{"non ascii kept", "Κρήτη", `"Κρήτη"@en`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := graph.LabelLookupQuery(tt.label)
			assert.Contains(t, q, tt.want)
			assert.NotContains(t, q, `\x`)
		})
	}
}

func TestSliceCursorAndDrain(t *testing.T) {
	cur := graph.NewSliceCursor(
		graph.Binding{"x": "1"},
		graph.Binding{"y": "skip"},
		graph.Binding{"x": "2"},
	)
	values, err := graph.Drain(cur, "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, values)
	assert.False(t, cur.Next())
}

func TestFirst(t *testing.T) {
	v, ok, err := graph.First(graph.NewSliceCursor(graph.Binding{"uri": "a"}, graph.Binding{"uri": "b"}), "uri")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	_, ok, err = graph.First(graph.NewSliceCursor(), "uri")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestShapeContext(t *testing.T) {
	assert.Equal(t, graph.ShapeUnspecified, graph.ShapeFrom(context.Background()))
	ctx := graph.WithShape(context.Background(), graph.ShapeExists)
	assert.Equal(t, graph.ShapeExists, graph.ShapeFrom(ctx))
}

func resilientConfig() config.GraphConfig {
	return config.GraphConfig{
		RetryAttempts:   2,
		RetryDelay:      time.Millisecond,
		BreakerFailures: 10,
		BreakerCoolDown: time.Hour,
	}
}

func TestResilientPortRetriesTransientFailures(t *testing.T) {
	calls := 0
	inner := graph.PortFunc(func(ctx context.Context, q string) (graph.Cursor, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return graph.NewSliceCursor(graph.Binding{"uri": "ok"}), nil
	})
	m := metrics.New(prometheus.NewRegistry())
	port := graph.NewResilientPort(inner, resilientConfig(), m)

	cur, err := port.Execute(graph.WithShape(context.Background(), graph.ShapeLabel), "q")
	require.NoError(t, err)
	values, err := graph.Drain(cur, "uri")
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, values)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GraphQueriesTotal.WithLabelValues("label", "ok")))
}

func TestResilientPortOpensBreaker(t *testing.T) {
	fake := graphtest.New().Fail("q", errors.New("boom"))
	cfg := resilientConfig()
	cfg.RetryAttempts = 0
	cfg.BreakerFailures = 2
	port := graph.NewResilientPort(fake, cfg, nil)

	for i := 0; i < 4; i++ {
		_, err := port.Execute(context.Background(), "q")
		assert.Error(t, err)
	}
	assert.Len(t, fake.Queries(), 2)
	assert.Equal(t, "open", port.BreakerState())
}
