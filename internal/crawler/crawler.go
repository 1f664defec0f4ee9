// Package crawler discovers people linked to a seed resource in a knowledge
// graph and feeds their biographical text to an index. The walk is
// depth-first and sequential, bounded by a people target and a branch budget
// shared by the whole crawl tree.
package crawler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/metrics"
)

// Sink receives every person found together with their concatenated text.
// It reports whether the person was new to the index.
type Sink interface {
	IndexDocument(uri string, text string) bool
}

type Config struct {
	RecursionLimit int
	StopPercent    float64
	MaxPeople      int
	Namespace      string
}

// Result summarises one crawl.
type Result struct {
	Branches    int
	PeopleFound int
	Added       int
	Duration    time.Duration
}

type Crawler struct {
	port    graph.Port
	cfg     Config
	seed    *uint64
	metrics *metrics.Metrics
}

type Option func(*Crawler)

// WithSeed makes branch selection reproducible.
func WithSeed(seed uint64) Option {
	return func(c *Crawler) {
		c.seed = &seed
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) {
		c.metrics = m
	}
}

func New(port graph.Port, cfg Config, opts ...Option) *Crawler {
	c := &Crawler{port: port, cfg: cfg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// state is private to one Crawl call.
type state struct {
	visited  map[string]struct{}
	branches int
	found    int
	added    int
	target   int
	sink     Sink
	rng      *rand.Rand
	logger   *slog.Logger
}

// Crawl walks the graph from seed until target people have been found, the
// branch budget is spent or no unvisited link remains. Query failures end the
// affected branch and are never returned. target is capped at MaxPeople.
func (c *Crawler) Crawl(ctx context.Context, seed string, target int, sink Sink) Result {
	if c.cfg.MaxPeople > 0 && target > c.cfg.MaxPeople {
		target = c.cfg.MaxPeople
	}
	st := &state{
		visited: map[string]struct{}{seed: {}},
		target:  target,
		sink:    sink,
		rng:     c.newRand(),
		logger:  logger.FromContext(ctx).With("component", "crawler", "seed", seed),
	}
	start := time.Now()
	st.logger.Info("crawl started",
		"target", target,
		"recursion_limit", c.cfg.RecursionLimit,
	)
	c.visit(ctx, st, seed)
	res := Result{
		Branches:    st.branches,
		PeopleFound: st.found,
		Added:       st.added,
		Duration:    time.Since(start),
	}
	st.logger.Info("crawl finished",
		"branches", res.Branches,
		"people_found", res.PeopleFound,
		"added", res.Added,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res
}

func (c *Crawler) newRand() *rand.Rand {
	if c.seed != nil {
		return rand.New(rand.NewPCG(*c.seed, *c.seed))
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (c *Crawler) visit(ctx context.Context, st *state, uri string) {
	if st.found >= st.target || ctx.Err() != nil {
		return
	}
	c.collectPeople(ctx, st, uri)

	if st.branches >= c.cfg.RecursionLimit || st.found >= st.target {
		return
	}
	cursor, err := c.port.Execute(graph.WithShape(ctx, graph.ShapeNeighbors), graph.ResourceNeighborsQuery(uri, c.cfg.Namespace))
	if err != nil {
		st.logger.Warn("neighbor query failed, ending branch", "uri", uri, "error", err)
		return
	}
	defer cursor.Close()

	for st.found < st.target && ctx.Err() == nil {
		next, ok := SelectRandom(cursor, graph.VarResource, c.cfg.StopPercent, st.rng)
		if !ok {
			break
		}
		if _, seen := st.visited[next]; seen {
			continue
		}
		if st.branches >= c.cfg.RecursionLimit {
			return
		}
		st.branches++
		c.metrics.Branched()
		st.visited[next] = struct{}{}
		st.logger.Debug("branching", "from", uri, "to", next, "branch", st.branches)
		c.visit(ctx, st, next)
	}
	if err := cursor.Err(); err != nil {
		st.logger.Warn("neighbor stream failed", "uri", uri, "error", err)
	}
}

// collectPeople indexes the people linked to uri, up to the remaining target.
// The person list is read before any text is fetched so the cursor is not held
// open across the text queries.
func (c *Crawler) collectPeople(ctx context.Context, st *state, uri string) {
	cursor, err := c.port.Execute(graph.WithShape(ctx, graph.ShapePersons), graph.PersonNeighborsQuery(uri))
	if err != nil {
		st.logger.Warn("person query failed", "uri", uri, "error", err)
		return
	}
	remaining := st.target - st.found
	people := make([]string, 0, min(remaining, 64))
	for len(people) < remaining && cursor.Next() {
		if person := cursor.Binding()[graph.VarResource]; person != "" {
			people = append(people, person)
		}
	}
	if err := cursor.Err(); err != nil {
		st.logger.Warn("person stream failed", "uri", uri, "error", err)
	}
	cursor.Close()

	for _, person := range people {
		st.found++
		text := c.Text(ctx, person)
		if st.sink.IndexDocument(person, text) {
			st.added++
		}
		c.metrics.PersonIndexed()
		st.logger.Debug("person indexed", "person", person, "found", st.found, "text_len", len(text))
	}
}

// Text concatenates the English abstract, comment and description of uri,
// separated by single spaces. Missing or failed sources contribute "".
func (c *Crawler) Text(ctx context.Context, uri string) string {
	queries := graph.TextQueries(uri)
	parts := make([]string, len(queries))
	for i, q := range queries {
		cursor, err := c.port.Execute(graph.WithShape(ctx, graph.ShapeText), q)
		if err != nil {
			slog.Default().With("component", "crawler").Debug("text query failed", "uri", uri, "error", err)
			continue
		}
		value, _, err := graph.First(cursor, graph.VarText)
		if err != nil {
			slog.Default().With("component", "crawler").Debug("text stream failed", "uri", uri, "error", err)
		}
		parts[i] = value
	}
	return strings.Join(parts, " ")
}
