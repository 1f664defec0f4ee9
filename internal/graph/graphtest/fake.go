// Package graphtest provides an in-memory graph.Port for tests.
package graphtest

import (
	"context"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph"
)

// Port answers queries from a table keyed by exact query text. Unknown
// queries return an empty cursor. Every executed query is recorded.
type Port struct {
	mu      sync.Mutex
	rows    map[string][]graph.Binding
	errs    map[string]error
	queries []string
}

func New() *Port {
	return &Port{
		rows: make(map[string][]graph.Binding),
		errs: make(map[string]error),
	}
}

// On registers the rows returned for query.
func (p *Port) On(query string, rows ...graph.Binding) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows[query] = append(p.rows[query], rows...)
	return p
}

// OnValues registers one row per value, binding variable.
func (p *Port) OnValues(query, variable string, values ...string) *Port {
	rows := make([]graph.Binding, 0, len(values))
	for _, v := range values {
		rows = append(rows, graph.Binding{variable: v})
	}
	return p.On(query, rows...)
}

// Fail makes query return err.
func (p *Port) Fail(query string, err error) *Port {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[query] = err
	return p
}

func (p *Port) Execute(_ context.Context, query string) (graph.Cursor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queries = append(p.queries, query)
	if err, ok := p.errs[query]; ok {
		return nil, err
	}
	return graph.NewSliceCursor(p.rows[query]...), nil
}

// Queries returns every query executed so far, in order.
func (p *Port) Queries() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.queries...)
}

// Count returns how many executed queries contain fragment.
func (p *Port) Count(fragment string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, q := range p.queries {
		if strings.Contains(q, fragment) {
			n++
		}
	}
	return n
}
