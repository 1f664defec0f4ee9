package executor

import (
	"log/slog"
	"time"
)

// Matcher is satisfied by *indexer.Engine.
type Matcher interface {
	Match(terms []string) []string
	DocCount() int
}

type SearchResult struct {
	Query     string   `json:"query"`
	Subject   string   `json:"subject"`
	Terms     []string `json:"terms"`
	Found     bool     `json:"found"`
	TotalHits int      `json:"total_hits"`
	Results   []string `json:"results"`
	IndexSize int      `json:"index_size"`
	Crawled   bool     `json:"crawled"`
	LatencyMs int64    `json:"latency_ms"`
}

type Executor struct {
	logger *slog.Logger
}

func New() *Executor {
	return &Executor{
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute matches terms against index. Terms the index has never seen do not
// narrow the result; an empty result is reported with Found=false.
func (e *Executor) Execute(index Matcher, subject, query string, terms []string) *SearchResult {
	start := time.Now()
	result := &SearchResult{
		Query:     query,
		Subject:   subject,
		Terms:     terms,
		Results:   []string{},
		IndexSize: index.DocCount(),
	}
	if len(terms) > 0 {
		if uris := index.Match(terms); len(uris) > 0 {
			result.Results = uris
			result.Found = true
			result.TotalHits = len(uris)
		}
	}
	result.LatencyMs = time.Since(start).Milliseconds()
	e.logger.Info("query executed",
		"query", query,
		"subject", subject,
		"terms", terms,
		"results", result.TotalHits,
	)
	return result
}
