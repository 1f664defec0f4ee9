package indexer

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/store"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/tokenizer"
)

// Engine holds the document registry and inverted index of one subject.
type Engine struct {
	mu       sync.RWMutex
	registry *index.Registry
	inverted *index.Inverted
	subject  string
	logger   *slog.Logger
}

func NewEngine(subject string) *Engine {
	return &Engine{
		registry: index.NewRegistry(),
		inverted: index.NewInverted(),
		subject:  subject,
		logger:   slog.Default().With("component", "indexer", "subject", subject),
	}
}

func (e *Engine) Subject() string {
	return e.subject
}

// IndexDocument registers uri and adds every term of text to its postings.
// It reports whether uri was new to the registry.
func (e *Engine) IndexDocument(uri string, text string) bool {
	terms := tokenizer.Tokenize(text)

	e.mu.Lock()
	defer e.mu.Unlock()
	_, known := e.registry.Lookup(uri)
	id := e.registry.Register(uri)
	for _, term := range terms {
		e.inverted.Add(term, id)
	}
	e.logger.Debug("document indexed",
		"uri", uri,
		"doc_id", id,
		"token_count", len(terms),
	)
	return !known
}

// Match returns the URIs of the documents containing every indexed term.
// Terms absent from the index do not constrain the result. Nil means no match.
func (e *Engine) Match(terms []string) []string {
	normalized := make([]string, 0, len(terms))
	for _, term := range terms {
		if term = strings.ToLower(strings.TrimSpace(term)); term != "" {
			normalized = append(normalized, term)
		}
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	hits := e.inverted.Intersect(normalized)
	if hits == nil {
		return nil
	}
	uris := make([]string, 0, hits.GetCardinality())
	for id := range index.IDs(hits) {
		uri, ok := e.registry.URI(id)
		if !ok {
			e.logger.Error("posting refers to unregistered document", "doc_id", id)
			continue
		}
		uris = append(uris, uri)
	}
	if len(uris) == 0 {
		return nil
	}
	return uris
}

// Restore merges a persisted snapshot into the engine, registering URIs in
// file order.
func (e *Engine) Restore(snap *store.Snapshot) {
	if snap == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, entry := range snap.Entries {
		for _, uri := range entry.URIs {
			e.inverted.Add(entry.Term, e.registry.Register(uri))
		}
	}
	e.logger.Info("index restored",
		"updated", snap.Updated,
		"terms", e.inverted.Len(),
		"docs", e.registry.Len(),
	)
}

// Entries renders the index as store entries, terms sorted and URIs in id
// order.
func (e *Engine) Entries() []store.Entry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	terms := e.inverted.Terms()
	entries := make([]store.Entry, 0, len(terms))
	for _, term := range terms {
		postings := e.inverted.Postings(term)
		uris := make([]string, 0, postings.GetCardinality())
		for id := range index.IDs(postings) {
			if uri, ok := e.registry.URI(id); ok {
				uris = append(uris, uri)
			}
		}
		entries = append(entries, store.Entry{Term: term, URIs: uris})
	}
	return entries
}

// Persist rewrites the subject's index file with now as its timestamp.
func (e *Engine) Persist(path string, now time.Time) error {
	entries := e.Entries()
	if err := store.Save(path, entries, now); err != nil {
		return fmt.Errorf("persisting %s index: %w", e.subject, err)
	}
	e.logger.Info("index persisted",
		"path", path,
		"terms", len(entries),
		"docs", e.DocCount(),
	)
	return nil
}

func (e *Engine) DocCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.registry.Len()
}

func (e *Engine) TermCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.inverted.Len()
}
