// Package subject maps index subjects (a country name or the generic keyword
// pool) to their in-memory engine and on-disk index file, and guards each
// subject against concurrent crawls.
package subject

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/store"
	apperrors "github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/errors"
)

// Generic is the subject of the keyword-seeded pool shared by all generic
// searches.
const Generic = "Generic"

const fileSuffix = "_index.tsv"

// IndexFile describes one persisted subject index.
type IndexFile struct {
	Subject string `json:"subject"`
	Path    string `json:"path"`
	Updated string `json:"updated"`
}

// Router hands out one Engine per subject, restoring it from disk the first
// time it is requested.
type Router struct {
	mu      sync.Mutex
	dataDir string
	engines map[string]*indexer.Engine
	active  map[string]struct{}
	logger  *slog.Logger
}

func NewRouter(dataDir string) (*Router, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	return &Router{
		dataDir: dataDir,
		engines: make(map[string]*indexer.Engine),
		active:  make(map[string]struct{}),
		logger:  slog.Default().With("component", "subject-router"),
	}, nil
}

// Validate rejects subject names that cannot be used as a file name prefix.
func Validate(subject string) error {
	if strings.TrimSpace(subject) == "" {
		return apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "subject must not be empty")
	}
	if strings.ContainsAny(subject, `/\`) || strings.Contains(subject, "..") {
		return apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest, "subject %q contains a path separator", subject)
	}
	return nil
}

// Path returns the index file of subject.
func (r *Router) Path(subject string) string {
	return filepath.Join(r.dataDir, subject+fileSuffix)
}

// Exists reports whether subject has a persisted index file.
func (r *Router) Exists(subject string) bool {
	return store.Exists(r.Path(subject))
}

// Engine returns the engine of subject, creating it and restoring the
// persisted index on first use. A file that cannot be read leaves the engine
// empty.
func (r *Router) Engine(subject string) *indexer.Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if engine, ok := r.engines[subject]; ok {
		return engine
	}
	engine := indexer.NewEngine(subject)
	r.engines[subject] = engine

	path := r.Path(subject)
	if !store.Exists(path) {
		return engine
	}
	snap, err := store.Load(path)
	if err != nil {
		r.logger.Error("failed to load index file, starting empty",
			"subject", subject,
			"path", path,
			"error", err,
		)
		return engine
	}
	engine.Restore(snap)
	return engine
}

// Acquire marks a crawl of subject as running. It fails with
// ErrCrawlInProgress when one already is. The returned func ends the crawl.
func (r *Router) Acquire(subject string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[subject]; busy {
		return nil, apperrors.Newf(apperrors.ErrCrawlInProgress, http.StatusConflict, "a crawl of %s is already running", subject)
	}
	r.active[subject] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.active, subject)
			r.mu.Unlock()
		})
	}, nil
}

// Reset deletes the index file of subject and replaces its engine with an
// empty one. Callers must hold the subject via Acquire.
func (r *Router) Reset(subject string) (*indexer.Engine, error) {
	path := r.Path(subject)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing index file %s: %w", path, err)
	}
	engine := indexer.NewEngine(subject)
	r.mu.Lock()
	r.engines[subject] = engine
	r.mu.Unlock()
	r.logger.Info("subject reset", "subject", subject, "path", path)
	return engine, nil
}

// ListCountryFiles returns the persisted country indexes in subject order.
// The generic pool is excluded.
func (r *Router) ListCountryFiles() ([]IndexFile, error) {
	entries, err := os.ReadDir(r.dataDir)
	if err != nil {
		return nil, fmt.Errorf("reading data directory: %w", err)
	}
	files := make([]IndexFile, 0)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		subject := strings.TrimSuffix(name, fileSuffix)
		if subject == "" || subject == Generic {
			continue
		}
		path := filepath.Join(r.dataDir, name)
		updated, err := store.ReadTimestamp(path)
		if err != nil {
			r.logger.Warn("unreadable index file", "path", path, "error", err)
		}
		files = append(files, IndexFile{Subject: subject, Path: path, Updated: updated})
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Subject < files[j].Subject
	})
	return files, nil
}
