// Package resolver maps user keywords and country names to canonical resource
// URIs in the knowledge graph, following label redirects, and turns resolved
// URIs back into index terms.
package resolver

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/metrics"
)

const (
	kindKeyword = "keyword"
	kindCountry = "country"
)

// Cache stores resolutions. An empty uri records a keyword that does not
// resolve.
type Cache interface {
	Get(ctx context.Context, kind, keyword string) (string, bool)
	Set(ctx context.Context, kind, keyword, uri string)
}

// Disambiguation is the outcome of resolving a list of keywords: the terms to
// match against the index and the URIs to seed a crawl from.
type Disambiguation struct {
	Terms []string
	Seeds []string
}

type Resolver struct {
	port      graph.Port
	namespace string
	cache     Cache
	group     singleflight.Group
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

type Option func(*Resolver)

func WithCache(c Cache) Option {
	return func(r *Resolver) {
		r.cache = c
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func New(port graph.Port, namespace string, opts ...Option) *Resolver {
	r := &Resolver{
		port:      port,
		namespace: namespace,
		logger:    slog.Default().With("component", "resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Normalize capitalises the first rune of keyword and lower-cases the rest.
func Normalize(keyword string) string {
	keyword = strings.TrimSpace(keyword)
	first, size := utf8.DecodeRuneInString(keyword)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(first)) + strings.ToLower(keyword[size:])
}

// Resolve returns the resource a keyword names. The label is looked up first,
// following redirects; failing that the keyword is appended to the resource
// namespace. The candidate is only returned if some triple mentions it.
func (r *Resolver) Resolve(ctx context.Context, keyword string) (string, bool) {
	label := Normalize(keyword)
	if label == "" {
		return "", false
	}
	return r.cached(ctx, kindKeyword, label, func() (string, bool, error) {
		return r.resolveKeyword(ctx, label)
	})
}

// ResolveCountry returns the resource of a current country named name, falling
// back to a label lookup.
func (r *Resolver) ResolveCountry(ctx context.Context, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	return r.cached(ctx, kindCountry, name, func() (string, bool, error) {
		return r.resolveCountry(ctx, name)
	})
}

// Disambiguate resolves every keyword. Resolved keywords become crawl seeds
// and are replaced by their refined term; the rest are kept as given.
func (r *Resolver) Disambiguate(ctx context.Context, keywords []string) Disambiguation {
	var d Disambiguation
	for _, keyword := range keywords {
		uri, ok := r.Resolve(ctx, keyword)
		if !ok {
			d.Terms = append(d.Terms, keyword)
			continue
		}
		d.Seeds = append(d.Seeds, uri)
		d.Terms = append(d.Terms, RefineTerm(uri))
	}
	r.logger.Debug("keywords disambiguated",
		"keywords", keywords,
		"terms", d.Terms,
		"seeds", len(d.Seeds),
	)
	return d
}

// RefineTerm derives an index term from a resource URI: its last path segment,
// lower-cased and cut at the first underscore.
func RefineTerm(uri string) string {
	segment := uri
	if i := strings.LastIndexAny(segment, "/#"); i >= 0 {
		segment = segment[i+1:]
	}
	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}
	if i := strings.IndexByte(segment, '_'); i > 0 {
		segment = segment[:i]
	}
	return strings.ToLower(segment)
}

func (r *Resolver) cached(ctx context.Context, kind, key string, resolve func() (string, bool, error)) (string, bool) {
	if r.cache != nil {
		if uri, ok := r.cache.Get(ctx, kind, key); ok {
			r.metrics.CacheLookup("hit")
			return uri, uri != ""
		}
		r.metrics.CacheLookup("miss")
	}
	v, _, _ := r.group.Do(kind+"|"+key, func() (interface{}, error) {
		uri, ok, err := resolve()
		if err != nil {
			r.logger.Warn("resolution failed", "kind", kind, "keyword", key, "error", err)
			return "", nil
		}
		if !ok {
			uri = ""
		}
		if r.cache != nil {
			r.cache.Set(ctx, kind, key, uri)
		}
		return uri, nil
	})
	uri, _ := v.(string)
	return uri, uri != ""
}

func (r *Resolver) resolveKeyword(ctx context.Context, label string) (string, bool, error) {
	uri, found, err := r.lookupLabel(ctx, label)
	if err != nil {
		return "", false, err
	}
	if !found {
		uri = r.namespace + strings.ReplaceAll(label, " ", "_")
	}
	exists, err := r.exists(ctx, uri)
	if err != nil || !exists {
		return "", false, err
	}
	r.logger.Debug("keyword resolved", "keyword", label, "uri", uri, "via_label", found)
	return uri, true, nil
}

func (r *Resolver) resolveCountry(ctx context.Context, name string) (string, bool, error) {
	cursor, err := r.port.Execute(graph.WithShape(ctx, graph.ShapeCountry), graph.CountryQuery(name))
	if err != nil {
		return "", false, err
	}
	uri, found, err := graph.First(cursor, graph.VarCountry)
	if err != nil {
		return "", false, err
	}
	if found {
		return uri, true, nil
	}
	return r.lookupLabel(ctx, name)
}

func (r *Resolver) lookupLabel(ctx context.Context, label string) (string, bool, error) {
	cursor, err := r.port.Execute(graph.WithShape(ctx, graph.ShapeLabel), graph.LabelLookupQuery(label))
	if err != nil {
		return "", false, err
	}
	return graph.First(cursor, graph.VarURI)
}

func (r *Resolver) exists(ctx context.Context, uri string) (bool, error) {
	cursor, err := r.port.Execute(graph.WithShape(ctx, graph.ShapeExists), graph.ExistsQuery(uri))
	if err != nil {
		return false, err
	}
	defer cursor.Close()
	found := cursor.Next()
	return found, cursor.Err()
}
