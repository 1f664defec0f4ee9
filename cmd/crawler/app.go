package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/crawler"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/graph/sparql"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/indexer/subject"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/resolver"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/resolver/cache"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/redis"
)

// app holds every component one command needs. Optional backends stay nil
// when disabled or unreachable.
type app struct {
	cfg        *config.Config
	metrics    *metrics.Metrics
	port       *graph.ResilientPort
	router     *subject.Router
	service    *searcher.Service
	cache      *cache.Store
	aggregator *analytics.Aggregator
	history    *aggregator.Store
	redis      *pkgredis.Client
	postgres   *postgres.Client
	collector  *analytics.Collector
	producer   *kafka.Producer
	stopMetric func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:     cfg,
		metrics: metrics.New(prometheus.DefaultRegisterer),
	}
	if cfg.Metrics.Enabled {
		a.stopMetric = metrics.StartServer(cfg.Metrics.Port)
	}

	router, err := subject.NewRouter(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening index directory: %w", err)
	}
	a.router = router

	a.port = graph.NewResilientPort(
		sparql.NewClient(cfg.Graph.Endpoint, cfg.Graph.Timeout),
		cfg.Graph,
		a.metrics,
	)

	resolverOpts := []resolver.Option{resolver.WithMetrics(a.metrics)}
	if cfg.Redis.Enabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, resolution caching disabled", "error", err)
		} else {
			a.redis = client
			a.cache = cache.New(client, cfg.Redis.CacheTTL)
			resolverOpts = append(resolverOpts, resolver.WithCache(a.cache))
			slog.Info("resolution cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	res := resolver.New(a.port, cfg.Graph.Namespace, resolverOpts...)

	cr := crawler.New(a.port, crawler.Config{
		RecursionLimit: cfg.Crawler.RecursionLimit,
		StopPercent:    cfg.Crawler.StopPercent,
		MaxPeople:      cfg.Crawler.MaxPeople,
		Namespace:      cfg.Graph.Namespace,
	}, crawler.WithMetrics(a.metrics))

	a.aggregator = analytics.NewAggregator()
	results := analytics.NewResultsLog(resultsLogPath(cfg.Storage))
	slog.Debug("crawl results log", "path", results.Path())
	reporters := analytics.Fanout{results, a.aggregator}

	if cfg.Postgres.Enabled {
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, crawl report history disabled", "error", err)
		} else {
			history := aggregator.NewStore(client)
			if err := history.EnsureSchema(ctx); err != nil {
				client.Close()
				slog.Warn("crawl report schema unavailable, history disabled", "error", err)
			} else {
				a.postgres = client
				a.history = history
				reporters = append(reporters, history)
			}
		}
	}

	if cfg.Kafka.Enabled {
		a.producer = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.CrawlReports)
		a.collector = analytics.NewCollector(a.producer, 1024)
		a.collector.Start(ctx)
		reporters = append(reporters, a.collector)
		slog.Info("crawl report publishing enabled", "topic", cfg.Kafka.Topics.CrawlReports)
	}

	a.service = searcher.New(cfg.Crawler, a.router, res, cr, reporters, searcher.WithMetrics(a.metrics))
	return a, nil
}

// Close flushes pending reports and releases backend connections.
func (a *app) Close() {
	if a.collector != nil {
		a.collector.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			slog.Error("closing kafka producer", "error", err)
		}
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.stopMetric != nil {
		a.stopMetric(context.Background())
	}
}

func resultsLogPath(s config.StorageConfig) string {
	if filepath.IsAbs(s.ResultsLog) {
		return s.ResultsLog
	}
	return filepath.Join(s.DataDir, s.ResultsLog)
}

// dataDirWritable probes the index directory for the readiness check.
func dataDirWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
