package analytics

import (
	"context"
	"sort"
	"sync"
	"time"
)

// AggregatedStats summarises the crawls seen since start-up.
type AggregatedStats struct {
	TotalCrawls   int64          `json:"total_crawls"`
	CountryCrawls int64          `json:"country_crawls"`
	TotalPeople   int64          `json:"total_people"`
	TotalAdded    int64          `json:"total_added"`
	TotalBranches int64          `json:"total_branches"`
	AvgDurationMs float64        `json:"avg_duration_ms"`
	P50DurationMs int64          `json:"p50_duration_ms"`
	P95DurationMs int64          `json:"p95_duration_ms"`
	TopSubjects   []SubjectCount `json:"top_subjects"`
	CrawlsPerHour float64        `json:"crawls_per_hour"`
	LastCrawlAt   *time.Time     `json:"last_crawl_at,omitempty"`
}

type SubjectCount struct {
	Subject string `json:"subject"`
	Count   int64  `json:"count"`
}

// Aggregator keeps running totals of crawl reports in memory.
type Aggregator struct {
	mu        sync.RWMutex
	stats     AggregatedStats
	durations []int64
	subjects  map[string]int64
	startTime time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		durations: make([]int64, 0, 1024),
		subjects:  make(map[string]int64),
		startTime: time.Now(),
	}
}

func (a *Aggregator) Report(_ context.Context, r CrawlReport) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.TotalCrawls++
	if r.FromCountry {
		a.stats.CountryCrawls++
	}
	a.stats.TotalPeople += int64(r.PeopleFound)
	a.stats.TotalAdded += int64(r.AddedDocuments)
	a.stats.TotalBranches += int64(r.Branches)
	a.durations = append(a.durations, r.Duration.Milliseconds())
	a.subjects[r.Subject]++
	ts := r.Timestamp
	if a.stats.LastCrawlAt == nil || ts.After(*a.stats.LastCrawlAt) {
		a.stats.LastCrawlAt = &ts
	}
	return nil
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := a.stats
	if len(a.durations) > 0 {
		sorted := make([]int64, len(a.durations))
		copy(sorted, a.durations)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var sum int64
		for _, d := range sorted {
			sum += d
		}
		stats.AvgDurationMs = float64(sum) / float64(len(sorted))
		stats.P50DurationMs = percentile(sorted, 50)
		stats.P95DurationMs = percentile(sorted, 95)
	}
	stats.TopSubjects = topN(a.subjects, 10)
	if elapsed := time.Since(a.startTime).Hours(); elapsed > 0 {
		stats.CrawlsPerHour = float64(stats.TotalCrawls) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []SubjectCount {
	result := make([]SubjectCount, 0, len(counts))
	for subject, count := range counts {
		result = append(result, SubjectCount{Subject: subject, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Subject < result[j].Subject
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
