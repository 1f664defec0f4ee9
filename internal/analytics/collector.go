package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Linked-Data-Person-Crawler/pkg/kafka"
)

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// Collector publishes crawl reports to Kafka from a background goroutine.
// Reports are dropped when the buffer is full.
type Collector struct {
	producer  Publisher
	reportCh  chan CrawlReport
	logger    *slog.Logger
	done      chan struct{}
	closeOnce sync.Once
}

func NewCollector(producer Publisher, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	return &Collector{
		producer: producer,
		reportCh: make(chan CrawlReport, bufferSize),
		logger:   slog.Default().With("component", "report-collector"),
		done:     make(chan struct{}),
	}
}

func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case report, ok := <-c.reportCh:
				if !ok {
					return
				}
				c.publish(ctx, report)
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("report collector started", "buffer_size", cap(c.reportCh))
}

// Report enqueues r without blocking.
func (c *Collector) Report(_ context.Context, r CrawlReport) error {
	select {
	case c.reportCh <- r:
	default:
		c.logger.Warn("crawl report dropped (buffer full)", "run_id", r.RunID)
	}
	return nil
}

// Close stops accepting reports and waits for the queue to drain.
func (c *Collector) Close() {
	c.closeOnce.Do(func() {
		close(c.reportCh)
	})
	<-c.done
}

func (c *Collector) drainRemaining() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case report, ok := <-c.reportCh:
			if !ok {
				return
			}
			c.publish(ctx, report)
		default:
			return
		}
	}
}

func (c *Collector) publish(ctx context.Context, r CrawlReport) {
	if err := c.producer.Publish(ctx, kafka.Event{Key: r.Subject, Value: r}); err != nil {
		c.logger.Error("failed to publish crawl report", "run_id", r.RunID, "error", err)
	}
}
