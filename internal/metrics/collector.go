package metrics

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	vmetrics "github.com/VictoriaMetrics/metrics"
)

type EventType string

const (
	EventAttempt   EventType = "attempt"
	EventRetry     EventType = "retry"
	EventNodeDead  EventType = "node_dead"
	EventNodeAlive EventType = "node_alive"
	EventResponse  EventType = "response_completed"
)

type Event struct {
	Type       EventType
	Timestamp  time.Time
	Node       string
	Duration   time.Duration
	StatusCode int
}

type Collector struct {
	eventCh chan Event
	set     *vmetrics.Set
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan Event, bufferSize),
		set:     vmetrics.NewSet(),
		logger:  logger,
	}
}

func (c *Collector) EventChannel() chan<- Event {
	return c.eventCh
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

// WritePrometheus writes all collected counters and histograms to w in
// Prometheus text exposition format.
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case EventAttempt:
		c.counter("transport_attempts_total", event.Node).Inc()

	case EventRetry:
		c.counter("transport_retries_total", event.Node).Inc()

	case EventNodeDead:
		c.counter("transport_node_dead_total", event.Node).Inc()

	case EventNodeAlive:
		c.counter("transport_node_alive_total", event.Node).Inc()

	case EventResponse:
		name := fmt.Sprintf(`transport_responses_total{node=%q,status="%d"}`, event.Node, event.StatusCode)
		c.set.GetOrCreateCounter(name).Inc()

		histogram := fmt.Sprintf(`transport_response_seconds{node=%q}`, event.Node)
		c.set.GetOrCreateHistogram(histogram).Update(event.Duration.Seconds())
	}
}

func (c *Collector) counter(name, node string) *vmetrics.Counter {
	return c.set.GetOrCreateCounter(fmt.Sprintf(`%s{node=%q}`, name, node))
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}
