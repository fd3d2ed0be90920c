package metrics

import (
	"time"

	"github.com/meridian-sci/meridian/pkg/store"
	"github.com/meridian-sci/meridian/pkg/types"
)

// Collector periodically refreshes the protocol/step gauges from a
// project's store.
type Collector struct {
	store  store.Store
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector bound to a project store.
func NewCollector(s store.Store) *Collector {
	return &Collector{
		store:  s,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15s tick.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectProtocolMetrics()
}

func (c *Collector) collectProtocolMetrics() {
	protocols, err := c.store.ListProtocols()
	if err != nil {
		return
	}

	statusCounts := make(map[types.Status]int)
	stepCounts := make(map[types.Status]int)
	active := 0

	for _, p := range protocols {
		statusCounts[p.Status]++
		if p.Status.IsActive() {
			active++
		}
		for _, step := range p.Steps {
			stepCounts[step.Status]++
		}
	}

	for status, count := range statusCounts {
		ProtocolsTotal.WithLabelValues(string(status)).Set(float64(count))
	}
	for status, count := range stepCounts {
		StepsTotal.WithLabelValues(string(status)).Set(float64(count))
	}
	ActiveProtocols.Set(float64(active))
}
