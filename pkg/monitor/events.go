// Package monitor provides live observation of a passoff run:
// an event collector that components emit into, and a
// WebSocket server that broadcasts those events to connected
// clients (e.g., a TA dashboard watching a grading batch).
package monitor

import (
	"sync"
	"time"
)

// EventType identifies the kind of run event.
type EventType string

const (
	// EventRunStarted marks the start of a grading run.
	EventRunStarted EventType = "run_started"

	// EventRunCompleted marks the end of a grading run.
	EventRunCompleted EventType = "run_completed"

	// EventTestStarted marks the start of one test unit.
	EventTestStarted EventType = "test_started"

	// EventTestCompleted carries one test unit's outcome.
	EventTestCompleted EventType = "test_completed"

	// EventOutputLine carries one relayed line of command
	// output.
	EventOutputLine EventType = "output_line"
)

// Event is one observable occurrence during a passoff run.
type Event struct {
	Type      EventType `json:"type"`
	Run       string    `json:"run,omitempty"`
	Test      string    `json:"test,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats holds aggregate counters over collected events.
type Stats struct {
	Tests     int       `json:"tests"`
	Successes int       `json:"successes"`
	Warnings  int       `json:"warnings"`
	Errors    int       `json:"errors"`
	StartTime time.Time `json:"start_time"`
}

// Collector captures run events and notifies registered
// handlers. Safe for concurrent use.
type Collector struct {
	mu       sync.RWMutex
	events   []Event
	handlers []func(Event)
	stats    Stats
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{
		events: make([]Event, 0, 64),
		stats:  Stats{StartTime: time.Now()},
	}
}

// OnEvent registers a handler called for every emitted event.
func (c *Collector) OnEvent(handler func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, handler)
}

// Emit records an event and notifies all handlers.
func (c *Collector) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.events = append(c.events, event)
	if event.Type == EventTestCompleted {
		c.stats.Tests++
		switch event.Outcome {
		case "Success":
			c.stats.Successes++
		case "Warning":
			c.stats.Warnings++
		case "Error":
			c.stats.Errors++
		}
	}
	handlers := make([]func(Event), len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}

// Events returns a copy of all collected events.
func (c *Collector) Events() []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Stats returns a snapshot of the aggregate counters.
func (c *Collector) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
