// Package daemon exposes the orchestrator over HTTP: a synchronous chat
// endpoint and an SSE stream of named per-turn progress events (spec §6).
package daemon

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// EventType is one of the named SSE events spec §6 enumerates: "status,
// analysis_complete, subquery_info, subquery_progress, vector_complete,
// sql_complete, multi_sql_complete, rag_complete, sub_query_complete,
// perspective_summary, stage_timing, done, error". Consumers should treat
// unknown events as informational (spec §6), so this type is a plain
// string rather than a closed enum.
type EventType string

const (
	EventStatus             EventType = "status"
	EventAnalysisComplete   EventType = "analysis_complete"
	EventSubqueryInfo       EventType = "subquery_info"
	EventSubqueryProgress   EventType = "subquery_progress"
	EventVectorComplete     EventType = "vector_complete"
	EventSQLComplete        EventType = "sql_complete"
	EventMultiSQLComplete   EventType = "multi_sql_complete"
	EventRAGComplete        EventType = "rag_complete"
	EventSubQueryComplete   EventType = "sub_query_complete"
	EventPerspectiveSummary EventType = "perspective_summary"
	EventStageTiming        EventType = "stage_timing"
	EventDone               EventType = "done"
	EventError              EventType = "error"
)

// Event is a single event published on one turn's event stream.
type Event struct {
	ID        uint64          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventBus manages event subscriptions and publishing for a single turn's
// SSE stream. It is thread-safe, matching the shared-singleton backend
// client policy (spec §5), though in practice one bus is constructed per
// streamed chat request so subscribers only see that turn's events.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan *Event
	nextID      uint64
	eventID     atomic.Uint64
	bufferSize  int
	closed      bool
}

// NewEventBus creates a new EventBus with the given channel buffer size.
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &EventBus{
		subscribers: make(map[uint64]chan *Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a new subscription and returns a channel for receiving
// events. The returned ID should be used to Unsubscribe when done.
func (eb *EventBus) Subscribe() (uint64, <-chan *Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return 0, nil
	}

	id := eb.nextID
	eb.nextID++

	ch := make(chan *Event, eb.bufferSize)
	eb.subscribers[id] = ch

	return id, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (eb *EventBus) Unsubscribe(id uint64) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if ch, ok := eb.subscribers[id]; ok {
		close(ch)
		delete(eb.subscribers, id)
	}
}

// Publish broadcasts an event to all subscribers. If a subscriber's channel
// is full, the event is dropped for that subscriber so a slow consumer
// never blocks the turn.
func (eb *EventBus) Publish(eventType EventType, data interface{}) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return err
	}

	event := &Event{
		ID:        eb.eventID.Add(1),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      dataBytes,
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return nil
	}
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// SubscriberCount returns the current number of active subscribers.
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// Close closes the EventBus and all subscriber channels.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	for id, ch := range eb.subscribers {
		close(ch)
		delete(eb.subscribers, id)
	}
}

// StatusData backs the "status" event.
type StatusData struct {
	Message string `json:"message"`
}

// AnalysisCompleteData backs the "analysis_complete" event.
type AnalysisCompleteData struct {
	QueryType    string   `json:"query_type"`
	QuerySubtype string   `json:"query_subtype"`
	EntityTypes  []string `json:"entity_types"`
	Keywords     []string `json:"keywords"`
	IsCompound   bool     `json:"is_compound"`
}

// SubqueryInfoData backs the "subquery_info" event.
type SubqueryInfoData struct {
	Count int `json:"count"`
}

// SubqueryProgressData backs the "subquery_progress" event.
type SubqueryProgressData struct {
	Index  int    `json:"index"`
	Intent string `json:"intent"`
	Status string `json:"status"`
}

// VectorCompleteData backs the "vector_complete" event.
type VectorCompleteData struct {
	ExpandedKeywords []string `json:"expanded_keywords"`
}

// SQLCompleteData backs the "sql_complete" event.
type SQLCompleteData struct {
	Success  bool `json:"success"`
	RowCount int  `json:"row_count"`
}

// MultiSQLCompleteData backs the "multi_sql_complete" event.
type MultiSQLCompleteData struct {
	Entities []string `json:"entities"`
}

// RAGCompleteData backs the "rag_complete" event.
type RAGCompleteData struct {
	ResultCount int `json:"result_count"`
}

// SubQueryCompleteData backs the "sub_query_complete" event.
type SubQueryCompleteData struct {
	Count int `json:"count"`
}

// PerspectiveSummaryData backs the "perspective_summary" event.
type PerspectiveSummaryData struct {
	ContextQuality float64 `json:"context_quality"`
	SourceCount    int     `json:"source_count"`
}

// StageTimingData backs the "stage_timing" event.
type StageTimingData struct {
	Timing map[string]float64 `json:"timing"`
}

// DoneData backs the "done" event.
type DoneData struct {
	Response       string  `json:"response"`
	ContextQuality float64 `json:"context_quality"`
}

// ErrorData backs the "error" event.
type ErrorData struct {
	Message string `json:"message"`
}
