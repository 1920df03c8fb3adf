// Package events implements the pipeline's in-process publish/subscribe
// bus (spec §4.13): every stage emits start/progress/complete/error
// events, subscribers are invoked in registration order, and a
// subscriber's own panic or error never affects the publisher.
package events

import (
	"sync"
	"time"
)

// Status is the lifecycle state carried by an Event.
type Status string

const (
	StatusStart    Status = "start"
	StatusProgress Status = "progress"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// Stage names, closed set per spec §6.
const (
	StageComplexityCheck       = "complexity_check"
	StageIntentDetection       = "intent_detection"
	StageMemoryRetrieval       = "memory_retrieval"
	StagePlanGeneration        = "plan_generation"
	StageReasoningOptimization = "reasoning_optimization"
	StageSafetyCheck           = "safety_check"
	StageToolRouting           = "tool_routing"
	StageStepExecution         = "step_execution"
	StageOutputAggregation     = "output_aggregation"
	StageMemoryUpdate          = "memory_update"
	StageMultiPCSync           = "multi_pc_sync"

	EventProcessingStarted   = "processing-started"
	EventProcessingCompleted = "processing-completed"
	EventProcessingError     = "processing-error"
	EventToolExecuted        = "tool-executed"
	EventToolRetry           = "tool-retry"
	EventFailoverAttempt     = "failover:attempt"
	EventFailoverError       = "failover:error"
	EventPeerRegistered      = "peer:registered"
	EventPeerUpdated         = "peer:updated"
	EventPeerUnhealthy       = "peer:unhealthy"
)

// Event is the single payload shape shared by every stage and every
// orchestrator-level notification.
type Event struct {
	Stage     string
	Status    Status
	Data      interface{}
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// Handler receives published events. A handler must not block for long;
// it runs synchronously on the publisher's goroutine.
type Handler func(Event)

// Bus is a minimal, mutex-protected publish/subscribe service. It carries
// no global state — callers construct one per pipeline instance (or share
// one across instances) and pass it around explicitly.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
	wildcard    []Handler
}

// New creates an empty event bus.
func New() *Bus {
	return &Bus{subscribers: make(map[string][]Handler)}
}

// On subscribes handler to the named stage/event. Subscribing with an
// empty name registers a wildcard handler invoked for every event.
func (b *Bus) On(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if name == "" {
		b.wildcard = append(b.wildcard, handler)
		return
	}
	b.subscribers[name] = append(b.subscribers[name], handler)
}

// Publish fans an event out to subscribers of its Stage, in registration
// order, followed by wildcard subscribers. A handler panic is recovered
// and swallowed: listener errors must not affect the pipeline (spec §4.13).
func (b *Bus) Publish(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	b.mu.RLock()
	handlers := append([]Handler{}, b.subscribers[evt.Stage]...)
	handlers = append(handlers, b.wildcard...)
	b.mu.RUnlock()

	for _, h := range handlers {
		invokeSafely(h, evt)
	}
}

func invokeSafely(h Handler, evt Event) {
	defer func() { _ = recover() }()
	h(evt)
}

// Start emits the start event for a stage.
func (b *Bus) Start(stage string, data interface{}) {
	b.Publish(Event{Stage: stage, Status: StatusStart, Data: data})
}

// Progress emits a progress event for a stage (step execution only, per spec).
func (b *Bus) Progress(stage string, data interface{}) {
	b.Publish(Event{Stage: stage, Status: StatusProgress, Data: data})
}

// Complete emits the terminal success event for a stage.
func (b *Bus) Complete(stage string, data interface{}) {
	b.Publish(Event{Stage: stage, Status: StatusComplete, Data: data})
}

// Fail emits the terminal error event for a stage.
func (b *Bus) Fail(stage string, data interface{}) {
	b.Publish(Event{Stage: stage, Status: StatusError, Data: data})
}
