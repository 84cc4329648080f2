// Package notify implements the outbound notification bus (spec section
// 6 "Outbound notifications"): an observability stream the host IDE
// subscribes to for execution/node lifecycle, streaming message
// deltas, split/merge/review-panel events, and session events. Grounded
// on the teacher's internal/observability event-recorder shape
// (internal/observability/events.go's EventStore/EventRecorder split,
// here collapsed into a single in-process pub/sub bus since there is no
// separate persistence requirement for notifications — they are
// replayed from the sqlite-backed execution state, not from the bus
// itself) and its structured logger (internal/observability/logging.go).
package notify

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/flowcore/workflowcore/internal/observability"
)

// tracer emits one span per published notification so a host IDE's
// tracing backend can correlate bus fan-out with the workflow step that
// triggered it.
var tracer = otel.Tracer("github.com/flowcore/workflowcore/internal/notify")

// Notification is one message on the outbound bus. Every notification
// carries the execution it belongs to and when it was published (spec
// section 6: "Each notification carries {executionId, timestamp, …}").
type Notification struct {
	Topic     string         `json:"topic"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// ExecutionID extracts the executionId field carried in the payload, if
// present. Session-level notifications (session_created, etc.) instead
// carry a sessionId and return "".
func (n Notification) ExecutionID() string {
	if id, ok := n.Payload["executionId"].(string); ok {
		return id
	}
	return ""
}

// Subscriber receives notifications published to the bus. Implementations
// must not block for long; slow consumers should buffer internally.
type Subscriber func(Notification)

// Bus is an in-process pub/sub fan-out implementing workflow.Notifier.
// It keeps a small bounded history per execution so a late subscriber
// (e.g. a host IDE panel that attaches mid-run) can backfill.
type Bus struct {
	mu         sync.RWMutex
	subs       map[int]subscription
	nextID     int
	history    map[string][]Notification
	historyCap int
	logger     *observability.Logger
}

type subscription struct {
	topicPrefix string
	fn          Subscriber
}

// historyCapPerExecution bounds the replay buffer retained per execution.
const historyCapPerExecution = 200

// NewBus creates an empty notification bus. logger may be nil.
func NewBus(logger *observability.Logger) *Bus {
	return &Bus{
		subs:       make(map[int]subscription),
		history:    make(map[string][]Notification),
		historyCap: historyCapPerExecution,
		logger:     logger,
	}
}

// Publish implements workflow.Notifier. It stamps the notification with
// the current time, fans it out to every matching subscriber, and
// appends it to that execution's replay history.
func (b *Bus) Publish(topic string, payload map[string]any) {
	n := Notification{Topic: topic, Timestamp: time.Now().UTC(), Payload: payload}

	_, span := tracer.Start(context.Background(), "notify.publish "+topic)
	span.SetAttributes(attribute.String("notify.topic", topic))
	if execID := n.ExecutionID(); execID != "" {
		span.SetAttributes(attribute.String("notify.execution_id", execID))
	}
	defer span.End()

	b.mu.Lock()
	if execID := n.ExecutionID(); execID != "" {
		buf := append(b.history[execID], n)
		if len(buf) > b.historyCap {
			buf = buf[len(buf)-b.historyCap:]
		}
		b.history[execID] = buf
	}
	subs := make([]subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Debug(context.Background(), "notification published", "topic", topic)
	}

	for _, s := range subs {
		if s.topicPrefix == "" || hasPrefix(topic, s.topicPrefix) {
			s.fn(n)
		}
	}
}

// Subscribe registers fn for every notification on the bus. The
// returned func removes the subscription.
func (b *Bus) Subscribe(fn Subscriber) (unsubscribe func()) {
	return b.subscribe("", fn)
}

// SubscribeTopic registers fn for notifications whose topic starts with
// prefix, e.g. "workflow/message/" to receive only streaming events.
func (b *Bus) SubscribeTopic(prefix string, fn Subscriber) (unsubscribe func()) {
	return b.subscribe(prefix, fn)
}

func (b *Bus) subscribe(prefix string, fn Subscriber) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{topicPrefix: prefix, fn: fn}
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// History returns the buffered notifications for an execution, oldest
// first, for a subscriber attaching after the fact.
func (b *Bus) History(executionID string) []Notification {
	b.mu.RLock()
	defer b.mu.RUnlock()
	buf := b.history[executionID]
	out := make([]Notification, len(buf))
	copy(out, buf)
	return out
}

// Forget drops the buffered history for an execution. Callers should
// invoke this once an execution reaches a terminal state and any
// interested subscribers have drained it, so long-lived servers don't
// accumulate history for finished runs.
func (b *Bus) Forget(executionID string) {
	b.mu.Lock()
	delete(b.history, executionID)
	b.mu.Unlock()
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
