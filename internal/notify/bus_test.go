package notify

import (
	"testing"
)

func TestBus_PublishFansOutToSubscribers(t *testing.T) {
	b := NewBus(nil)

	var got []Notification
	unsub := b.Subscribe(func(n Notification) { got = append(got, n) })
	defer unsub()

	b.Publish(TopicWorkflowCompleted, map[string]any{"executionId": "exec-1"})

	if len(got) != 1 || got[0].Topic != TopicWorkflowCompleted {
		t.Fatalf("Subscribe() got %+v, want one workflow/completed notification", got)
	}
	if got[0].ExecutionID() != "exec-1" {
		t.Fatalf("ExecutionID() = %q, want exec-1", got[0].ExecutionID())
	}
}

func TestBus_SubscribeTopicFiltersByPrefix(t *testing.T) {
	b := NewBus(nil)

	var messages, others int
	unsub := b.SubscribeTopic("workflow/message/", func(Notification) { messages++ })
	defer unsub()
	unsubAll := b.Subscribe(func(Notification) { others++ })
	defer unsubAll()

	b.Publish(TopicMessageDelta, map[string]any{"executionId": "exec-1"})
	b.Publish(TopicWorkflowCompleted, map[string]any{"executionId": "exec-1"})

	if messages != 1 {
		t.Fatalf("messages = %d, want 1", messages)
	}
	if others != 2 {
		t.Fatalf("others = %d, want 2", others)
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus(nil)

	var count int
	unsub := b.Subscribe(func(Notification) { count++ })
	b.Publish(TopicActivity, map[string]any{"executionId": "exec-1"})
	unsub()
	b.Publish(TopicActivity, map[string]any{"executionId": "exec-1"})

	if count != 1 {
		t.Fatalf("count = %d after unsubscribe, want 1", count)
	}
}

func TestBus_HistoryBacksFillPerExecution(t *testing.T) {
	b := NewBus(nil)

	b.Publish(TopicActivity, map[string]any{"executionId": "exec-1", "kind": "started"})
	b.Publish(TopicActivity, map[string]any{"executionId": "exec-2", "kind": "started"})
	b.Publish(TopicActivity, map[string]any{"executionId": "exec-1", "kind": "node_completed"})

	hist := b.History("exec-1")
	if len(hist) != 2 {
		t.Fatalf("History(exec-1) = %d entries, want 2", len(hist))
	}
	if hist[0].Payload["kind"] != "started" || hist[1].Payload["kind"] != "node_completed" {
		t.Fatalf("History(exec-1) out of order: %+v", hist)
	}

	b.Forget("exec-1")
	if len(b.History("exec-1")) != 0 {
		t.Fatalf("History(exec-1) after Forget() should be empty")
	}
}

func TestBus_HistoryCapsPerExecution(t *testing.T) {
	b := NewBus(nil)
	b.historyCap = 3

	for i := 0; i < 5; i++ {
		b.Publish(TopicActivity, map[string]any{"executionId": "exec-1"})
	}

	if len(b.History("exec-1")) != 3 {
		t.Fatalf("History(exec-1) = %d, want capped at 3", len(b.History("exec-1")))
	}
}

func TestBus_ActivityAndSessionHelpers(t *testing.T) {
	b := NewBus(nil)

	var got []Notification
	unsub := b.Subscribe(func(n Notification) { got = append(got, n) })
	defer unsub()

	b.Activity("exec-1", "node_completed", map[string]any{"nodeId": "coder"})
	b.Session(TopicSessionCreated, "sess-1", map[string]any{"agentId": "assistant"})

	if len(got) != 2 {
		t.Fatalf("got %d notifications, want 2", len(got))
	}
	if got[0].Payload["kind"] != "node_completed" || got[0].Payload["nodeId"] != "coder" {
		t.Fatalf("Activity() payload = %+v", got[0].Payload)
	}
	if got[1].Payload["sessionId"] != "sess-1" || got[1].Payload["agentId"] != "assistant" {
		t.Fatalf("Session() payload = %+v", got[1].Payload)
	}
}
