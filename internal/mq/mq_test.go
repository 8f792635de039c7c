package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/graphrun/internal/domain"
)

// --- Consumer Tests ---

func TestConsumer_Dispatch(t *testing.T) {
	body, _ := json.Marshal(Message{ID: "m1", Type: MessageTypeRunRequested, Payload: map[string]any{"workflow": "a.json"}})

	tests := []struct {
		name    string
		body    []byte
		handler Handler
		want    string
	}{
		{
			name:    "ack on success",
			body:    body,
			handler: func(context.Context, *Delivery) error { return nil },
			want:    ResultAck,
		},
		{
			name:    "requeue on transient error",
			body:    body,
			handler: func(context.Context, *Delivery) error { return errors.New("db down") },
			want:    ResultRequeue,
		},
		{
			name:    "reject on permanent error",
			body:    body,
			handler: func(context.Context, *Delivery) error { return Permanent(errors.New("bad workflow")) },
			want:    ResultReject,
		},
		{
			name:    "reject malformed body",
			body:    []byte("{not json"),
			handler: func(context.Context, *Delivery) error { t.Error("handler must not be called"); return nil },
			want:    ResultReject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConsumer(nil, nil, ConsumerConfig{Queue: "q", Handler: tt.handler})
			if got := c.dispatch(context.Background(), tt.body); got != tt.want {
				t.Errorf("dispatch = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPermanent(t *testing.T) {
	base := errors.New("boom")
	err := Permanent(base)

	if !IsPermanent(err) {
		t.Error("IsPermanent should detect wrapped error")
	}
	if !errors.Is(err, base) {
		t.Error("Permanent must keep the cause")
	}
	if IsPermanent(base) {
		t.Error("plain error is not permanent")
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) must be nil")
	}
}

func TestParsePayload(t *testing.T) {
	id := uuid.New()
	raw, _ := json.Marshal(Message{
		Type:    MessageTypeRunRequested,
		Payload: RunRequestedPayload{RunID: id, Workflow: "a.json", Inputs: map[string]any{"k": "v"}},
	})

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatal(err)
	}

	p, err := ParsePayload[RunRequestedPayload](&msg)
	if err != nil {
		t.Fatal(err)
	}
	if p.RunID != id || p.Workflow != "a.json" || p.Inputs["k"] != "v" {
		t.Errorf("payload = %+v", p)
	}
}

// --- Event Tests ---

type capturePublisher struct {
	got []RunCompletedPayload
}

func (c *capturePublisher) PublishRunCompleted(_ context.Context, p RunCompletedPayload) error {
	c.got = append(c.got, p)
	return nil
}

func TestEventSink_Save(t *testing.T) {
	outputs := domain.NewOutputs()
	outputs.Set("a", map[string]any{"ok": true})
	outputs.Set("b", map[string]any{"error": "boom"})

	end := time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)
	summary := &domain.ExecutionSummary{
		RunID:         uuid.New(),
		WorkflowID:    "wf",
		Outputs:       outputs,
		ExecutionPath: []domain.PathEntry{{NodeID: "a"}, {NodeID: "b"}},
		EdgesTaken:    []domain.EdgeTaken{{EdgeID: "e1"}},
		EndTime:       end,
		DurationMs:    1000,
		Status:        domain.RunStatusCompleted,
	}

	pub := &capturePublisher{}
	sink := NewEventSink(pub)
	if err := sink.Save(context.Background(), summary); err != nil {
		t.Fatal(err)
	}

	if len(pub.got) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.got))
	}
	ev := pub.got[0]
	if ev.Status != "COMPLETED" || ev.NodesExecuted != 2 || ev.EdgesTaken != 1 {
		t.Errorf("event = %+v", ev)
	}
	if len(ev.FailedNodes) != 1 || ev.FailedNodes[0] != "b" {
		t.Errorf("failed nodes = %v", ev.FailedNodes)
	}
	if !ev.FinishedAt.Equal(end) {
		t.Errorf("finished_at = %v", ev.FinishedAt)
	}
}

// --- Topology Tests ---

func TestTopology_BindingsReferenceDeclared(t *testing.T) {
	declaredQ := map[Queue]bool{}
	for _, q := range queues() {
		declaredQ[q.name] = true
	}
	declaredEx := map[Exchange]bool{}
	for _, ex := range exchanges() {
		declaredEx[ex] = true
	}

	for _, b := range bindings() {
		if !declaredQ[b.queue] {
			t.Errorf("binding uses undeclared queue %s", b.queue)
		}
		if !declaredEx[b.exchange] {
			t.Errorf("binding uses undeclared exchange %s", b.exchange)
		}
	}
}
