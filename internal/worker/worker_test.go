package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/graphrun/internal/domain"
	"github.com/shaiso/graphrun/internal/mq"
	"github.com/shaiso/graphrun/internal/orchestrator"
	"github.com/shaiso/graphrun/internal/repo"
)

// fakeRunner запоминает вызовы и возвращает заданный результат.
type fakeRunner struct {
	calls   int
	runID   uuid.UUID
	file    string
	input   any
	summary *domain.ExecutionSummary
	err     error
	block   bool
}

func (f *fakeRunner) Run(ctx context.Context, filename string, input any) (*domain.ExecutionSummary, error) {
	f.calls++
	f.file = filename
	f.input = input
	if f.block {
		<-ctx.Done()
		return &domain.ExecutionSummary{Status: domain.RunStatusCancelled}, ctx.Err()
	}
	f.runID, _ = orchestrator.RunIDFromContext(ctx)
	return f.summary, f.err
}

type fakeHistory struct {
	known map[uuid.UUID]bool
	err   error
}

func (h *fakeHistory) GetByRunID(_ context.Context, id uuid.UUID) (*domain.ExecutionSummary, error) {
	if h.err != nil {
		return nil, h.err
	}
	if h.known[id] {
		return &domain.ExecutionSummary{RunID: id}, nil
	}
	return nil, repo.ErrNotFound
}

func delivery(p mq.RunRequestedPayload) *mq.Delivery {
	return &mq.Delivery{Message: mq.Message{
		ID:      "m1",
		Type:    mq.MessageTypeRunRequested,
		Payload: p,
	}}
}

// --- Handler Tests ---

func TestHandleRunRequested_Success(t *testing.T) {
	runner := &fakeRunner{summary: &domain.ExecutionSummary{Status: domain.RunStatusCompleted}}
	w := New(Config{Runner: runner})

	id := uuid.New()
	err := w.handleRunRequested(context.Background(), delivery(mq.RunRequestedPayload{
		RunID:    id,
		Workflow: "hello.json",
		Inputs:   map[string]any{"k": "v"},
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if runner.file != "hello.json" {
		t.Errorf("workflow = %q", runner.file)
	}
	if in, ok := runner.input.(map[string]any); !ok || in["k"] != "v" {
		t.Errorf("input = %v", runner.input)
	}
	if runner.runID != id {
		t.Errorf("run id = %s, want %s", runner.runID, id)
	}
}

func TestHandleRunRequested_Classification(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		partial       bool
		wantErr       bool
		wantPermanent bool
	}{
		{"node errors are data", nil, true, false, false},
		{"missing file", fmt.Errorf("workflow x.json: %w", repo.ErrNotFound), false, true, true},
		{"bad filename", repo.ErrInvalidFilename, false, true, true},
		{"invalid workflow", orchestrator.ErrInvalidWorkflow, false, true, true},
		{"timeout with partial summary", context.DeadlineExceeded, true, false, false},
		{"transient", errors.New("connection reset"), false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var summary *domain.ExecutionSummary
			if tt.partial {
				summary = &domain.ExecutionSummary{}
			}
			w := New(Config{Runner: &fakeRunner{summary: summary, err: tt.err}})

			err := w.handleRunRequested(context.Background(), delivery(mq.RunRequestedPayload{
				RunID:    uuid.New(),
				Workflow: "x.json",
			}))

			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if mq.IsPermanent(err) != tt.wantPermanent {
				t.Errorf("permanent = %v, want %v", mq.IsPermanent(err), tt.wantPermanent)
			}
		})
	}
}

func TestHandleRunRequested_InvalidPayload(t *testing.T) {
	runner := &fakeRunner{}
	w := New(Config{Runner: runner})

	err := w.handleRunRequested(context.Background(), delivery(mq.RunRequestedPayload{RunID: uuid.New()}))
	if !errors.Is(err, ErrMissingWorkflow) || !mq.IsPermanent(err) {
		t.Errorf("err = %v, want permanent ErrMissingWorkflow", err)
	}

	bad := &mq.Delivery{Message: mq.Message{Payload: "not an object"}}
	if err := w.handleRunRequested(context.Background(), bad); !mq.IsPermanent(err) {
		t.Errorf("err = %v, want permanent", err)
	}
	if runner.calls != 0 {
		t.Error("runner must not be called for invalid payloads")
	}
}

func TestHandleRunRequested_SkipsKnownRun(t *testing.T) {
	id := uuid.New()
	runner := &fakeRunner{}
	w := New(Config{
		Runner:  runner,
		History: &fakeHistory{known: map[uuid.UUID]bool{id: true}},
	})

	if err := w.handleRunRequested(context.Background(), delivery(mq.RunRequestedPayload{RunID: id, Workflow: "a.json"})); err != nil {
		t.Fatal(err)
	}
	if runner.calls != 0 {
		t.Error("redelivered run must not be executed again")
	}
}

func TestHandleRunRequested_HistoryErrorDoesNotBlock(t *testing.T) {
	runner := &fakeRunner{summary: &domain.ExecutionSummary{}}
	w := New(Config{Runner: runner, History: &fakeHistory{err: errors.New("db down")}})

	if err := w.handleRunRequested(context.Background(), delivery(mq.RunRequestedPayload{RunID: uuid.New(), Workflow: "a.json"})); err != nil {
		t.Fatal(err)
	}
	if runner.calls != 1 {
		t.Errorf("runner calls = %d, want 1", runner.calls)
	}
}

func TestHandleRunRequested_StopRequeues(t *testing.T) {
	runner := &fakeRunner{block: true}
	w := New(Config{Runner: runner, RunTimeout: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := w.handleRunRequested(ctx, delivery(mq.RunRequestedPayload{RunID: uuid.New(), Workflow: "a.json"}))
	if !errors.Is(err, ErrWorkerStopped) {
		t.Fatalf("err = %v, want ErrWorkerStopped", err)
	}
	if mq.IsPermanent(err) {
		t.Error("stopped worker must requeue, not reject")
	}
}

// --- Lifecycle Tests ---

func TestNew_Defaults(t *testing.T) {
	w := New(Config{})
	if w.prefetch != defaultPrefetch {
		t.Errorf("prefetch = %d", w.prefetch)
	}
	if w.runTimeout != defaultRunTimeout {
		t.Errorf("run timeout = %v", w.runTimeout)
	}
	if w.IsStopped() {
		t.Error("new worker must not be stopped")
	}
}
