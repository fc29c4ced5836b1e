package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"citriage/src/contracts"
	"citriage/src/execute"
	"citriage/src/gate"
	"citriage/src/logger"
	"citriage/src/plan"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
	return Message{}
}

func TestInMemoryBroker_PublishSubscribe(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()
	ctx := context.Background()

	ch, err := b.Subscribe(ctx, "topic", "group")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := b.Publish(ctx, "topic", "key", []byte("first")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if err := b.Publish(ctx, "topic", "key", []byte("second")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	first := receive(t, ch)
	if first.Topic != "topic" || first.Key != "key" || string(first.Value) != "first" {
		t.Errorf("first = %+v", first)
	}
	second := receive(t, ch)
	if second.Offset != first.Offset+1 {
		t.Errorf("offsets = %d, %d; want consecutive", first.Offset, second.Offset)
	}
}

func TestInMemoryBroker_TopicIsolation(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()
	ctx := context.Background()

	chA, _ := b.Subscribe(ctx, "a", "")
	chB, _ := b.Subscribe(ctx, "b", "")

	if err := b.Publish(ctx, "a", "", []byte("for a")); err != nil {
		t.Fatal(err)
	}
	receive(t, chA)

	select {
	case msg := <-chB:
		t.Errorf("topic b received %q", msg.Value)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInMemoryBroker_FanOut(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()
	ctx := context.Background()

	var chans []<-chan Message
	for i := 0; i < 3; i++ {
		ch, _ := b.Subscribe(ctx, "shared", "")
		chans = append(chans, ch)
	}
	if err := b.Publish(ctx, "shared", "", []byte("broadcast")); err != nil {
		t.Fatal(err)
	}
	for i, ch := range chans {
		if msg := receive(t, ch); string(msg.Value) != "broadcast" {
			t.Errorf("subscriber %d got %q", i, msg.Value)
		}
	}
}

func TestInMemoryBroker_PublishCopiesValue(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()
	ctx := context.Background()

	ch, _ := b.Subscribe(ctx, "t", "")
	value := []byte("original")
	_ = b.Publish(ctx, "t", "", value)
	copy(value, "mutated!")

	if msg := receive(t, ch); string(msg.Value) != "original" {
		t.Errorf("Value = %q, want original", msg.Value)
	}
}

func TestInMemoryBroker_Close(t *testing.T) {
	b := NewInMemoryBroker()
	ctx := context.Background()

	ch, _ := b.Subscribe(ctx, "t", "")
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}
	if err := b.Publish(ctx, "t", "", nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish after close = %v, want ErrClosed", err)
	}
	if _, err := b.Subscribe(ctx, "t", ""); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe after close = %v, want ErrClosed", err)
	}
}

func TestInMemoryBroker_PublishHonorsContext(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()

	// Never drained: fill the buffer so the next publish blocks.
	if _, err := b.Subscribe(context.Background(), "t", ""); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < subscriberBuffer; i++ {
		if err := b.Publish(context.Background(), "t", "", []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := b.Publish(ctx, "t", "", []byte("x")); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Publish = %v, want deadline exceeded", err)
	}
}

func TestInMemoryBroker_Concurrent(t *testing.T) {
	b := NewInMemoryBroker()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch, err := b.Subscribe(ctx, "c", "")
			if err != nil {
				return
			}
			go func() {
				for range ch {
				}
			}()
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = b.Publish(ctx, "c", "", []byte("msg"))
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout: possible deadlock")
	}
	_ = b.Close()
}

func TestOpen_DefaultsToInMemory(t *testing.T) {
	b, err := Open(nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer b.Close()
	if _, ok := b.(*InMemoryBroker); !ok {
		t.Errorf("Open(nil) = %T, want *InMemoryBroker", b)
	}
}

func TestEmitter_PlanCreatedAndReportCompleted(t *testing.T) {
	b := NewInMemoryBroker()
	defer b.Close()
	ctx := context.Background()

	plans, _ := b.Subscribe(ctx, contracts.TopicPlansCreated, "")
	reports, _ := b.Subscribe(ctx, contracts.TopicReportsCompleted, "")

	rec := logger.NewRecorder()
	e := NewEmitter(b, rec)
	p := &plan.Plan{ID: "plan-7", Branch: "main", EligibleJobs: 2}

	if err := e.PlanCreated(ctx, p, "plan-7"); err != nil {
		t.Fatalf("PlanCreated failed: %v", err)
	}
	msg := receive(t, plans)
	if msg.Key != "plan-7" {
		t.Errorf("Key = %q, want plan-7", msg.Key)
	}
	var created contracts.PlanCreated
	if err := json.Unmarshal(msg.Value, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.PlanID != "plan-7" || created.EligibleJobs != 2 || created.EventID == "" {
		t.Errorf("event = %+v", created)
	}

	res := &execute.Result{Plan: p, Decision: gate.Decision{Path: gate.PathNotRequested}}
	if err := e.ReportCompleted(ctx, res); err != nil {
		t.Fatalf("ReportCompleted failed: %v", err)
	}
	var completed contracts.ReportCompleted
	if err := json.Unmarshal(receive(t, reports).Value, &completed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if completed.GatePath != "not-requested" || completed.PlanID != "plan-7" {
		t.Errorf("event = %+v", completed)
	}
}

func TestEmitter_PublishFailureIsLogged(t *testing.T) {
	b := NewInMemoryBroker()
	_ = b.Close()

	rec := logger.NewRecorder()
	e := NewEmitter(b, rec)
	err := e.PlanCreated(context.Background(), &plan.Plan{ID: "plan-8"}, "plan-8")
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
	if !rec.Contains("citriage.plans.created for plan-8 not published") {
		t.Errorf("log = %v", rec.Lines())
	}
}
