package eventbus

import "testing"

type planEvent struct {
	runID string
	score int64
}

func TestTypedBusPublishSubscribe(t *testing.T) {
	bus := NewTyped[planEvent]()
	a, b := bus.Subscribe(), bus.Subscribe()
	bus.Publish(planEvent{runID: "r1", score: 20})
	for _, ch := range []<-chan planEvent{a, b} {
		if v := <-ch; v.runID != "r1" || v.score != 20 {
			t.Fatalf("unexpected event %+v", v)
		}
	}
	bus.Unsubscribe(a)
	if _, ok := <-a; ok {
		t.Fatalf("expected unsubscribed channel closed")
	}
	bus.Publish(planEvent{runID: "r2"})
	if v := <-b; v.runID != "r2" {
		t.Fatalf("unexpected event %+v", v)
	}
}

func TestTypedBusDropsWhenFull(t *testing.T) {
	bus := NewTypedBuffered[int](2)
	ch := bus.Subscribe()
	for i := 0; i < 5; i++ {
		bus.Publish(i)
	}
	if got := bus.Dropped(); got != 3 {
		t.Fatalf("expected 3 dropped, got %d", got)
	}
	if v := <-ch; v != 0 {
		t.Fatalf("expected oldest event first, got %d", v)
	}
}

func TestTypedBusClose(t *testing.T) {
	bus := NewTyped[int]()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	if _, ok := <-bus.Subscribe(); ok {
		t.Fatalf("expected subscription after close to be closed")
	}
	bus.Publish(1)
}

func TestTypedBusUnsubscribeAfterClose(t *testing.T) {
	bus := NewTyped[float64]()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
