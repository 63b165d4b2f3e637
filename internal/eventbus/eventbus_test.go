package eventbus

import "testing"

func TestBusPublishSubscribe(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Publish("hello")
	v := <-ch
	if v != "hello" {
		t.Fatalf("expected hello got %v", v)
	}
	bus.Unsubscribe(ch)
}

type kindEvent string

func (k kindEvent) Kind() string { return string(k) }

func TestBusKindFilter(t *testing.T) {
	bus := New()
	all := bus.Subscribe()
	only := bus.Subscribe("withdrawal_received")

	bus.Publish(kindEvent("plan_generated"))
	bus.Publish(kindEvent("withdrawal_received"))

	if got := <-all; got != kindEvent("plan_generated") {
		t.Fatalf("unfiltered subscriber got %v", got)
	}
	if got := <-all; got != kindEvent("withdrawal_received") {
		t.Fatalf("unfiltered subscriber got %v", got)
	}
	if got := <-only; got != kindEvent("withdrawal_received") {
		t.Fatalf("filtered subscriber got %v", got)
	}
	select {
	case v := <-only:
		t.Fatalf("filtered subscriber received extra event %v", v)
	default:
	}
}

func TestBusKindFilterDropsUnkinded(t *testing.T) {
	bus := New()
	only := bus.Subscribe("plan_generated")
	bus.Publish("not a kinded event")
	select {
	case v := <-only:
		t.Fatalf("filtered subscriber received %v", v)
	default:
	}
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatalf("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatalf("expected ch2 closed")
	}
	// Publishing after close must not panic.
	bus.Publish("late")
}

func TestBusSubscribeAfterClose(t *testing.T) {
	bus := New()
	bus.Close()
	ch := bus.Subscribe()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
}
