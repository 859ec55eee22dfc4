package syncx

import "testing"

func TestBroadcast(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster[int]()
	defer b.Close()

	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.EmitQueued(1)

	if <-ch1 != 1 {
		t.Error("expected 1")
	}
	if <-ch2 != 1 {
		t.Error("expected 1")
	}

	b.Unsubscribe(ch2)
	b.EmitQueued(2)

	if <-ch1 != 2 {
		t.Error("expected 2")
	}
	if _, ok := <-ch2; ok {
		t.Error("expected closed channel")
	}
}

func TestBroadcastTryEmitNonBlocking(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster[int]()
	defer b.Close()

	// subscriber is not receiving: TryEmit must drop, not block
	ch := b.Subscribe()
	b.TryEmit(1)

	select {
	case v := <-ch:
		t.Errorf("expected no value, got %d", v)
	default:
	}
}

func TestBroadcastClose(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster[int]()
	ch := b.Subscribe()

	b.Close()

	if _, ok := <-ch; ok {
		t.Error("expected closed channel")
	}
}
