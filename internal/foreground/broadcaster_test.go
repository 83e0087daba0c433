package foreground

import "testing"

func TestBroadcaster_ZeroValueVisible(t *testing.T) {
	var b Broadcaster
	if !b.Visible() {
		t.Error("zero Broadcaster should be visible")
	}
	if b.Listeners() != 0 {
		t.Errorf("Listeners() = %d, want 0", b.Listeners())
	}
}

func TestBroadcaster_PublishTransitionsOnly(t *testing.T) {
	var b Broadcaster
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	b.Publish(Visible) // no change
	select {
	case v := <-ch:
		t.Fatalf("unexpected delivery %v", v)
	default:
	}

	b.Publish(Hidden)
	if got := <-ch; got != Hidden {
		t.Errorf("got %v, want hidden", got)
	}
	if b.Visible() {
		t.Error("Visible() should be false after Hidden")
	}
}

func TestBroadcaster_CoalescesToLatest(t *testing.T) {
	var b Broadcaster
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	// Nobody reads in between; Publish must not block
	b.Publish(Hidden)
	b.Publish(Visible)
	b.Publish(Hidden)
	b.Publish(Visible)

	if got := <-ch; got != Visible {
		t.Errorf("got %v, want visible", got)
	}
	select {
	case v := <-ch:
		t.Errorf("expected a single coalesced value, also got %v", v)
	default:
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	var b Broadcaster
	_, first := b.Subscribe()
	ch, second := b.Subscribe()

	if b.Listeners() != 2 {
		t.Fatalf("Listeners() = %d, want 2", b.Listeners())
	}

	first()
	first()
	if b.Listeners() != 1 {
		t.Errorf("Listeners() = %d, want 1", b.Listeners())
	}

	second()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	if b.Listeners() != 0 {
		t.Errorf("Listeners() = %d, want 0", b.Listeners())
	}

	// Publishing with no listeners is fine
	b.Publish(Hidden)
}

func TestVisibility_String(t *testing.T) {
	if Visible.String() != "visible" || Hidden.String() != "hidden" {
		t.Errorf("got %s/%s", Visible, Hidden)
	}
}
