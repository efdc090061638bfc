package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	a := bus.Subscribe(4)
	b := bus.Subscribe(4)

	ev := Event{Resource: "purchase_request", ID: 42, Action: "confirm"}
	bus.Publish(ev)

	select {
	case got := <-a:
		assert.Equal(t, ev, got)
	case <-time.After(time.Second):
		t.Fatal("a aboneye bildirim ulaşmadı")
	}
	select {
	case got := <-b:
		assert.Equal(t, ev, got)
	case <-time.After(time.Second):
		t.Fatal("b aboneye bildirim ulaşmadı")
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	ch := bus.Subscribe(1)
	bus.Publish(Event{Resource: "stock_item", ID: 1, Action: "create"})
	// Tampon dolu; ikinci bildirim düşmeli, Publish bloklamamalı
	done := make(chan struct{})
	go func() {
		bus.Publish(Event{Resource: "stock_item", ID: 2, Action: "create"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish dolu abonede blokladı")
	}

	got := <-ch
	require.Equal(t, uint(1), got.ID)
	select {
	case ev := <-ch:
		t.Fatalf("düşmesi gereken bildirim geldi: %+v", ev)
	default:
	}
}

func TestCloseClosesSubscriberChannels(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe(1)
	bus.Close()

	_, open := <-ch
	assert.False(t, open)
}
