package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch <-chan InvalidationEvent) InvalidationEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no invalidation event received")
		return InvalidationEvent{}
	}
}

func TestWatchReceivesInvalidation(t *testing.T) {
	hub := NewInvalidationHub()
	ch := hub.Watch(CollectionDeals)

	hub.Invalidate(CollectionDeals)

	ev := recvEvent(t, ch)
	assert.Equal(t, CollectionDeals, ev.Collection)
	assert.False(t, ev.At.IsZero())
}

func TestWatchIsScopedToCollection(t *testing.T) {
	hub := NewInvalidationHub()
	deals := hub.Watch(CollectionDeals)
	contacts := hub.Watch(CollectionContacts)

	hub.Invalidate(CollectionBoards, CollectionContacts)

	ev := recvEvent(t, contacts)
	assert.Equal(t, CollectionContacts, ev.Collection)

	select {
	case ev := <-deals:
		t.Fatalf("deals watcher got unrelated event %q", ev.Collection)
	default:
	}
}

func TestInvalidateFansOut(t *testing.T) {
	hub := NewInvalidationHub()
	a := hub.Watch(CollectionDashboard)
	b := hub.Watch(CollectionDashboard)

	hub.Invalidate(CollectionDashboard)

	require.Equal(t, CollectionDashboard, recvEvent(t, a).Collection)
	require.Equal(t, CollectionDashboard, recvEvent(t, b).Collection)
}

func TestSlowWatcherDoesNotBlockInvalidate(t *testing.T) {
	hub := NewInvalidationHub()
	ch := hub.Watch(CollectionDeals)

	// overflow the buffer; Invalidate must keep returning
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Invalidate(CollectionDeals)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Invalidate blocked on a slow watcher")
	}
	assert.Len(t, ch, 16, "buffer holds what fits, the rest is dropped")
}
