package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcast(t *testing.T) {
	h := NewHub(nil)
	var counts []int
	h.onCount = func(n int) { counts = append(counts, n) }

	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	h.Broadcast(EventStatus, statusEvent{Status: "DECRYPTING DATA..."})

	for _, ch := range []<-chan Event{a, b} {
		ev := <-ch
		assert.Equal(t, EventStatus, ev.Name)
		assert.JSONEq(t, `{"status":"DECRYPTING DATA..."}`, string(ev.Data))
	}

	cancelA()
	cancelA()
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, h.Len())

	cancelB()
	assert.Equal(t, []int{1, 2, 1, 0}, counts)
}

func TestHubDropsWhenClientIsSlow(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Broadcast(EventState, i)
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	h := NewHub(nil)
	ch, cancel := h.Subscribe()
	h.Close()

	_, open := <-ch
	require.False(t, open)
	assert.Zero(t, h.Len())
	cancel()
}
