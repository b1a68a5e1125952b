package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *PuzzleHub {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	hub := NewPuzzleHub(rdb)
	go hub.Run()
	t.Cleanup(hub.cancel)
	return hub
}

func addWatcher(t *testing.T, hub *PuzzleHub, puzzleID string) *Watcher {
	t.Helper()
	w := &Watcher{Hub: hub, Send: make(chan []byte, 8), PuzzleID: puzzleID}
	hub.register <- w
	return w
}

func recvEvent(t *testing.T, w *Watcher) PuzzleEvent {
	t.Helper()
	select {
	case payload := <-w.Send:
		var event PuzzleEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
		return PuzzleEvent{}
	}
}

func TestHub_BroadcastReachesWatchers(t *testing.T) {
	hub := newTestHub(t)

	w1 := addWatcher(t, hub, "puzzle-1")
	w2 := addWatcher(t, hub, "puzzle-1")
	other := addWatcher(t, hub, "puzzle-2")

	hub.BroadcastSolve(context.Background(), "puzzle-1", "alice")

	for _, w := range []*Watcher{w1, w2} {
		event := recvEvent(t, w)
		assert.Equal(t, "solved", event.Type)
		assert.Equal(t, "puzzle-1", event.PuzzleID)
		assert.Equal(t, "alice", event.SolvedBy)
	}

	select {
	case <-other.Send:
		t.Fatal("watcher of another puzzle must not receive the event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := newTestHub(t)

	w := addWatcher(t, hub, "puzzle-1")
	hub.unregister <- w

	select {
	case _, ok := <-w.Send:
		assert.False(t, ok, "send channel closed on unregister")
	case <-time.After(2 * time.Second):
		t.Fatal("send channel not closed")
	}

	// Later broadcasts go nowhere, and in particular do not panic on the
	// closed channel.
	hub.BroadcastSolve(context.Background(), "puzzle-1", "bob")
	time.Sleep(50 * time.Millisecond)
}
