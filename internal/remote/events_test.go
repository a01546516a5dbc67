package remote

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifierDeliversInOrder(t *testing.T) {
	n := NewNotifier()

	var mu sync.Mutex
	var seqs []uint64
	n.Subscribe(func(ev Event) {
		mu.Lock()
		seqs = append(seqs, ev.Seq)
		mu.Unlock()
	})

	for i := 0; i < 50; i++ {
		n.Emit(EventTokenRefreshed, &Session{AccessToken: "t"})
	}
	n.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seqs, 50)
	for i, s := range seqs {
		assert.Equal(t, uint64(i+1), s)
	}
}

func TestNotifierReentrantEmit(t *testing.T) {
	n := NewNotifier()

	var mu sync.Mutex
	var kinds []EventKind
	n.Subscribe(func(ev Event) {
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
		if ev.Kind == EventSignedIn {
			n.Emit(EventUserUpdated, ev.Session)
		}
	})

	n.Emit(EventSignedIn, &Session{})
	n.Flush()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []EventKind{EventSignedIn, EventUserUpdated}, kinds)
}

func TestUnsubscribe(t *testing.T) {
	n := NewNotifier()
	calls := 0
	stop := n.Subscribe(func(Event) { calls++ })

	n.Emit(EventSignedOut, nil)
	n.Flush()
	stop()
	stop()
	n.Emit(EventSignedOut, nil)
	n.Flush()

	assert.Equal(t, 1, calls)
}
