package remote

import "sync"

// EventKind classifies an auth event.
type EventKind int

const (
	EventSignedIn EventKind = iota + 1
	EventSignedOut
	EventTokenRefreshed
	EventUserUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventSignedIn:
		return "SIGNED_IN"
	case EventSignedOut:
		return "SIGNED_OUT"
	case EventTokenRefreshed:
		return "TOKEN_REFRESHED"
	case EventUserUpdated:
		return "USER_UPDATED"
	default:
		return "UNKNOWN"
	}
}

// Event is one session change. Seq increases by one per emitted event.
// Session is nil after sign out.
type Event struct {
	Seq     uint64
	Kind    EventKind
	Session *Session
}

// Notifier fans out auth events to subscribers in emission order. At most
// one goroutine delivers at a time, so handlers never run concurrently with
// each other and may emit further events without deadlocking.
type Notifier struct {
	mu       sync.Mutex
	seq      uint64
	nextID   int
	subs     map[int]func(Event)
	queue    []Event
	draining bool
	idle     *sync.Cond
}

func NewNotifier() *Notifier {
	n := &Notifier{subs: make(map[int]func(Event))}
	n.idle = sync.NewCond(&n.mu)
	return n
}

// Subscribe registers fn and returns its removal function.
func (n *Notifier) Subscribe(fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Emit queues an event. Delivery is asynchronous.
func (n *Notifier) Emit(kind EventKind, s *Session) Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	ev := Event{Seq: n.seq, Kind: kind, Session: copySession(s)}
	n.queue = append(n.queue, ev)
	if !n.draining {
		n.draining = true
		go n.drain()
	}
	return ev
}

func (n *Notifier) drain() {
	for {
		n.mu.Lock()
		if len(n.queue) == 0 {
			n.draining = false
			n.idle.Broadcast()
			n.mu.Unlock()
			return
		}
		ev := n.queue[0]
		n.queue = n.queue[1:]
		subs := make([]func(Event), 0, len(n.subs))
		for _, fn := range n.subs {
			subs = append(subs, fn)
		}
		n.mu.Unlock()

		for _, fn := range subs {
			fn(ev)
		}
	}
}

// Flush blocks until every queued event has been delivered. It must not be
// called from a handler.
func (n *Notifier) Flush() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for n.draining {
		n.idle.Wait()
	}
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
