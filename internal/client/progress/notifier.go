package progress

import "sync"

// ObserverFunc receives every published snapshot, keyed by the run's group
// identifier.
type ObserverFunc func(groupKey string, snap Snapshot)

// Notifier is the process-wide fan-out point for progress snapshots. One
// instance is constructed at startup and injected into every producer and
// observer; it holds no per-run state of its own.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber
}

type subscriber struct {
	id int
	fn ObserverFunc
}

func NewNotifier() *Notifier {
	return &Notifier{}
}

// Subscribe registers fn for future publishes and returns a token for
// Unsubscribe. Observers are invoked in subscription order.
func (n *Notifier) Subscribe(fn ObserverFunc) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	n.subs = append(n.subs, subscriber{id: n.nextID, fn: fn})
	return n.nextID
}

// Unsubscribe removes a previously subscribed observer. Unknown tokens are
// a no-op.
func (n *Notifier) Unsubscribe(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, s := range n.subs {
		if s.id == id {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			break
		}
	}
}

// Publish forwards the snapshot synchronously to every observer. Snapshots
// without a group key come from runs that have not identified themselves yet
// and are dropped.
func (n *Notifier) Publish(groupKey string, snap Snapshot) {
	if groupKey == "" {
		return
	}

	n.mu.Lock()
	subs := make([]subscriber, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, s := range subs {
		s.fn(groupKey, snap)
	}
}

// Close detaches all observers. Called once at process teardown.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.subs = nil
}
