package provider

import (
	"math"
	"sync"

	"github.com/assetflow/assetflow/internal/logger"
)

// progressCap keeps progress visibly incomplete while any runner is
// outstanding, even when only one load remains.
const progressCap = 0.999

// progressNotifier tracks aggregate load progress and fans changes out to
// subscribers.
//
// Progress is a coarse liveness heuristic, not an ETA: min(1/outstanding,
// progressCap) while runners are outstanding, 1.0 when idle. Subscribers are
// notified exactly once per distinct value, in recomputation order.
// Callbacks run synchronously under the notifier lock and must not call back
// into the Provider.
type progressNotifier struct {
	mu    sync.Mutex
	value float64
	subs  []subscriber
	next  int
}

type subscriber struct {
	id int
	fn func(float64)
}

func newProgressNotifier() *progressNotifier {
	return &progressNotifier{value: 1.0}
}

// Value returns the current progress in [0, 1].
func (n *progressNotifier) Value() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value
}

// Subscribe registers a callback for progress changes and returns an
// unsubscribe function. The callback is not invoked with the current value.
func (n *progressNotifier) Subscribe(fn func(float64)) func() {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs = append(n.subs, subscriber{id: id, fn: fn})
	n.mu.Unlock()

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

// recompute derives progress from the outstanding runner count and notifies
// subscribers when the value changed.
func (n *progressNotifier) recompute(outstanding int) {
	v := 1.0
	if outstanding > 0 {
		v = math.Min(1.0/float64(outstanding), progressCap)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if v == n.value {
		return
	}
	n.value = v
	logger.Debug("progress changed", logger.KeyProgress, v)

	for _, s := range n.subs {
		s.fn(v)
	}
}
