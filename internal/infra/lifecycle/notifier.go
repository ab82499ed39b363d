// Package lifecycle provides a host-driven implementation of the
// lifecycle notification source. Platform adapters (UIKit observers,
// Android activity callbacks, signal handlers) call the Notify methods;
// the engine registers its reactions through the service interface.
package lifecycle

import "sync"

// Notifier fans host lifecycle signals out to registered callbacks.
// Callbacks run synchronously on the notifying goroutine, in registration
// order.
type Notifier struct {
	mu         sync.Mutex
	active     []func()
	background []func()
	terminate  []func()
}

// NewNotifier creates an empty notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// OnBecameActive registers a foreground callback.
func (n *Notifier) OnBecameActive(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = append(n.active, fn)
}

// OnEnteredBackground registers a background callback.
func (n *Notifier) OnEnteredBackground(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.background = append(n.background, fn)
}

// OnWillTerminate registers a termination callback.
func (n *Notifier) OnWillTerminate(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.terminate = append(n.terminate, fn)
}

// NotifyBecameActive reports the app entering the foreground.
func (n *Notifier) NotifyBecameActive() {
	for _, fn := range n.snapshot(&n.active) {
		fn()
	}
}

// NotifyEnteredBackground reports the app entering the background.
func (n *Notifier) NotifyEnteredBackground() {
	for _, fn := range n.snapshot(&n.background) {
		fn()
	}
}

// NotifyWillTerminate reports imminent process exit. Callbacks run
// synchronously so the engine can close its session before returning.
func (n *Notifier) NotifyWillTerminate() {
	for _, fn := range n.snapshot(&n.terminate) {
		fn()
	}
}

func (n *Notifier) snapshot(list *[]func()) []func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]func(), len(*list))
	copy(out, *list)

	return out
}
