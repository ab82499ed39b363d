package service

// LifecycleNotifier is the host application's lifecycle signal source.
// Adapters translate platform notifications (UIKit, Activity callbacks,
// server shutdown hooks) into the three callbacks below. Registration is
// cumulative; every registered callback fires on its signal.
type LifecycleNotifier interface {
	// OnBecameActive registers a callback for the app entering the
	// foreground.
	OnBecameActive(fn func())

	// OnEnteredBackground registers a callback for the app entering the
	// background.
	OnEnteredBackground(fn func())

	// OnWillTerminate registers a callback invoked synchronously before
	// the process exits.
	OnWillTerminate(fn func())
}
