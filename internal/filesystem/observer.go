package filesystem

// Observer records retry metrics. The Prometheus implementation lives in the
// metrics package so that this package stays free of metric registration.
type Observer interface {
	// ObserveRetryAttempt counts a retry that is about to sleep and try again.
	// op is "move" or "remove"; volume is the resolved volume label.
	ObserveRetryAttempt(op, volume string)
	ObserveRetrySuccess(op, volume string)
	ObserveRetryFailure(op, volume string)
	ObserveRetryDuration(op, volume string, durationSeconds float64)
	// ObserveLockedError counts every busy-class error, including the last one.
	ObserveLockedError(op, volume string)
}

// defaultObserver is set once at startup. A nil observer disables recording.
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver = o
}

type nopObserver struct{}

func (nopObserver) ObserveRetryAttempt(string, string)           {}
func (nopObserver) ObserveRetrySuccess(string, string)           {}
func (nopObserver) ObserveRetryFailure(string, string)           {}
func (nopObserver) ObserveRetryDuration(string, string, float64) {}
func (nopObserver) ObserveLockedError(string, string)            {}
