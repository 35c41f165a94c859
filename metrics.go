package quotecard

import "time"

// Render outcomes reported to a MetricsRecorder.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// MetricsRecorder receives render telemetry. Implementations must be safe
// for concurrent use.
type MetricsRecorder interface {
	// ObserveRender records one finished render call.
	ObserveRender(outcome string, kind string, d time.Duration)
	// IncFallback counts a silent degradation such as a favicon that did
	// not decode.
	IncFallback(kind string)
	// SetQueueDepth reports how many jobs wait for the graphics worker.
	SetQueueDepth(n int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRender(string, string, time.Duration) {}
func (nopMetrics) IncFallback(string)                          {}
func (nopMetrics) SetQueueDepth(int)                           {}
