package engine

// Recorder observes engine activity for monitoring. Implementations must be
// safe for concurrent use; the prometheus-backed implementation lives in the
// metrics package.
type Recorder interface {
	// SubmissionQueued is called when a task enters the ingestion queue.
	SubmissionQueued()
	// InstanceStarted is called when an instance begins a run. Starts and
	// finishes pair up one to one, including for re-submitted sessions.
	InstanceStarted()
	// InstanceFinished is called when a run reaches a terminal status.
	InstanceFinished(status string)
	// EventRouted is called for every internally routed event delivery.
	EventRouted(eventID string)
	// NotificationForwarded is called for every external edge delivery
	// handed to the proxy.
	NotificationForwarded(topic string)
	// WorkerPanicked is called when the per-task error boundary absorbs a
	// panic.
	WorkerPanicked()
}

// NoopRecorder discards all observations.
type NoopRecorder struct{}

// SubmissionQueued implements Recorder.
func (NoopRecorder) SubmissionQueued() {}

// InstanceStarted implements Recorder.
func (NoopRecorder) InstanceStarted() {}

// InstanceFinished implements Recorder.
func (NoopRecorder) InstanceFinished(string) {}

// EventRouted implements Recorder.
func (NoopRecorder) EventRouted(string) {}

// NotificationForwarded implements Recorder.
func (NoopRecorder) NotificationForwarded(string) {}

// WorkerPanicked implements Recorder.
func (NoopRecorder) WorkerPanicked() {}
