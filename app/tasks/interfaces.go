package tasks

// TaskSchedulerInterface defines the interface for task scheduling
// operations. Used by the main application and the HTTP handlers to enqueue
// background work.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
