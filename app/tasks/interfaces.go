package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background feed processing.
// Example usage:
//
//	scheduler := NewScheduler(registry, settingsCache, feedRepo, httpClient)
//	scheduler.Start()
//	defer scheduler.Stop()
//	<-scheduler.Done()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	Done() <-chan struct{}
}
