//go:generate mockgen -package $GOPACKAGE -source $GOFILE -destination scheduler_mock.go

package layoutctx

// Scheduler is the owner goroutine of a context. dispatch.Dispatcher
// implements it.
type Scheduler interface {
	// ScheduleBackground queues task at low priority. It reports false if the
	// task was rejected.
	ScheduleBackground(task func()) bool

	// HasShutdownStarted reports whether the owner is shutting down.
	HasShutdownStarted() bool
}
