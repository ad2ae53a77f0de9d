package lifecycle

import (
	"sync"
	"time"
)

// Scheduler creates the lifecycle's timers. Callbacks run on goroutines the
// scheduler owns; the returned stop function is safe to call more than once.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
	Every(d time.Duration, f func()) (stop func() bool)
}

type systemScheduler struct{}

// SystemScheduler schedules against the wall clock.
func SystemScheduler() Scheduler {
	return systemScheduler{}
}

func (systemScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

func (systemScheduler) Every(d time.Duration, f func()) func() bool {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-ticker.C:
				f()
			case <-done:
				return
			}
		}
	}()

	return func() bool {
		stopped := false
		once.Do(func() {
			ticker.Stop()
			close(done)
			stopped = true
		})
		return stopped
	}
}
