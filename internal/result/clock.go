package result

import "time"

// Clock schedules callbacks. AfterFunc callbacks may run on any goroutine.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending callback returned by Clock.AfterFunc.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// timerGroup is a set of pending timers that are stopped together.
// It is guarded by the owning View's mutex.
type timerGroup struct {
	next    int
	timers  map[int]Timer
	stopped bool
}

func newTimerGroup() *timerGroup {
	return &timerGroup{timers: make(map[int]Timer)}
}

func (g *timerGroup) stop() {
	g.stopped = true
	for id, t := range g.timers {
		t.Stop()
		delete(g.timers, id)
	}
}
