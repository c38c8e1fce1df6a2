package sched

import (
	"github.com/iurie5100/tilck/internal/kernel/wait"
	"github.com/iurie5100/tilck/internal/klist"
)

// Kmutex is a sleeping mutex whose contention path goes through the wait
// object protocol of spec.md §4.B, rather than spinning: a task blocked on
// a contended Kmutex is SLEEPING, not busy-looping.
type Kmutex struct {
	core    *Core
	locked  bool
	waiters klist.List
}

// NewKmutex creates an unlocked mutex bound to core's wait protocol.
func (c *Core) NewKmutex() *Kmutex {
	return &Kmutex{core: c}
}

// Lock acquires the mutex on behalf of t, sleeping if contended.
func (m *Kmutex) Lock(t *Task) {
	c := m.core
	c.mu.Lock()
	if !m.locked {
		m.locked = true
		c.mu.Unlock()
		return
	}
	m.waiters.PushBack(&t.waitNode, t)
	c.mu.Unlock()
	c.EnterSleep(t, wait.Mutex, m)
}

// Unlock releases the mutex, transferring it directly to the longest
// waiting task (FIFO, per spec.md §5) if any, otherwise marking it free.
func (m *Kmutex) Unlock() {
	c := m.core
	c.mu.Lock()
	if v := m.waiters.Front(); v != nil {
		next := v.(*Task)
		klist.Remove(&next.waitNode)
		c.wakeLocked(next, wait.CauseSignalled)
		c.mu.Unlock()
		return
	}
	m.locked = false
	c.mu.Unlock()
}

// Kcond is a condition variable whose waiters sleep via the wait object
// protocol; Signal/Broadcast wake them in FIFO arrival order.
type Kcond struct {
	core    *Core
	waiters klist.List
}

// NewKcond creates a condition variable bound to core's wait protocol.
func (c *Core) NewKcond() *Kcond {
	return &Kcond{core: c}
}

// Wait releases no external lock (the caller is expected to have already
// released any associated data lock) and blocks t until Signal/Broadcast.
func (cv *Kcond) Wait(t *Task) wait.Cause {
	c := cv.core
	c.mu.Lock()
	cv.waiters.PushBack(&t.waitNode, t)
	c.mu.Unlock()
	return c.EnterSleep(t, wait.Cond, cv)
}

// Signal wakes the longest-waiting task blocked on cv, if any.
func (cv *Kcond) Signal() {
	c := cv.core
	c.mu.Lock()
	defer c.mu.Unlock()
	v := cv.waiters.Front()
	if v == nil {
		return
	}
	next := v.(*Task)
	klist.Remove(&next.waitNode)
	c.wakeLocked(next, wait.CauseSignalled)
}

// Broadcast wakes every task blocked on cv.
func (cv *Kcond) Broadcast() {
	c := cv.core
	c.mu.Lock()
	defer c.mu.Unlock()
	cv.waiters.EachNode(func(n *klist.Node) {
		t := n.Value().(*Task)
		klist.Remove(n)
		c.wakeLocked(t, wait.CauseSignalled)
	})
}
