package sched

import "sync/atomic"

// maxNestedInterrupts bounds the nested-interrupt stack per spec.md §4.C.
const maxNestedInterrupts = 32

// preemptState holds the two process-wide atomic counters of spec.md §4.C
// plus the bounded nested-interrupt stack.
type preemptState struct {
	depth       atomic.Int32
	needResched atomic.Bool

	irqMu    chanMutex
	irqStack []int
}

// chanMutex is a trivial mutex built from a channel, used only to guard the
// nested-interrupt stack; kept distinct from Core.mu so that interrupt
// bookkeeping never contends with scheduler-list bookkeeping.
type chanMutex chan struct{}

func newChanMutex() chanMutex {
	m := make(chanMutex, 1)
	m <- struct{}{}
	return m
}

func (m chanMutex) Lock()   { <-m }
func (m chanMutex) Unlock() { m <- struct{}{} }

// DisablePreemption increments the preemption-disable depth counter.
func (c *Core) DisablePreemption() {
	c.preempt.depth.Add(1)
}

// EnablePreemption decrements the depth counter and, if it has reached
// zero and need_resched is set, runs the scheduler before returning.
func (c *Core) EnablePreemption() {
	d := c.preempt.depth.Add(-1)
	if d < 0 {
		panic("sched: preempt_disable_count went negative")
	}
	if d == 0 && c.preempt.needResched.Load() {
		c.Schedule()
	}
}

// IsPreemptionEnabled reports whether preempt_disable_count == 0.
func (c *Core) IsPreemptionEnabled() bool {
	return c.preempt.depth.Load() == 0
}

// PreemptDisableCount returns the current depth, exposed for invariant
// assertions (spec.md §3 invariant 6).
func (c *Core) PreemptDisableCount() int32 {
	return c.preempt.depth.Load()
}

// NeedResched reports whether the scheduler has been asked to run at the
// next preemption point.
func (c *Core) NeedResched() bool {
	return c.preempt.needResched.Load()
}

// SetNeedResched sets need_resched. AccountTick and Wake set the same flag
// directly rather than through this method.
func (c *Core) SetNeedResched() {
	c.preempt.needResched.Store(true)
}

// PushInterrupt records vector as currently being serviced. It panics if
// the nested-interrupt stack would overflow, matching the bounded-depth
// invariant of spec.md §4.C.
func (c *Core) PushInterrupt(vector int) {
	c.preempt.irqMu.Lock()
	defer c.preempt.irqMu.Unlock()
	if len(c.preempt.irqStack) >= maxNestedInterrupts {
		panic("sched: nested interrupt stack overflow")
	}
	c.preempt.irqStack = append(c.preempt.irqStack, vector)
}

// PopInterrupt removes the innermost serviced interrupt vector.
func (c *Core) PopInterrupt() {
	c.preempt.irqMu.Lock()
	defer c.preempt.irqMu.Unlock()
	n := len(c.preempt.irqStack)
	if n == 0 {
		panic("sched: PopInterrupt with empty nested-interrupt stack")
	}
	c.preempt.irqStack = c.preempt.irqStack[:n-1]
}

// InInterruptContext reports whether an interrupt handler is currently
// executing, for "am I in an IRQ handler?" assertions.
func (c *Core) InInterruptContext() bool {
	c.preempt.irqMu.Lock()
	defer c.preempt.irqMu.Unlock()
	return len(c.preempt.irqStack) > 0
}

// InterruptNestingDepth returns the current nested-interrupt depth.
func (c *Core) InterruptNestingDepth() int {
	c.preempt.irqMu.Lock()
	defer c.preempt.irqMu.Unlock()
	return len(c.preempt.irqStack)
}
