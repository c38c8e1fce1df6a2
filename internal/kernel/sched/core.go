package sched

import (
	"context"
	"sync"

	"github.com/iurie5100/tilck/internal/arch"
	"github.com/iurie5100/tilck/internal/kernel/wait"
	"github.com/iurie5100/tilck/internal/klist"
	"github.com/iurie5100/tilck/internal/kmetrics"
)

// Config carries the compile-time options of spec.md §6 that shape the
// scheduler's behavior.
type Config struct {
	MaxPid         int32
	TimeSliceTicks uint64
	KernelTidStart int32
}

// DefaultConfig returns a 10-tick time slice, a MaxPid of 32768 and kernel
// thread tids starting at 1<<16.
func DefaultConfig() Config {
	return Config{
		MaxPid:         32768,
		TimeSliceTicks: 10,
		KernelTidStart: 1 << 16,
	}
}

// Core is the SchedulerCore singleton of spec.md §9: every piece of
// process-wide mutable scheduler state, owned by one value instead of a
// package-level global so that tests can run independent kernels.
type Core struct {
	cfg Config

	mu sync.Mutex

	runnable klist.List
	sleeping klist.List
	zombie   klist.List

	runnableCount int
	tidMap        *klist.OrderedMap[int32, *Task]
	currentMaxPid int32
	nextKernelTid int32

	current *Task
	idle    *Task

	kernelProcess *Process

	preempt preemptState

	wakeupTimers klist.List
}

// NewCore creates a scheduler core and its kernel process (pid 0), whose
// main task becomes the calling goroutine's task context — the analogue of
// create_kernel_process()/init_sched() in the original source, except here
// "booting" just means "the caller is now task 0".
func NewCore(cfg Config) *Core {
	c := &Core{
		cfg:           cfg,
		tidMap:        klist.NewOrderedMap[int32, *Task](),
		currentMaxPid: -1,
		nextKernelTid: cfg.KernelTidStart,
	}
	c.preempt.irqMu = newChanMutex()

	kp := &Process{Pid: 0, IsKernel: true, Cwd: "/", Fds: make(map[int]FileHandle)}
	c.kernelProcess = kp

	boot := &Task{Tid: 0, Process: kp, Name: "kernel", State: Running, done: make(chan struct{}), turn: make(chan struct{})}
	c.tidMap.Insert(0, boot)
	c.current = boot
	c.currentMaxPid = 0

	c.idle = c.spawnThread(kp, "idle", func(t *Task) {
		for {
			c.mu.Lock()
			runnable := c.runnableCount
			c.mu.Unlock()
			if runnable == 0 {
				idleHalt()
			}
			c.KernelYield()
		}
	})
	c.idle.isIdle = true
	c.AddTask(c.idle)

	return c
}

// idleHalt stands in for the architecture's halt() primitive (§6): on real
// hardware it stops the CPU until the next interrupt; here it parks the OS
// thread via internal/arch.Halt instead of busy-spinning.
func idleHalt() {
	arch.Halt()
}

// KernelProcess returns the statically allocated kernel process (pid 0).
func (c *Core) KernelProcess() *Process { return c.kernelProcess }

// Current returns the task currently RUNNING on this core.
func (c *Core) Current() *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// GetTask looks up a task by tid, mirroring get_task() in the original
// source (disables preemption around the tid-map lookup).
func (c *Core) GetTask(tid int32) *Task {
	c.DisablePreemption()
	defer c.EnablePreemption()
	c.mu.Lock()
	defer c.mu.Unlock()
	t, _ := c.tidMap.Get(tid)
	return t
}

// CreateNewPID implements the two-candidate pid allocation algorithm of
// spec.md §4.D, walking the tid-indexed ordered map in order.
func (c *Core) CreateNewPID() int32 {
	if c.IsPreemptionEnabled() {
		panic("sched: CreateNewPID requires preemption disabled")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	lowestAvailable := int32(0)
	lowestAfterMax := c.currentMaxPid + 1

	c.tidMap.InOrder(func(tid int32, t *Task) bool {
		if !t.IsMainThread() {
			return true
		}
		if lowestAvailable == tid {
			lowestAvailable = tid + 1
		}
		if lowestAfterMax == tid {
			lowestAfterMax = tid + 1
		}
		return true
	})

	var r int32
	switch {
	case lowestAfterMax <= c.cfg.MaxPid:
		r = lowestAfterMax
	case lowestAvailable <= c.cfg.MaxPid:
		r = lowestAvailable
	default:
		return -1
	}
	c.currentMaxPid = r
	return r
}

func (c *Core) addToStateListLocked(t *Task) {
	switch t.State {
	case Runnable:
		c.runnable.PushBack(&t.stateNode, t)
		c.runnableCount++
	case Sleeping:
		c.sleeping.PushBack(&t.stateNode, t)
	case Running:
		// no dedicated list: uniprocessor has exactly one RUNNING task
	case Zombie:
		c.zombie.PushBack(&t.stateNode, t)
	}
}

func (c *Core) removeFromStateListLocked(t *Task) {
	switch t.State {
	case Runnable:
		klist.Remove(&t.stateNode)
		c.runnableCount--
		if c.runnableCount < 0 {
			panic("sched: runnable_tasks_count went negative")
		}
	case Sleeping:
		klist.Remove(&t.stateNode)
	case Running:
	case Zombie:
		klist.Remove(&t.stateNode)
	}
}

// setStateLocked performs the transition of task_change_state: remove from
// the old list, flip State, insert into the new list. Caller holds c.mu,
// which here plays the role of "interrupts disabled" (invariant 7).
func (c *Core) setStateLocked(t *Task, newState State) {
	if t.State == newState {
		panic("sched: no-op state transition")
	}
	if t.State == Zombie {
		panic("sched: task already zombie")
	}
	c.removeFromStateListLocked(t)
	t.State = newState
	c.addToStateListLocked(t)
}

// ChangeState is the public, self-locking form of task_change_state, used
// by callers outside the scheduler's own critical sections (e.g. wait
// wake-ups delivered from what would be IRQ context).
func (c *Core) ChangeState(t *Task, newState State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(t, newState)
}

// AddTask inserts t into both the tid map and its state list, with
// preemption disabled, per spec.md §4.D.
func (c *Core) AddTask(t *Task) {
	c.DisablePreemption()
	defer c.EnablePreemption()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addToStateListLocked(t)
	c.tidMap.Insert(t.Tid, t)
}

// RemoveTask erases a zombie task from the tid map and its state list.
func (c *Core) RemoveTask(t *Task) {
	c.DisablePreemption()
	defer c.EnablePreemption()
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.State != Zombie {
		panic("sched: RemoveTask on a non-zombie task")
	}
	c.removeFromStateListLocked(t)
	c.tidMap.Delete(t.Tid)
}

// RunnableCount returns the length of the runnable list (invariant 2).
func (c *Core) RunnableCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runnableCount
}

// --- wait-object protocol (component B) -----------------------------------

// EnterSleep implements the pattern of spec.md §4.B: disable preemption,
// set state to SLEEPING, record the wait object, yield. It blocks until
// something calls Wake on t or its wake-up timer fires, and returns the
// cause.
func (c *Core) EnterSleep(t *Task, tag wait.Tag, target any) wait.Cause {
	c.DisablePreemption()
	c.mu.Lock()
	c.setStateLocked(t, Sleeping)
	t.Wait.Set(tag, target)
	c.mu.Unlock()
	c.KernelYieldPreemptDisabled()
	c.mu.Lock()
	cause := t.Wait.Cause
	t.Wait.Reset()
	c.mu.Unlock()
	return cause
}

// Wake moves a sleeping task back to RUNNABLE and sets need_resched. It is
// safe to call from what stands in for IRQ context in this simulation
// (it never blocks and never allocates beyond what the list node already
// owns).
func (c *Core) Wake(t *Task, cause wait.Cause) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wakeLocked(t, cause)
}

func (c *Core) wakeLocked(t *Task, cause wait.Cause) {
	if t.State != Sleeping {
		return
	}
	t.Wait.Cause = cause
	c.setStateLocked(t, Runnable)
	c.preempt.needResched.Store(true)
}

// --- scheduler selection & context switch (component E) -------------------

// Schedule implements the selection policy of spec.md §4.E. It must be
// called with preemption disabled (interrupts-disabled, in spec terms).
func (c *Core) Schedule() {
	if c.IsPreemptionEnabled() {
		panic("sched: Schedule called with preemption enabled")
	}

	c.mu.Lock()
	cur := c.current
	if cur.State == Running {
		c.setStateLocked(cur, Runnable)
	}

	var selected *Task
	c.runnable.Each(func(v any) {
		cand := v.(*Task)
		if cand == c.idle || cand == cur {
			return
		}
		if selected == nil || cand.TotalTicks < selected.TotalTicks {
			selected = cand
		}
	})

	if selected == nil {
		if cur.State == Runnable {
			selected = cur
		} else {
			selected = c.idle
		}
	}

	c.setStateLocked(selected, Running)
	selected.TimesliceTicks = 0
	c.preempt.needResched.Store(false)
	prev := cur
	c.current = selected
	c.mu.Unlock()

	if selected == prev {
		return
	}
	kmetrics.RecordContextSwitch(context.Background())
	selected.turn <- struct{}{}
	if prev.State != Zombie {
		<-prev.turn
	}
}

// KernelYield expects preemption enabled on entry: it disables preemption,
// runs the scheduler, and re-enables preemption.
func (c *Core) KernelYield() {
	c.DisablePreemption()
	c.Schedule()
	c.EnablePreemption()
}

// KernelYieldPreemptDisabled is the asymmetric yield of spec.md §4.E: it
// expects preempt_disable_count == 1 on entry and leaves it at 0.
func (c *Core) KernelYieldPreemptDisabled() {
	c.Schedule()
	c.EnablePreemption()
}

// AccountTick implements sched_account_ticks(): increments the current
// task's counters and sets need_resched once its time slice is spent.
func (c *Core) AccountTick() {
	c.mu.Lock()
	cur := c.current
	cur.TimesliceTicks++
	cur.TotalTicks++
	if cur.RunningInKernel {
		cur.TotalKernelTicks++
	}
	expired := cur.TimesliceTicks >= c.cfg.TimeSliceTicks
	c.mu.Unlock()

	kmetrics.RecordTick(context.Background())

	if expired {
		c.preempt.needResched.Store(true)
	}
}

// --- wake-up timers ---------------------------------------------------

// SetWakeupTimer inserts t into the delta-ordered wake-up timer list,
// O(n) as specified.
func (c *Core) SetWakeupTimer(t *Task, ticks int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t.hasWakeupTimer {
		if next := t.timerNode.NextNode(); !c.wakeupTimers.End(next) {
			next.Value().(*Task).wakeupRemaining += t.wakeupRemaining
		}
		klist.Remove(&t.timerNode)
	}
	t.hasWakeupTimer = true

	n := c.wakeupTimers.FrontNode()
	for n != nil && !c.wakeupTimers.End(n) {
		other := n.Value().(*Task)
		if other.wakeupRemaining > ticks {
			other.wakeupRemaining -= ticks
			t.wakeupRemaining = ticks
			c.wakeupTimers.InsertBefore(n, &t.timerNode, t)
			return
		}
		ticks -= other.wakeupRemaining
		n = n.NextNode()
	}
	t.wakeupRemaining = ticks
	c.wakeupTimers.PushBack(&t.timerNode, t)
}

// CancelWakeupTimer removes t's pending wake-up timer, if any.
func (c *Core) CancelWakeupTimer(t *Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !t.hasWakeupTimer {
		return
	}
	if next := t.timerNode.NextNode(); !c.wakeupTimers.End(next) {
		next.Value().(*Task).wakeupRemaining += t.wakeupRemaining
	}
	klist.Remove(&t.timerNode)
	t.hasWakeupTimer = false
}

// AdvanceWakeupTimers decrements the head of the wake-up timer list and
// wakes every task whose remaining ticks reaches zero, per spec.md §4.H.
func (c *Core) AdvanceWakeupTimers() {
	c.mu.Lock()
	defer c.mu.Unlock()

	first := true
	for {
		n := c.wakeupTimers.FrontNode()
		if n == nil || c.wakeupTimers.End(n) {
			return
		}
		t := n.Value().(*Task)
		if first {
			t.wakeupRemaining--
			first = false
		}
		if t.wakeupRemaining > 0 {
			return
		}
		klist.Remove(&t.timerNode)
		t.hasWakeupTimer = false
		c.wakeLocked(t, wait.CauseTimer)
	}
}

// --- process lifecycle --------------------------------------------------

// exitIfNotAlready calls Exit unless t has already exited, for the
// goroutine wrapper that spawnThread/spawnTaskWithTid installs: a body
// that calls a syscall-layer exit(2) itself already reached ZOMBIE before
// returning, and re-entering Exit on a zombie task would panic.
func (c *Core) exitIfNotAlready(t *Task, status ExitStatus) {
	c.mu.Lock()
	already := t.State == Zombie
	c.mu.Unlock()
	if !already {
		c.Exit(t, status)
	}
}

// Exit transitions t to ZOMBIE, records its exit status, wakes any waiter
// blocked on its exit, and hands the CPU to the next task. t is never
// selected again; Exit itself returns to its caller once the hand-off is
// made.
func (c *Core) Exit(t *Task, status ExitStatus) {
	if c.IsPreemptionEnabled() {
		c.DisablePreemption()
	}
	c.mu.Lock()
	t.ExitStatus = status
	c.setStateLocked(t, Zombie)
	close(t.done)

	// wake any task whose wait object targets this one
	c.wakeWaitersOnLocked(t)

	var selected *Task
	c.runnable.Each(func(v any) {
		cand := v.(*Task)
		if cand == c.idle || cand == t {
			return
		}
		if selected == nil || cand.TotalTicks < selected.TotalTicks {
			selected = cand
		}
	})
	if selected == nil {
		selected = c.idle
	}
	c.setStateLocked(selected, Running)
	selected.TimesliceTicks = 0
	c.current = selected
	c.mu.Unlock()

	selected.turn <- struct{}{}
}

// wakeWaitersOnLocked wakes every sleeping task whose wait object targets
// exited, matching the wait.Task tag.
func (c *Core) wakeWaitersOnLocked(exited *Task) {
	c.sleeping.Each(func(v any) {
		cand := v.(*Task)
		if cand.Wait.Tag == wait.Task && cand.Wait.Target == exited {
			c.wakeLocked(cand, wait.CauseSignalled)
		}
	})
}

// WaitForExit blocks the calling task until target becomes a zombie,
// returning its exit status. Implements the Task wait-object tag.
func (c *Core) WaitForExit(self, target *Task) ExitStatus {
	select {
	case <-target.Done():
		return target.ExitStatus
	default:
	}
	c.EnterSleep(self, wait.Task, target)
	return target.ExitStatus
}
