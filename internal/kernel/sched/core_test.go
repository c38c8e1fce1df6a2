package sched

import (
	"sync"
	"testing"

	"github.com/iurie5100/tilck/internal/kernel/wait"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	return Config{MaxPid: 100, TimeSliceTicks: 10, KernelTidStart: 1000}
}

// pumpUntil repeatedly yields the calling (boot) task so that other
// runnable tasks get a turn, until done reports completion or the
// iteration budget is exhausted. The boot task created by NewCore is the
// only context allowed to drive the very first hand-off, since nothing
// else is running yet.
func pumpUntil(c *Core, budget int, done func() bool) {
	for i := 0; i < budget && !done(); i++ {
		c.KernelYield()
	}
}

// registerSyntheticProcess inserts a bare main-thread Task for pid without
// spawning a goroutine, enough to exercise pid bookkeeping in isolation.
func registerSyntheticProcess(c *Core, pid int32) *Task {
	proc := NewProcess(pid, 0, "/")
	task := &Task{Tid: pid, Process: proc, State: Runnable, done: make(chan struct{}), turn: make(chan struct{})}
	c.mu.Lock()
	c.addToStateListLocked(task)
	c.tidMap.Insert(task.Tid, task)
	c.mu.Unlock()
	return task
}

func retireSyntheticProcess(c *Core, task *Task) {
	c.mu.Lock()
	c.removeFromStateListLocked(task)
	c.tidMap.Delete(task.Tid)
	c.mu.Unlock()
}

func TestPidWraparound(t *testing.T) {
	// MaxPid 11: once pid 11 is handed out nothing is left above the
	// current max, so the allocator has to wrap to the lowest free pid.
	c := NewCore(Config{MaxPid: 11, TimeSliceTicks: 10, KernelTidStart: 1000})

	var pids []int32
	for i := 0; i < 10; i++ {
		c.DisablePreemption()
		pid := c.CreateNewPID()
		c.EnablePreemption()
		require.GreaterOrEqual(t, pid, int32(1))
		pids = append(pids, pid)
		registerSyntheticProcess(c, pid)
	}
	assert.Equal(t, []int32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, pids)

	victim, ok := c.tidMap.Get(3)
	require.True(t, ok)
	retireSyntheticProcess(c, victim)

	c.DisablePreemption()
	next := c.CreateNewPID()
	c.EnablePreemption()
	assert.Equal(t, int32(11), next, "lowest-after-current-max should be preferred while room remains")
	registerSyntheticProcess(c, next)

	eleven, ok := c.tidMap.Get(11)
	require.True(t, ok)
	retireSyntheticProcess(c, eleven)

	c.DisablePreemption()
	again := c.CreateNewPID()
	c.EnablePreemption()
	assert.Equal(t, int32(3), again, "lowest-available should be reused once nothing is after current max")
}

func TestCreateNewPidFailsWhenFull(t *testing.T) {
	c := NewCore(Config{MaxPid: 1, TimeSliceTicks: 10, KernelTidStart: 1000})
	// pid 0 is the kernel; pid 1 is the only other legal pid.
	c.DisablePreemption()
	pid := c.CreateNewPID()
	c.EnablePreemption()
	require.Equal(t, int32(1), pid)
	registerSyntheticProcess(c, pid)

	c.DisablePreemption()
	full := c.CreateNewPID()
	c.EnablePreemption()
	assert.Equal(t, int32(-1), full)
}

func TestFairScheduler(t *testing.T) {
	c := NewCore(smallConfig())

	const ticksPerThread = 100
	threads := make([]*Task, 3)
	for i := range threads {
		threads[i] = c.NewKernelThread("worker", func(tk *Task) {
			for i := 0; i < ticksPerThread; i++ {
				c.AccountTick()
				c.KernelYield()
			}
		})
	}

	pumpUntil(c, 100000, func() bool {
		for _, tk := range threads {
			select {
			case <-tk.Done():
			default:
				return false
			}
		}
		return true
	})

	assert.InDelta(t, threads[0].TotalTicks, threads[1].TotalTicks, 1)
	assert.InDelta(t, threads[1].TotalTicks, threads[2].TotalTicks, 1)
}

func TestWakeupTimerOrdering(t *testing.T) {
	c := NewCore(smallConfig())

	var mu sync.Mutex
	var order []string

	c.NewKernelThread("X", func(tk *Task) {
		c.SetWakeupTimer(tk, 50)
		c.EnterSleep(tk, wait.Timer, tk)
		mu.Lock()
		order = append(order, "X")
		mu.Unlock()
	})

	c.NewKernelThread("Y", func(tk *Task) {
		c.SetWakeupTimer(tk, 20)
		c.EnterSleep(tk, wait.Timer, tk)
		mu.Lock()
		order = append(order, "Y")
		mu.Unlock()
	})

	for i := 0; i < 90; i++ {
		c.AdvanceWakeupTimers()
		c.KernelYield()
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n == 2 {
			break
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"Y", "X"}, order)
}

func TestKmutexFIFOWakeOrder(t *testing.T) {
	c := NewCore(smallConfig())
	m := c.NewKmutex()

	holderDone := c.NewKernelThread("holder", func(tk *Task) {
		m.Lock(tk)
		for i := 0; i < 5; i++ {
			c.KernelYield()
		}
		m.Unlock()
	})

	var mu sync.Mutex
	var order []string

	a := c.NewKernelThread("waiterA", func(tk *Task) {
		c.KernelYield()
		m.Lock(tk)
		mu.Lock()
		order = append(order, "A")
		mu.Unlock()
		m.Unlock()
	})
	b := c.NewKernelThread("waiterB", func(tk *Task) {
		c.KernelYield()
		c.KernelYield()
		m.Lock(tk)
		mu.Lock()
		order = append(order, "B")
		mu.Unlock()
		m.Unlock()
	})

	pumpUntil(c, 100000, func() bool {
		for _, tk := range []*Task{holderDone, a, b} {
			select {
			case <-tk.Done():
			default:
				return false
			}
		}
		return true
	})

	assert.Equal(t, []string{"A", "B"}, order)
}
