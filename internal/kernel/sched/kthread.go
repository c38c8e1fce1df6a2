package sched

// spawnThread allocates a kernel-tid thread and its backing goroutine,
// parked on its turn channel until the scheduler first selects it. It does
// not register the task with the scheduler lists; callers must call
// AddTask.
func (c *Core) spawnThread(proc *Process, name string, body func(t *Task)) *Task {
	c.mu.Lock()
	tid := c.nextKernelTid
	c.nextKernelTid++
	c.mu.Unlock()

	t := &Task{
		Tid:             tid,
		Process:         proc,
		Name:            name,
		State:           Runnable,
		RunningInKernel: true,
		done:            make(chan struct{}),
		turn:            make(chan struct{}),
		body:            body,
	}

	go func() {
		<-t.turn
		body(t)
		c.exitIfNotAlready(t, ExitStatus{})
	}()

	return t
}

// spawnTaskWithTid is spawnThread with an explicit tid instead of one
// drawn from the kernel-tid counter, used for a new process's main thread
// whose tid must equal its pid.
func (c *Core) spawnTaskWithTid(tid int32, proc *Process, name string, body func(t *Task)) *Task {
	t := &Task{
		Tid:     tid,
		Process: proc,
		Name:    name,
		State:   Runnable,
		done:    make(chan struct{}),
		turn:    make(chan struct{}),
		body:    body,
	}

	go func() {
		<-t.turn
		body(t)
		c.exitIfNotAlready(t, ExitStatus{})
	}()

	return t
}

// NewProcessMainThread creates proc's main thread (Tid == proc.Pid) and
// registers it runnable, the Fork/exec-time counterpart to
// NewKernelThread for user-facing processes (spec.md §4.D).
func (c *Core) NewProcessMainThread(proc *Process, body func(t *Task)) *Task {
	t := c.spawnTaskWithTid(proc.Pid, proc, "", body)
	c.AddTask(t)
	return t
}

// NewKernelThread is the factory of spec.md §4.D: it allocates a kernel
// stack analogue (the goroutine), registers the task, and returns it
// already runnable.
func (c *Core) NewKernelThread(name string, body func(t *Task)) *Task {
	t := c.spawnThread(c.kernelProcess, name, body)
	c.AddTask(t)
	return t
}

// WorkerThread is a kernel thread dedicated to executing queued callbacks,
// the component referenced by spec.md's glossary entry for "worker
// thread". Grounded on gcsfuse's internal/workerpool goroutine-pool
// lifecycle (a fixed worker parked on a channel until handed work).
type WorkerThread struct {
	task *Task
	jobs chan func()
}

// NewWorkerThread starts a kernel thread that drains jobs off a bounded
// queue until Close is called.
func (c *Core) NewWorkerThread(name string, queueDepth int) *WorkerThread {
	wt := &WorkerThread{jobs: make(chan func(), queueDepth)}
	wt.task = c.NewKernelThread(name, func(t *Task) {
		for job := range wt.jobs {
			job()
		}
	})
	return wt
}

// Task returns the kernel thread backing this worker.
func (w *WorkerThread) Task() *Task { return w.task }

// Enqueue submits job for asynchronous execution on the worker thread. It
// is non-blocking, matching the constraint that IRQ handlers signalling a
// worker may not block: a full queue makes Enqueue return false instead.
func (w *WorkerThread) Enqueue(job func()) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		return false
	}
}

// Close stops the worker thread once its queued jobs have drained.
func (w *WorkerThread) Close() {
	close(w.jobs)
}
