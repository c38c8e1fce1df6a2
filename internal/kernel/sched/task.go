// Package sched implements the Tilck core's task/process model and
// single-CPU cooperative scheduler: the state machine, time-slice
// accounting, selection policy, kernel-thread factory and wake-up timers
// of spec.md §4.D/§4.E.
//
// Grounded on gcsfuse's internal/workerpool goroutine-lifecycle pattern
// (a pool of goroutines parked on a channel until handed work) and on
// fs/inode/lookup_count.go's external-synchronization-required refcount
// idiom; the channel hand-off used by Core.Schedule to switch the single
// runnable goroutine is this module's Go-native rendition of the
// register-restoring switch_to_task assembly stub, which Go cannot
// express directly (no raw stack switching) — see DESIGN.md.
package sched

import (
	"sync/atomic"

	"github.com/iurie5100/tilck/internal/kernel/wait"
	"github.com/iurie5100/tilck/internal/klist"
)

// State is one of the four states a task can be in.
type State int

const (
	Runnable State = iota
	Running
	Sleeping
	Zombie
)

func (s State) String() string {
	switch s {
	case Runnable:
		return "runnable"
	case Running:
		return "running"
	case Sleeping:
		return "sleeping"
	case Zombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// ExitStatus records how a task's process finished, for wait4/waitpid.
type ExitStatus struct {
	ExitCode int
	Signaled bool
	Signal   int
}

// FileHandle is the narrow interface sched.Process needs from a VFS
// handle, kept here (rather than importing vfskern) to avoid a package
// cycle: vfskern depends on nothing in sched, and sched only needs to be
// able to close whatever a process has open when it is torn down.
type FileHandle interface {
	Close() error
}

// Task is the schedulable unit: either a process's main thread (Tid ==
// Process.Pid) or an additional thread/kernel-thread sharing Process.
type Task struct {
	Tid     int32
	Process *Process
	Name    string

	State State

	TimesliceTicks    uint64
	TotalTicks        uint64
	TotalKernelTicks  uint64
	RunningInKernel   bool

	Wait             wait.Object
	wakeupRemaining  int64
	hasWakeupTimer   bool

	PendingSignal atomic.Int32

	ExitStatus ExitStatus
	done       chan struct{}

	stateNode   klist.Node
	waitNode    klist.Node
	timerNode   klist.Node
	siblingNode klist.Node
	threadNode  klist.Node

	turn    chan struct{}
	isIdle  bool
	body    func(t *Task)
}

// IsMainThread reports whether this task is its process's main thread.
func (t *Task) IsMainThread() bool { return t.Process != nil && t.Tid == t.Process.Pid }

// IsKernelThread reports whether this task belongs to the kernel process.
func (t *Task) IsKernelThread() bool {
	return t.Process != nil && t.Process.IsKernel
}

// Done returns a channel closed when the task becomes a zombie, for use by
// wait4/waitpid-style blocking.
func (t *Task) Done() <-chan struct{} { return t.done }

// Process is the address-space and file-table owner: a positive pid in
// [0, MaxPid], or 0 for the kernel process.
type Process struct {
	Pid       int32
	ParentPid int32
	IsKernel  bool

	Cwd string

	Pgid int32
	Sid  int32
	TTY  string

	Fds    map[int]FileHandle
	nextFd int

	Children klist.List // of *Task (main threads of child processes)
	Threads  klist.List // of *Task (all threads of this process)

	ExitStatus ExitStatus
}

// NewProcess allocates a Process shell; the caller still must create and
// register its main Task via Core.NewProcessMainThread.
func NewProcess(pid, parentPid int32, cwd string) *Process {
	return &Process{
		Pid:       pid,
		ParentPid: parentPid,
		Cwd:       cwd,
		Fds:       make(map[int]FileHandle),
	}
}

// AddChild registers child's main task as one of p's children, for
// wait4/waitpid and for the parent/child links of spec.md §3.
func (p *Process) AddChild(child *Task) {
	p.Children.PushBack(&child.siblingNode, child)
}

// RemoveChild detaches child from p's children list, once reaped.
func (p *Process) RemoveChild(child *Task) {
	klist.Remove(&child.siblingNode)
}

// AddThread registers t as one of p's threads.
func (p *Process) AddThread(t *Task) {
	p.Threads.PushBack(&t.threadNode, t)
}

// RemoveThread detaches t from p's thread list.
func (p *Process) RemoveThread(t *Task) {
	klist.Remove(&t.threadNode)
}

// AllocFd returns the lowest unused file-descriptor number and installs h.
func (p *Process) AllocFd(h FileHandle) int {
	for fd := 0; ; fd++ {
		if _, used := p.Fds[fd]; !used {
			p.Fds[fd] = h
			return fd
		}
	}
}
