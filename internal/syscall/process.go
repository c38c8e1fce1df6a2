package syscall

import (
	"github.com/iurie5100/tilck/internal/kerrno"
	"github.com/iurie5100/tilck/internal/kernel/sched"
	"github.com/iurie5100/tilck/internal/kernel/wait"
)

// Fork implements fork(2): a new process whose main task shares no state
// with the parent's task object, gets a duplicated fd table (same
// underlying *vfskern.OpenFile values, independent fd numbers — matching
// POSIX fork's fd-table-copy/file-description-share semantics) and the
// parent's cwd, and starts immediately runnable. The new task's body is
// childBody: this module has no address space to copy, so the caller
// supplies what the child should execute rather than this call cloning
// the parent's in-flight goroutine stack (see DESIGN.md).
func (s *Syscalls) Fork(t *sched.Task, childBody func(ct *sched.Task)) (int32, error) {
	s.core.DisablePreemption()
	pid := s.core.CreateNewPID()
	s.core.EnablePreemption()
	if pid < 0 {
		return -1, kerrno.New("fork", kerrno.OutOfMemory)
	}

	child := sched.NewProcess(pid, t.Process.Pid, t.Process.Cwd)
	child.Pgid, child.Sid, child.TTY = t.Process.Pgid, t.Process.Sid, t.Process.TTY
	for fd, h := range t.Process.Fds {
		child.Fds[fd] = h
	}

	ct := s.core.NewProcessMainThread(child, childBody)
	t.Process.AddChild(ct)
	child.AddThread(ct)

	return pid, nil
}

// Vfork behaves like Fork in this simulation: there is no address space
// to share-until-exec, so the distinction real vfork makes (child borrows
// the parent's memory until execve/exit) has nothing to add here.
func (s *Syscalls) Vfork(t *sched.Task, childBody func(ct *sched.Task)) (int32, error) {
	return s.Fork(t, childBody)
}

// Execve validates argv/envp against the standard execve(2) contract before
// replacing the process image (non-empty argv, no embedded NUL inside any
// individual argument) and records path as the calling task's Name.
// It does not and cannot replace the calling goroutine's code, since Go
// offers no equivalent of swapping out a running stack's instruction
// pointer; callers that need post-exec behavior structure their task body
// as a state machine and call Execve only to validate and record the new
// "program name" (see DESIGN.md).
func (s *Syscalls) Execve(t *sched.Task, path string, argv, envp []string) error {
	if path == "" {
		return kerrno.New("execve", kerrno.InvalidArgument)
	}
	if len(argv) == 0 {
		return kerrno.New("execve", kerrno.InvalidArgument)
	}
	for _, a := range argv {
		for i := range a {
			if a[i] == 0 {
				return kerrno.New("execve", kerrno.Fault)
			}
		}
	}
	t.Name = path
	return nil
}

// Exit implements exit(2)/exit_group(2): the calling task becomes a
// zombie with the given exit code and is never scheduled again; the call
// itself returns once the CPU has been handed to the next task.
func (s *Syscalls) Exit(t *sched.Task, code int) {
	s.core.Exit(t, sched.ExitStatus{ExitCode: code})
}

// Wait4 implements wait4(2): blocks until the child with the given pid
// exits, then reaps it and returns its pid and encoded status. With
// pid <= 0 it waits on the first child in the process's children list,
// not on whichever child exits first. Status encoding matches
// original_source/kernel/sched.c's WSTATUS macros: exit code in bits 8-15,
// signal number in bits 0-6; the core-dump bit (bit 7) is never set in
// this simulation.
func (s *Syscalls) Wait4(t *sched.Task, pid int32) (int32, int, error) {
	var target *sched.Task
	node := t.Process.Children.FrontNode()
	for node != nil && !t.Process.Children.End(node) {
		cand := node.Value().(*sched.Task)
		if pid <= 0 || cand.Tid == pid {
			target = cand
			break
		}
		node = node.NextNode()
	}
	if target == nil {
		return -1, 0, kerrno.New("wait4", kerrno.NotFound)
	}

	status := s.core.WaitForExit(t, target)
	t.Process.RemoveChild(target)
	s.core.RemoveTask(target)

	encoded := (status.ExitCode & 0xff) << 8
	if status.Signaled {
		encoded = status.Signal & 0x7f
	}
	return target.Tid, encoded, nil
}

// Kill implements kill(2): delivers sig to the task with the given tid by
// recording it in PendingSignal and, if the target is sleeping, waking it
// with CauseSignalled (the original kernel's "a pending signal always
// interrupts an interruptible sleep" rule).
func (s *Syscalls) Kill(t *sched.Task, tid int32, sig int32) error {
	target := s.core.GetTask(tid)
	if target == nil {
		return kerrno.New("kill", kerrno.NotFound)
	}
	target.PendingSignal.Store(sig)
	s.core.Wake(target, wait.CauseSignalled)
	return nil
}

// Pause implements pause(2): sleep until a signal arrives.
func (s *Syscalls) Pause(t *sched.Task) wait.Cause {
	return s.core.EnterSleep(t, wait.Task, t)
}

// SchedYield implements sched_yield(2).
func (s *Syscalls) SchedYield(t *sched.Task) {
	s.core.KernelYield()
}

// Gettid implements gettid(2).
func (s *Syscalls) Gettid(t *sched.Task) int32 { return t.Tid }

// Getpid implements getpid(2).
func (s *Syscalls) Getpid(t *sched.Task) int32 { return t.Process.Pid }

// Getpgrp implements getpgrp(2).
func (s *Syscalls) Getpgrp(t *sched.Task) int32 { return t.Process.Pgid }

// Setsid implements setsid(2): the calling process becomes the leader of
// a new session and a new process group, detached from any controlling
// terminal, matching original_source's session bootstrap. Fails if the
// caller is already a process group leader.
func (s *Syscalls) Setsid(t *sched.Task) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.Process.Pgid == t.Process.Pid {
		return -1, kerrno.New("setsid", kerrno.PermissionDenied)
	}

	t.Process.Sid = t.Process.Pid
	t.Process.Pgid = t.Process.Pid
	t.Process.TTY = ""
	s.sessions[t.Process.Sid] = &session{sid: t.Process.Sid, pgids: map[int32]bool{t.Process.Pid: true}}
	return t.Process.Sid, nil
}
