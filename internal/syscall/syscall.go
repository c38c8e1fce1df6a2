// Package syscall wires internal/kernel/sched and internal/vfskern behind
// the POSIX-shaped operation set of spec.md §4.I / §6: open/read/write and
// friends against the VFS, fork/execve/exit/wait4 and friends against the
// scheduler.
//
// Grounded on gcsfuse's fs.go, which dispatches FUSE ops (a fixed,
// kernel-defined operation set) against a single *FileSystem receiver
// holding all server-wide state; Syscalls plays the same role here.
package syscall

import (
	"sync"

	"github.com/iurie5100/tilck/internal/kerrno"
	"github.com/iurie5100/tilck/internal/kernel/sched"
	"github.com/iurie5100/tilck/internal/vfskern"
)

// Syscalls is the single receiver every handler closes over: the
// scheduler core driving tasks/processes and the VFS root mount.
type Syscalls struct {
	core *sched.Core
	vfs  *vfskern.VFS

	mu           sync.Mutex
	sessions     map[int32]*session // by sid
	nextMmapAddr uintptr
}

type session struct {
	sid   int32
	pgids map[int32]bool
}

// New returns a Syscalls bound to core and vfs. The kernel process (pid 0)
// is registered as session 0 / process group 0, matching original_source's
// boot-time session bootstrap.
func New(core *sched.Core, vfs *vfskern.VFS) *Syscalls {
	s := &Syscalls{core: core, vfs: vfs, sessions: make(map[int32]*session), nextMmapAddr: 0x0000700000000000}
	kp := core.KernelProcess()
	kp.Pgid, kp.Sid = 0, 0
	s.sessions[0] = &session{sid: 0, pgids: map[int32]bool{0: true}}
	return s
}

// fdResolve returns the *vfskern.OpenFile registered at fd in t's process,
// or a kerrno.InvalidArgument error when fd is not open.
func fdResolve(t *sched.Task, fd int) (*vfskern.OpenFile, error) {
	h, ok := t.Process.Fds[fd]
	if !ok {
		return nil, kerrno.New("fd", kerrno.InvalidArgument)
	}
	of, ok := h.(*vfskern.OpenFile)
	if !ok {
		return nil, kerrno.New("fd", kerrno.InvalidArgument)
	}
	return of, nil
}
