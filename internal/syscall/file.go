package syscall

import (
	"github.com/iurie5100/tilck/internal/kernel/sched"
	"github.com/iurie5100/tilck/internal/vfskern"
)

func resolveRelative(t *sched.Task, path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path
	}
	cwd := t.Process.Cwd
	if cwd == "/" {
		return "/" + path
	}
	return cwd + "/" + path
}

// Open implements the open(2) syscall, returning the new fd.
func (s *Syscalls) Open(t *sched.Task, path string, flags vfskern.OpenFlag, mode uint32) (int, error) {
	of, err := s.vfs.Open(resolveRelative(t, path), flags, mode)
	if err != nil {
		return -1, err
	}
	return t.Process.AllocFd(of), nil
}

// Close implements close(2).
func (s *Syscalls) Close(t *sched.Task, fd int) error {
	of, err := fdResolve(t, fd)
	if err != nil {
		return err
	}
	delete(t.Process.Fds, fd)
	return of.Close()
}

// Read implements read(2).
func (s *Syscalls) Read(t *sched.Task, fd int, buf []byte) (int, error) {
	of, err := fdResolve(t, fd)
	if err != nil {
		return -1, err
	}
	return of.Read(buf)
}

// Write implements write(2).
func (s *Syscalls) Write(t *sched.Task, fd int, buf []byte) (int, error) {
	of, err := fdResolve(t, fd)
	if err != nil {
		return -1, err
	}
	return of.Write(buf)
}

// Lseek implements lseek(2).
func (s *Syscalls) Lseek(t *sched.Task, fd int, offset int64, whence int) (int64, error) {
	of, err := fdResolve(t, fd)
	if err != nil {
		return -1, err
	}
	return of.Seek(offset, whence)
}

// Dup implements dup(2), installing a new fd that shares the underlying
// handle.
func (s *Syscalls) Dup(t *sched.Task, fd int) (int, error) {
	of, err := fdResolve(t, fd)
	if err != nil {
		return -1, err
	}
	return t.Process.AllocFd(of.Dup()), nil
}

// Getdents64 implements getdents64(2).
func (s *Syscalls) Getdents64(t *sched.Task, fd int, buf []vfskern.DirEntry) (int, error) {
	of, err := fdResolve(t, fd)
	if err != nil {
		return -1, err
	}
	return of.Getdents(buf)
}

// Ioctl implements ioctl(2).
func (s *Syscalls) Ioctl(t *sched.Task, fd int, cmd uintptr, arg any) (int, error) {
	of, err := fdResolve(t, fd)
	if err != nil {
		return -1, err
	}
	return of.Ioctl(cmd, arg)
}

// Stat implements stat(2) (follows a final symlink).
func (s *Syscalls) Stat(t *sched.Task, path string) (vfskern.Stat, error) {
	return s.vfs.Stat(resolveRelative(t, path))
}

// Lstat implements lstat(2).
func (s *Syscalls) Lstat(t *sched.Task, path string) (vfskern.Stat, error) {
	return s.vfs.Lstat(resolveRelative(t, path))
}

// Unlink implements unlink(2).
func (s *Syscalls) Unlink(t *sched.Task, path string) error {
	return s.vfs.Unlink(resolveRelative(t, path))
}

// Mkdir implements mkdir(2).
func (s *Syscalls) Mkdir(t *sched.Task, path string, mode uint32) error {
	return s.vfs.Mkdir(resolveRelative(t, path), mode)
}

// Rmdir implements rmdir(2).
func (s *Syscalls) Rmdir(t *sched.Task, path string) error {
	return s.vfs.Rmdir(resolveRelative(t, path))
}

// Symlink implements symlink(2).
func (s *Syscalls) Symlink(t *sched.Task, target, path string) error {
	return s.vfs.Symlink(target, resolveRelative(t, path))
}

// Readlink implements readlink(2).
func (s *Syscalls) Readlink(t *sched.Task, path string) (string, error) {
	return s.vfs.Readlink(resolveRelative(t, path))
}

// Link implements link(2).
func (s *Syscalls) Link(t *sched.Task, oldPath, newPath string) error {
	return s.vfs.Link(resolveRelative(t, oldPath), resolveRelative(t, newPath))
}

// Rename implements rename(2).
func (s *Syscalls) Rename(t *sched.Task, oldPath, newPath string) error {
	return s.vfs.Rename(resolveRelative(t, oldPath), resolveRelative(t, newPath))
}

// Chmod implements chmod(2).
func (s *Syscalls) Chmod(t *sched.Task, path string, mode uint32) error {
	return s.vfs.Chmod(resolveRelative(t, path), mode)
}

// Futimens implements futimens(2) against an already-open fd; ramfs
// updates mtime/ctime on every write already, so this accepts the call
// and reports success without a distinct inode-timestamp API, matching
// spec.md's Non-goal of not modeling utime granularity precisely.
func (s *Syscalls) Futimens(t *sched.Task, fd int) error {
	_, err := fdResolve(t, fd)
	return err
}

// Truncate implements truncate(2).
func (s *Syscalls) Truncate(t *sched.Task, path string, size int64) error {
	return s.vfs.Truncate(resolveRelative(t, path), size)
}

// Mmap and Munmap are accepted but not backed by a real address space:
// spec.md §4.G documents ramfs mmap as page-cache-backed sharing, which
// this simulation has no MMU to enforce. They validate the fd and return
// a synthetic, strictly-increasing fake address so callers can exercise
// the calling convention without a real mapping underneath — see
// DESIGN.md's Open Question decision on virtual memory.
func (s *Syscalls) Mmap(t *sched.Task, fd int, length int64) (uintptr, error) {
	if _, err := fdResolve(t, fd); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	addr := s.nextMmapAddr
	s.nextMmapAddr += uintptr(length)
	return addr, nil
}

func (s *Syscalls) Munmap(t *sched.Task, addr uintptr, length int64) error {
	return nil
}
