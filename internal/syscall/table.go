package syscall

// Names lists every syscall spec.md §6 requires, in the same order as its
// table, plus lstat (listed right after stat). The handlers themselves are typed methods on *Syscalls rather
// than entries in a name-keyed function table: the original kernel's
// vector table exists because C has no other way to dispatch on a number
// computed from a register, but Go call sites already know which
// operation they want, so the generalization this module keeps is "one
// receiver holds all server-wide state" (gcsfuse's fs.go), not "dispatch
// through a map of closures of the same erased signature".
var Names = []string{
	"open", "close", "read", "write", "lseek", "dup",
	"getdents64", "ioctl", "stat", "lstat",
	"unlink", "mkdir", "rmdir", "symlink", "readlink", "link", "rename",
	"chmod", "futimens", "truncate", "mmap", "munmap",
	"fork", "vfork", "execve", "exit", "wait4", "kill", "pause",
	"sched_yield", "gettid", "getpid", "getpgrp", "setsid",
}

// Supported reports whether name is one of the syscalls this module
// implements.
func Supported(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}
