// Package kerrno defines the abstract error kinds returned by the kernel
// core (scheduler, VFS, ramfs) and the POSIX errno each maps to at the
// syscall boundary.
package kerrno

import "fmt"

// Kind is one of the abstract error kinds of the kernel core.
type Kind int

const (
	NotFound Kind = iota
	AlreadyExists
	NotADirectory
	IsADirectory
	NotEmpty
	PermissionDenied
	InvalidArgument
	OutOfSpace
	OutOfMemory
	CrossDevice
	Busy
	Interrupted
	TimedOut
	Unsupported
	Fault
)

var names = map[Kind]string{
	NotFound:         "not found",
	AlreadyExists:    "already exists",
	NotADirectory:    "not a directory",
	IsADirectory:     "is a directory",
	NotEmpty:         "not empty",
	PermissionDenied: "permission denied",
	InvalidArgument:  "invalid argument",
	OutOfSpace:       "out of space",
	OutOfMemory:      "out of memory",
	CrossDevice:      "cross-device link",
	Busy:             "device or resource busy",
	Interrupted:      "interrupted",
	TimedOut:         "timed out",
	Unsupported:      "not supported",
	Fault:            "bad address",
}

// errno mirrors the Linux ABI values Tilck itself uses, so the syscall glue
// layer can return -errno without a second translation table.
var errno = map[Kind]int{
	NotFound:         2,  // ENOENT
	AlreadyExists:    17, // EEXIST
	NotADirectory:    20, // ENOTDIR
	IsADirectory:     21, // EISDIR
	NotEmpty:         39, // ENOTEMPTY
	PermissionDenied: 13, // EACCES
	InvalidArgument:  22, // EINVAL
	OutOfSpace:       28, // ENOSPC
	OutOfMemory:      12, // ENOMEM
	CrossDevice:      18, // EXDEV
	Busy:             16, // EBUSY
	Interrupted:      4,  // EINTR
	TimedOut:         110, // ETIMEDOUT
	Unsupported:      95, // EOPNOTSUPP
	Fault:            14, // EFAULT
}

// Error is the single error type produced by every kernel core operation.
type Error struct {
	Kind Kind
	Op   string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return names[e.Kind]
	}
	return fmt.Sprintf("%s: %s", e.Op, names[e.Kind])
}

// Errno returns the negated POSIX errno a syscall handler should surface.
func (e *Error) Errno() int {
	return -errno[e.Kind]
}

// New builds an *Error for op failing with kind.
func New(op string, kind Kind) *Error {
	return &Error{Kind: kind, Op: op}
}

// Is reports whether err is a kernel error of the given kind.
func Is(err error, kind Kind) bool {
	ke, ok := err.(*Error)
	return ok && ke.Kind == kind
}
