// Package vfskern implements the VFS core of spec.md §4.F: a uniform
// open/read/write/close/dup/getdents/stat/link/rename/unlink/symlink/chmod
// surface dispatched through a per-filesystem operations interface, with a
// mountpoint table, path resolution and the four locking modes of §4.F.
//
// Grounded on gcsfuse's fs/inode.Inode interface (a sync.Locker-embedding
// interface documented method-by-method with "requires lock held"), here
// generalized from a single GCS-backed inode type to any filesystem that
// implements the Filesystem/Inode interfaces below — ramfs is the only
// implementation in this module, but the dispatch itself is
// filesystem-agnostic exactly as gcsfuse's fs.go dispatches FUSE ops
// through whichever inode.Inode is looked up.
package vfskern

import (
	"time"

	"github.com/iurie5100/tilck/internal/kerrno"
)

// InodeType is one of the three ramfs inode kinds; other filesystems that
// plug into this VFS reuse the same enumeration.
type InodeType int

const (
	TypeFile InodeType = iota
	TypeDir
	TypeSymlink
)

// Stat is the subset of attributes the VFS surfaces uniformly across
// filesystems.
type Stat struct {
	InodeNumber uint64
	Type        InodeType
	Mode        uint32
	Size        int64
	Nlink       uint32
	Mtime       time.Time
	Atime       time.Time
	Ctime       time.Time
}

// DirEntry is one lexicographically-ordered entry returned by Getdents.
type DirEntry struct {
	Name string
	Ino  uint64
	Type InodeType
}

// Inode is the filesystem-internal object the VFS core treats opaquely:
// it never inspects an inode's fields directly, only asks the owning
// Filesystem to act on it.
type Inode interface {
	// Retain increments the inode's open-handle count (one per OpenFile);
	// directory entries are counted separately, in the inode's nlink.
	Retain()
	// Release decrements the open-handle count and returns true if both
	// nlink and the handle count have reached zero.
	Release() (destroyed bool)
}

// Handle is the per-open-file object a Filesystem.Open returns; the VFS
// core wraps it with seek-position and flag bookkeeping in OpenFile.
type Handle interface {
	Read(buf []byte, offset int64) (int, error)
	Write(buf []byte, offset int64) (int, error)
	Getdents(cursor int, buf []DirEntry) (n int, next int, err error)
	Stat() (Stat, error)
	Ioctl(cmd uintptr, arg any) (int, error)
	Close() error
}

// Filesystem is the operations table of spec.md §4.E "Filesystem": a
// mounted instance with a type name, device id, RO/RW flag and a
// reader/writer lock, dispatched into by the VFS core.
type Filesystem interface {
	Name() string
	DeviceID() uint64
	ReadOnly() bool

	// RLock/RUnlock/Lock/Unlock implement the whole-filesystem lock used
	// for the shared (read-only traversal) and exclusive (structural
	// change) locking modes of spec.md §4.F.
	RLock()
	RUnlock()
	Lock()
	Unlock()

	RootInode() Inode

	// GetEntry looks up name directly inside dir, without locking —
	// callers already hold the appropriate whole-fs lock.
	GetEntry(dir Inode, name string) (Inode, InodeType, error)

	Open(inode Inode, flags int) (Handle, error)
	Create(dir Inode, name string, mode uint32) (Inode, error)
	Mkdir(dir Inode, name string, mode uint32) (Inode, error)
	Rmdir(dir Inode, name string) error
	Unlink(dir Inode, name string) error
	Symlink(dir Inode, name, target string) (Inode, error)
	Readlink(inode Inode) (string, error)
	Link(dir Inode, name string, target Inode) error
	Rename(oldDir Inode, oldName string, newDir Inode, newName string) error
	Chmod(inode Inode, mode uint32) error
	Truncate(inode Inode, size int64) error
	Stat(inode Inode) (Stat, error)
}

// maxSymlinkDepth bounds symlink dereferencing during path resolution,
// per spec.md §4.F ("up to a bounded depth (40)").
const maxSymlinkDepth = 40

var (
	errTooManyLinks = kerrno.New("resolve", kerrno.InvalidArgument)
)

// VFS owns the mountpoint table and dispatches every path-based operation
// through the filesystem selected by longest-prefix match.
type VFS struct {
	mounts []mountPoint
}

type mountPoint struct {
	prefix string
	fs     Filesystem
}

// New returns a VFS with no mounts; call Mount to register the root
// filesystem before use.
func New() *VFS {
	return &VFS{}
}
