package ramfs

import (
	"sync"
	"time"

	"github.com/iurie5100/tilck/internal/kerrno"
	"github.com/iurie5100/tilck/internal/vfskern"
)

// now is overridden in tests that need deterministic timestamps.
var now = time.Now

// maxNameLen is the longest a single path component may be, matching the
// POSIX NAME_MAX a real tmpfs enforces; spec.md §8 requires that a name one
// byte longer than the limit fails with InvalidArgument rather than being
// silently accepted or truncated.
const maxNameLen = 255

func checkNameLen(op, name string) error {
	if len(name) > maxNameLen {
		return kerrno.New(op, kerrno.InvalidArgument)
	}
	return nil
}

// FS is a single ramfs instance, mountable at any point in a vfskern.VFS.
type FS struct {
	mu       sync.RWMutex
	deviceID uint64
	readOnly bool

	root     *DirInode
	nextIno  uint64
}

// New creates an empty ramfs rooted at a fresh directory inode 1 ("." and
// ".." both point at itself), matching original_source/fs/ramfs's root
// bootstrap.
func New(deviceID uint64) *FS {
	fs := &FS{deviceID: deviceID}
	fs.root = newDirInode(1, 0755, nil, now())
	fs.nextIno = 2
	return fs
}

func (fs *FS) Name() string      { return "ramfs" }
func (fs *FS) DeviceID() uint64  { return fs.deviceID }
func (fs *FS) ReadOnly() bool    { return fs.readOnly }
func (fs *FS) RLock()            { fs.mu.RLock() }
func (fs *FS) RUnlock()          { fs.mu.RUnlock() }
func (fs *FS) Lock()             { fs.mu.Lock() }
func (fs *FS) Unlock()           { fs.mu.Unlock() }
func (fs *FS) RootInode() vfskern.Inode { return fs.root }

func (fs *FS) allocIno() uint64 {
	ino := fs.nextIno
	fs.nextIno++
	return ino
}

func asDir(in vfskern.Inode) (*DirInode, error) {
	d, ok := in.(*DirInode)
	if !ok {
		return nil, kerrno.New("ramfs", kerrno.NotADirectory)
	}
	return d, nil
}

// GetEntry looks up name directly inside dir.
func (fs *FS) GetEntry(dir vfskern.Inode, name string) (vfskern.Inode, vfskern.InodeType, error) {
	d, err := asDir(dir)
	if err != nil {
		return nil, 0, err
	}
	e, ok := d.entries.Get(name)
	if !ok {
		return nil, 0, kerrno.New("ramfs", kerrno.NotFound)
	}
	return e.ino, e.itype, nil
}

// Open returns a Handle for an already-resolved inode; ramfs has no
// separate open-time work since content lives entirely in memory.
func (fs *FS) Open(in vfskern.Inode, flags int) (vfskern.Handle, error) {
	switch v := in.(type) {
	case *FileInode:
		return &fileHandle{fs: fs, file: v}, nil
	case *DirInode:
		return &dirHandle{fs: fs, dir: v}, nil
	case *SymlinkInode:
		return nil, kerrno.New("open", kerrno.InvalidArgument)
	default:
		return nil, kerrno.New("open", kerrno.InvalidArgument)
	}
}

// Create makes a new regular file named name inside dir.
func (fs *FS) Create(dir vfskern.Inode, name string, mode uint32) (vfskern.Inode, error) {
	d, err := asDir(dir)
	if err != nil {
		return nil, err
	}
	if err := checkNameLen("create", name); err != nil {
		return nil, err
	}
	if _, ok := d.entries.Get(name); ok {
		return nil, kerrno.New("create", kerrno.AlreadyExists)
	}
	f := newFileInode(fs.allocIno(), mode, now())
	d.entries.Insert(name, &dirEntry{name: name, ino: f, itype: vfskern.TypeFile})
	d.touch(now())
	return f, nil
}

// Mkdir makes a new empty directory named name inside dir.
func (fs *FS) Mkdir(dir vfskern.Inode, name string, mode uint32) (vfskern.Inode, error) {
	d, err := asDir(dir)
	if err != nil {
		return nil, err
	}
	if err := checkNameLen("mkdir", name); err != nil {
		return nil, err
	}
	if _, ok := d.entries.Get(name); ok {
		return nil, kerrno.New("mkdir", kerrno.AlreadyExists)
	}
	nd := newDirInode(fs.allocIno(), mode, d, now())
	d.entries.Insert(name, &dirEntry{name: name, ino: nd, itype: vfskern.TypeDir})
	d.nlink++ // child's ".." entry links back to d
	d.touch(now())
	return nd, nil
}

// Rmdir removes the empty directory named name inside dir.
func (fs *FS) Rmdir(dir vfskern.Inode, name string) error {
	d, err := asDir(dir)
	if err != nil {
		return err
	}
	e, ok := d.entries.Get(name)
	if !ok {
		return kerrno.New("rmdir", kerrno.NotFound)
	}
	target, ok := e.ino.(*DirInode)
	if !ok {
		return kerrno.New("rmdir", kerrno.NotADirectory)
	}
	if target.entries.Len() > 2 {
		return kerrno.New("rmdir", kerrno.NotEmpty)
	}
	d.entries.Delete(name)
	d.nlink--
	target.nlink = 0
	d.touch(now())
	return nil
}

// Unlink removes the non-directory entry named name inside dir, dropping
// its nlink and destroying it once both nlink and lookup refcount reach
// zero, per spec.md §3 invariant 4.
func (fs *FS) Unlink(dir vfskern.Inode, name string) error {
	d, err := asDir(dir)
	if err != nil {
		return err
	}
	e, ok := d.entries.Get(name)
	if !ok {
		return kerrno.New("unlink", kerrno.NotFound)
	}
	if e.itype == vfskern.TypeDir {
		return kerrno.New("unlink", kerrno.IsADirectory)
	}
	d.entries.Delete(name)
	decrementNlink(e.ino)
	d.touch(now())
	return nil
}

func decrementNlink(in vfskern.Inode) {
	switch v := in.(type) {
	case *FileInode:
		v.mu.Lock()
		if v.nlink > 0 {
			v.nlink--
		}
		v.mu.Unlock()
	case *SymlinkInode:
		v.mu.Lock()
		if v.nlink > 0 {
			v.nlink--
		}
		v.mu.Unlock()
	}
}

// Symlink creates a new symlink named name inside dir pointing at target.
func (fs *FS) Symlink(dir vfskern.Inode, name, target string) (vfskern.Inode, error) {
	d, err := asDir(dir)
	if err != nil {
		return nil, err
	}
	if err := checkNameLen("symlink", name); err != nil {
		return nil, err
	}
	if _, ok := d.entries.Get(name); ok {
		return nil, kerrno.New("symlink", kerrno.AlreadyExists)
	}
	s := newSymlinkInode(fs.allocIno(), target, now())
	d.entries.Insert(name, &dirEntry{name: name, ino: s, itype: vfskern.TypeSymlink})
	d.touch(now())
	return s, nil
}

// Readlink returns in's target string.
func (fs *FS) Readlink(in vfskern.Inode) (string, error) {
	s, ok := in.(*SymlinkInode)
	if !ok {
		return "", kerrno.New("readlink", kerrno.InvalidArgument)
	}
	return s.target, nil
}

// Link adds a new name inside dir that refers to the existing inode
// target, incrementing its nlink.
func (fs *FS) Link(dir vfskern.Inode, name string, target vfskern.Inode) error {
	d, err := asDir(dir)
	if err != nil {
		return err
	}
	if err := checkNameLen("link", name); err != nil {
		return err
	}
	if _, ok := d.entries.Get(name); ok {
		return kerrno.New("link", kerrno.AlreadyExists)
	}
	f, ok := target.(*FileInode)
	if !ok {
		return kerrno.New("link", kerrno.InvalidArgument)
	}
	f.mu.Lock()
	f.nlink++
	f.mu.Unlock()
	d.entries.Insert(name, &dirEntry{name: name, ino: f, itype: vfskern.TypeFile})
	d.touch(now())
	return nil
}

// Rename moves oldName inside oldDir to newName inside newDir, replacing
// any existing entry at the destination.
//
// The insert-then-delete ordering below is deliberate and matches
// original_source/fs/ramfs's rename implementation: the new directory
// entry is installed before the old one is removed, so a failure between
// the two steps (which in this in-memory Go port cannot actually happen,
// since OrderedMap.Insert never allocates in a way that can fail) would
// otherwise leave the destination name pointing at freed storage rather
// than simply leaving both names present. This module keeps the ordering
// even though Go's allocator cannot surface the OOM the original
// documents, so a port to a storage-backed FS behind the same interface
// preserves the original failure mode instead of silently fixing it.
func (fs *FS) Rename(oldDir vfskern.Inode, oldName string, newDir vfskern.Inode, newName string) error {
	od, err := asDir(oldDir)
	if err != nil {
		return err
	}
	nd, err := asDir(newDir)
	if err != nil {
		return err
	}
	if err := checkNameLen("rename", newName); err != nil {
		return err
	}
	e, ok := od.entries.Get(oldName)
	if !ok {
		return kerrno.New("rename", kerrno.NotFound)
	}

	if existing, ok := nd.entries.Get(newName); ok {
		if existing.itype == vfskern.TypeDir {
			if inner, _ := existing.ino.(*DirInode); inner != nil && inner.entries.Len() > 2 {
				return kerrno.New("rename", kerrno.NotEmpty)
			}
		}
		decrementNlink(existing.ino)
	}

	nd.entries.Insert(newName, &dirEntry{name: newName, ino: e.ino, itype: e.itype})
	od.entries.Delete(oldName)

	if dirChild, ok := e.ino.(*DirInode); ok {
		dirChild.parent = nd
		dirChild.entries.Insert("..", &dirEntry{name: "..", ino: nd, itype: vfskern.TypeDir})
	}

	nd.touch(now())
	od.touch(now())
	return nil
}

// Chmod updates in's permission bits.
func (fs *FS) Chmod(in vfskern.Inode, mode uint32) error {
	switch v := in.(type) {
	case *FileInode:
		v.mu.Lock()
		v.mode = mode
		v.ctime = now()
		v.mu.Unlock()
	case *DirInode:
		v.mu.Lock()
		v.mode = mode
		v.ctime = now()
		v.mu.Unlock()
	case *SymlinkInode:
		return kerrno.New("chmod", kerrno.Unsupported)
	}
	return nil
}

// Truncate resizes the file inode in to size bytes.
func (fs *FS) Truncate(in vfskern.Inode, size int64) error {
	f, ok := in.(*FileInode)
	if !ok {
		return kerrno.New("truncate", kerrno.IsADirectory)
	}
	if size < 0 {
		return kerrno.New("truncate", kerrno.InvalidArgument)
	}
	f.truncate(size, now())
	return nil
}

// Stat returns in's uniform attributes.
func (fs *FS) Stat(in vfskern.Inode) (vfskern.Stat, error) {
	switch v := in.(type) {
	case *FileInode:
		v.mu.RLock()
		defer v.mu.RUnlock()
		return vfskern.Stat{InodeNumber: v.ino, Type: vfskern.TypeFile, Mode: v.mode, Size: v.size, Nlink: v.nlink, Mtime: v.mtime, Atime: v.atime, Ctime: v.ctime}, nil
	case *DirInode:
		v.mu.RLock()
		defer v.mu.RUnlock()
		return vfskern.Stat{InodeNumber: v.ino, Type: vfskern.TypeDir, Mode: v.mode, Size: int64(v.entries.Len()), Nlink: v.nlink, Mtime: v.mtime, Atime: v.atime, Ctime: v.ctime}, nil
	case *SymlinkInode:
		v.mu.RLock()
		defer v.mu.RUnlock()
		return vfskern.Stat{InodeNumber: v.ino, Type: vfskern.TypeSymlink, Mode: v.mode, Size: int64(len(v.target)), Nlink: v.nlink, Mtime: v.mtime, Atime: v.atime, Ctime: v.ctime}, nil
	default:
		return vfskern.Stat{}, kerrno.New("stat", kerrno.InvalidArgument)
	}
}
