package vfskern

import (
	"context"

	"github.com/iurie5100/tilck/internal/kerrno"
	"github.com/iurie5100/tilck/internal/kmetrics"
)

// Open resolves path and returns an OpenFile, creating the final
// component first if flags requests it. Locking follows spec.md §4.F's
// four modes: a plain open only needs the filesystem's shared (read) lock
// since it does not mutate directory structure, while OCreate takes the
// exclusive lock for the duration of the create-or-lookup race.
func (v *VFS) Open(path string, flags OpenFlag, mode uint32) (of *OpenFile, err error) {
	defer func() { kmetrics.RecordVFSOp(context.Background(), "open", err) }()

	fs, _, err := v.resolveMount(path)
	if err != nil {
		return nil, err
	}

	if flags&OCreate != 0 {
		fs.Lock()
		defer fs.Unlock()
	} else {
		fs.RLock()
		defer fs.RUnlock()
	}

	rp, err := v.ResolveFollowingFinal(path)
	if err != nil {
		return nil, err
	}

	inode := rp.Inode
	if inode == nil {
		if flags&OCreate == 0 {
			return nil, kerrno.New("open", kerrno.NotFound)
		}
		inode, err = fs.Create(rp.Dir, rp.Name, mode)
		if err != nil {
			return nil, err
		}
	} else if flags&OCreate != 0 && flags&OExcl != 0 {
		return nil, kerrno.New("open", kerrno.AlreadyExists)
	} else if flags&ODirectory != 0 && rp.Type != TypeDir {
		return nil, kerrno.New("open", kerrno.NotADirectory)
	}

	if flags&OTrunc != 0 {
		if err := fs.Truncate(inode, 0); err != nil {
			return nil, err
		}
	}

	h, err := fs.Open(inode, int(flags))
	if err != nil {
		return nil, err
	}
	inode.Retain()
	return &OpenFile{h: h, fs: fs, inode: inode, flags: flags}, nil
}

// Stat resolves path (dereferencing a final symlink) and returns its
// attributes.
func (v *VFS) Stat(path string) (Stat, error) {
	fs, _, err := v.resolveMount(path)
	if err != nil {
		return Stat{}, err
	}
	fs.RLock()
	defer fs.RUnlock()

	rp, err := v.ResolveFollowingFinal(path)
	if err != nil {
		return Stat{}, err
	}
	if rp.Inode == nil {
		return Stat{}, kerrno.New("stat", kerrno.NotFound)
	}
	return fs.Stat(rp.Inode)
}

// Lstat behaves like Stat but does not dereference a symlink final
// component.
func (v *VFS) Lstat(path string) (Stat, error) {
	fs, _, err := v.resolveMount(path)
	if err != nil {
		return Stat{}, err
	}
	fs.RLock()
	defer fs.RUnlock()

	rp, err := v.Resolve(path)
	if err != nil {
		return Stat{}, err
	}
	if rp.Inode == nil {
		return Stat{}, kerrno.New("lstat", kerrno.NotFound)
	}
	return fs.Stat(rp.Inode)
}

// Mkdir creates a new directory at path with the given mode bits.
func (v *VFS) Mkdir(path string, mode uint32) (err error) {
	defer func() { kmetrics.RecordVFSOp(context.Background(), "mkdir", err) }()

	fs, _, err := v.resolveMount(path)
	if err != nil {
		return err
	}
	fs.Lock()
	defer fs.Unlock()

	rp, err := v.Resolve(path)
	if err != nil {
		return err
	}
	if rp.Inode != nil {
		return kerrno.New("mkdir", kerrno.AlreadyExists)
	}
	_, err = fs.Mkdir(rp.Dir, rp.Name, mode)
	return err
}

// Rmdir removes the empty directory at path.
func (v *VFS) Rmdir(path string) error {
	fs, _, err := v.resolveMount(path)
	if err != nil {
		return err
	}
	fs.Lock()
	defer fs.Unlock()

	rp, err := v.Resolve(path)
	if err != nil {
		return err
	}
	if rp.Inode == nil {
		return kerrno.New("rmdir", kerrno.NotFound)
	}
	if rp.Type != TypeDir {
		return kerrno.New("rmdir", kerrno.NotADirectory)
	}
	return fs.Rmdir(rp.Dir, rp.Name)
}

// Unlink removes a non-directory entry (or drops nlink on a hardlinked
// one) at path.
func (v *VFS) Unlink(path string) (err error) {
	defer func() { kmetrics.RecordVFSOp(context.Background(), "unlink", err) }()

	fs, _, err := v.resolveMount(path)
	if err != nil {
		return err
	}
	fs.Lock()
	defer fs.Unlock()

	rp, err := v.Resolve(path)
	if err != nil {
		return err
	}
	if rp.Inode == nil {
		return kerrno.New("unlink", kerrno.NotFound)
	}
	if rp.Type == TypeDir {
		return kerrno.New("unlink", kerrno.IsADirectory)
	}
	return fs.Unlink(rp.Dir, rp.Name)
}

// Symlink creates a new symlink at path pointing at target.
func (v *VFS) Symlink(target, path string) error {
	fs, _, err := v.resolveMount(path)
	if err != nil {
		return err
	}
	fs.Lock()
	defer fs.Unlock()

	rp, err := v.Resolve(path)
	if err != nil {
		return err
	}
	if rp.Inode != nil {
		return kerrno.New("symlink", kerrno.AlreadyExists)
	}
	_, err = fs.Symlink(rp.Dir, rp.Name, target)
	return err
}

// Readlink returns the target of the symlink at path.
func (v *VFS) Readlink(path string) (string, error) {
	fs, _, err := v.resolveMount(path)
	if err != nil {
		return "", err
	}
	fs.RLock()
	defer fs.RUnlock()

	rp, err := v.Resolve(path)
	if err != nil {
		return "", err
	}
	if rp.Inode == nil {
		return "", kerrno.New("readlink", kerrno.NotFound)
	}
	if rp.Type != TypeSymlink {
		return "", kerrno.New("readlink", kerrno.InvalidArgument)
	}
	return fs.Readlink(rp.Inode)
}

// Link creates newPath as an additional hard link to the inode at oldPath.
// Cross-filesystem hard links are rejected, per spec.md §7 CrossDevice.
func (v *VFS) Link(oldPath, newPath string) error {
	oldFS, _, err := v.resolveMount(oldPath)
	if err != nil {
		return err
	}
	newFS, _, err := v.resolveMount(newPath)
	if err != nil {
		return err
	}
	if oldFS != newFS {
		return kerrno.New("link", kerrno.CrossDevice)
	}

	oldFS.Lock()
	defer oldFS.Unlock()

	src, err := v.Resolve(oldPath)
	if err != nil {
		return err
	}
	if src.Inode == nil {
		return kerrno.New("link", kerrno.NotFound)
	}
	if src.Type == TypeDir {
		return kerrno.New("link", kerrno.IsADirectory)
	}

	dst, err := v.Resolve(newPath)
	if err != nil {
		return err
	}
	if dst.Inode != nil {
		return kerrno.New("link", kerrno.AlreadyExists)
	}
	return oldFS.Link(dst.Dir, dst.Name, src.Inode)
}

// Rename moves the entry at oldPath to newPath, atomically replacing any
// existing entry there, per rename(2). Cross-filesystem rename is
// rejected up front; the within-filesystem non-atomic OOM caveat is the
// underlying filesystem's to document (see ramfs.Rename).
func (v *VFS) Rename(oldPath, newPath string) (err error) {
	defer func() { kmetrics.RecordVFSOp(context.Background(), "rename", err) }()

	oldFS, _, err := v.resolveMount(oldPath)
	if err != nil {
		return err
	}
	newFS, _, err := v.resolveMount(newPath)
	if err != nil {
		return err
	}
	if oldFS != newFS {
		return kerrno.New("rename", kerrno.CrossDevice)
	}

	oldFS.Lock()
	defer oldFS.Unlock()

	src, err := v.Resolve(oldPath)
	if err != nil {
		return err
	}
	if src.Inode == nil {
		return kerrno.New("rename", kerrno.NotFound)
	}

	dst, err := v.Resolve(newPath)
	if err != nil {
		return err
	}
	if dst.Inode != nil && dst.Type == TypeDir && src.Type != TypeDir {
		return kerrno.New("rename", kerrno.IsADirectory)
	}
	if dst.Inode != nil && dst.Type != TypeDir && src.Type == TypeDir {
		return kerrno.New("rename", kerrno.NotADirectory)
	}

	return oldFS.Rename(src.Dir, src.Name, dst.Dir, dst.Name)
}

// Chmod updates the permission bits of the inode at path. Per spec.md §4.F,
// chmod is in the exclusive-lock structural-change group rather than the
// shared-lock read group, so it takes the filesystem's write lock.
func (v *VFS) Chmod(path string, mode uint32) error {
	fs, _, err := v.resolveMount(path)
	if err != nil {
		return err
	}
	fs.Lock()
	defer fs.Unlock()

	rp, err := v.ResolveFollowingFinal(path)
	if err != nil {
		return err
	}
	if rp.Inode == nil {
		return kerrno.New("chmod", kerrno.NotFound)
	}
	return fs.Chmod(rp.Inode, mode)
}

// Truncate resizes the regular file at path. Per spec.md §4.G, a truncate
// takes both fs-exclusive and inode-exclusive locks: the filesystem write
// lock guards against a concurrent rename/unlink of the path while it
// resolves, and the inode-exclusive lock (taken inside FileInode.truncate)
// guards the block map itself.
func (v *VFS) Truncate(path string, size int64) error {
	fs, _, err := v.resolveMount(path)
	if err != nil {
		return err
	}
	fs.Lock()
	defer fs.Unlock()

	rp, err := v.ResolveFollowingFinal(path)
	if err != nil {
		return err
	}
	if rp.Inode == nil {
		return kerrno.New("truncate", kerrno.NotFound)
	}
	if rp.Type == TypeDir {
		return kerrno.New("truncate", kerrno.IsADirectory)
	}
	return fs.Truncate(rp.Inode, size)
}
