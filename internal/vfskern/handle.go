package vfskern

import "sync"

// OpenFlag mirrors the open(2) flag bits the VFS core interprets itself
// (the rest are passed through to the filesystem's Open).
type OpenFlag int

const (
	OReadOnly OpenFlag = 0
	OWriteOnly OpenFlag = 1 << iota
	OReadWrite
	OCreate
	OExcl
	OTrunc
	OAppend
	ODirectory
)

// OpenFile wraps a Filesystem.Handle with the seek-offset and dup-refcount
// bookkeeping that is uniform across filesystems, grounded on gcsfuse's
// fs/inode.Inode method set (Read/Write taking explicit offsets, with the
// file object itself owning the "current position" state FUSE expects).
type OpenFile struct {
	mu     sync.Mutex
	h      Handle
	fs     Filesystem
	inode  Inode
	flags  OpenFlag
	offset int64
}

// Read reads into buf starting at the file's current offset, advancing it.
func (f *OpenFile) Read(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.h.Read(buf, f.offset)
	f.offset += int64(n)
	return n, err
}

// Write writes buf at the file's current offset (or at EOF if opened with
// OAppend), advancing the offset by the number of bytes written.
func (f *OpenFile) Write(buf []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	off := f.offset
	if f.flags&OAppend != 0 {
		st, err := f.h.Stat()
		if err != nil {
			return 0, err
		}
		off = st.Size
	}
	n, err := f.h.Write(buf, off)
	f.offset = off + int64(n)
	return n, err
}

// Seek repositions the file's offset per whence (0=set, 1=cur, 2=end),
// matching lseek(2).
func (f *OpenFile) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch whence {
	case 0:
		f.offset = offset
	case 1:
		f.offset += offset
	case 2:
		st, err := f.h.Stat()
		if err != nil {
			return 0, err
		}
		f.offset = st.Size + offset
	}
	return f.offset, nil
}

// Getdents reads directory entries starting at the file's current cursor.
func (f *OpenFile) Getdents(buf []DirEntry) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, next, err := f.h.Getdents(int(f.offset), buf)
	f.offset = int64(next)
	return n, err
}

// Stat returns the underlying inode's attributes.
func (f *OpenFile) Stat() (Stat, error) { return f.h.Stat() }

// Ioctl forwards cmd/arg to the filesystem-specific handle implementation.
func (f *OpenFile) Ioctl(cmd uintptr, arg any) (int, error) { return f.h.Ioctl(cmd, arg) }

// Dup returns a new OpenFile sharing the same underlying Handle and
// filesystem offset semantics are independent (POSIX dup duplicates the
// fd, not the open file description's offset coupling across processes;
// this module does not model shared open-file-description offsets).
func (f *OpenFile) Dup() *OpenFile {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inode.Retain()
	return &OpenFile{h: f.h, fs: f.fs, inode: f.inode, flags: f.flags, offset: f.offset}
}

// Close releases the underlying handle and the inode reference taken when
// it was opened.
func (f *OpenFile) Close() error {
	f.inode.Release()
	return f.h.Close()
}
