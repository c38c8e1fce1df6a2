package ramfs

import (
	"github.com/iurie5100/tilck/internal/kerrno"
	"github.com/iurie5100/tilck/internal/vfskern"
)

type fileHandle struct {
	fs   *FS
	file *FileInode
}

func (h *fileHandle) Read(buf []byte, offset int64) (int, error) {
	return h.file.readAt(buf, offset)
}

func (h *fileHandle) Write(buf []byte, offset int64) (int, error) {
	return h.file.writeAt(buf, offset, now())
}

func (h *fileHandle) Getdents(cursor int, buf []vfskern.DirEntry) (int, int, error) {
	return 0, 0, kerrno.New("getdents", kerrno.NotADirectory)
}

func (h *fileHandle) Stat() (vfskern.Stat, error) { return h.fs.Stat(h.file) }

func (h *fileHandle) Ioctl(cmd uintptr, arg any) (int, error) {
	return 0, kerrno.New("ioctl", kerrno.Unsupported)
}

func (h *fileHandle) Close() error { return nil }

type dirHandle struct {
	fs  *FS
	dir *DirInode
}

func (h *dirHandle) Read(buf []byte, offset int64) (int, error) {
	return 0, kerrno.New("read", kerrno.IsADirectory)
}

func (h *dirHandle) Write(buf []byte, offset int64) (int, error) {
	return 0, kerrno.New("write", kerrno.IsADirectory)
}

// Getdents returns entries starting at position cursor in the directory's
// name order. Each call takes a fresh snapshot of the entry map and cursor
// is an index into it, so entries added or removed before the cursor
// between two calls shift what the next call returns (an entry can be
// skipped or returned twice).
func (h *dirHandle) Getdents(cursor int, buf []vfskern.DirEntry) (int, int, error) {
	h.dir.mu.RLock()
	all := make([]vfskern.DirEntry, 0, h.dir.entries.Len())
	h.dir.entries.InOrder(func(name string, e *dirEntry) bool {
		all = append(all, vfskern.DirEntry{Name: e.name, Ino: inodeNumber(e.ino), Type: e.itype})
		return true
	})
	h.dir.mu.RUnlock()

	if cursor >= len(all) {
		return 0, cursor, nil
	}
	if len(buf) == 0 {
		return 0, cursor, kerrno.New("getdents", kerrno.InvalidArgument)
	}
	n := copy(buf, all[cursor:])
	return n, cursor + n, nil
}

func (h *dirHandle) Stat() (vfskern.Stat, error) { return h.fs.Stat(h.dir) }

func (h *dirHandle) Ioctl(cmd uintptr, arg any) (int, error) {
	return 0, kerrno.New("ioctl", kerrno.Unsupported)
}

func (h *dirHandle) Close() error { return nil }

func inodeNumber(in vfskern.Inode) uint64 {
	switch v := in.(type) {
	case *FileInode:
		return v.ino
	case *DirInode:
		return v.ino
	case *SymlinkInode:
		return v.ino
	default:
		return 0
	}
}
