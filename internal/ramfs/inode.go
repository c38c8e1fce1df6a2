// Package ramfs is an in-memory filesystem implementing
// internal/vfskern's Filesystem/Inode/Handle interfaces: spec.md §4.G's
// "tmpfs"-style root filesystem, holding files as a sparse block map,
// directories as a name-ordered entry map, and symlinks as a target
// string, all inside process memory with no backing store.
//
// Grounded on gcsfuse's fs/inode package (dir.go, file.go, symlink.go,
// explicit_dir.go, lookup_count.go): the per-inode lookup-count/refcount
// discipline, the "destroy once both nlink and lookups hit zero" rule,
// and a directory backed by a name-sorted map of entries are all carried
// over from there, generalized from "one GCS bucket" to an arbitrary
// number of in-memory inodes. The block map for files instead of a
// single byte slice is grounded on klist.OrderedMap, giving ramfs sparse
// files (writes past EOF leave a hole) without reimplementing a tree.
package ramfs

import (
	"context"
	"sync"
	"time"

	"github.com/iurie5100/tilck/internal/klist"
	"github.com/iurie5100/tilck/internal/kmetrics"
	"github.com/iurie5100/tilck/internal/vfskern"
)

// blockSize is the granularity at which file content is chunked into the
// OrderedMap, chosen to match a typical page size without claiming to
// model real paging.
const blockSize = 4096

type block [blockSize]byte

// inode is the common header embedded in every ramfs inode kind.
type inode struct {
	mu sync.RWMutex

	ino   uint64
	mode  uint32
	nlink uint32
	refs  uint32

	atime, mtime, ctime time.Time
}

func (in *inode) Retain() {
	in.mu.Lock()
	in.refs++
	in.mu.Unlock()
}

// Release matches gcsfuse's fs/inode/lookup_count.go DecrementLookupCount:
// it drops one handle reference under the inode's own lock (callers such
// as vfskern.OpenFile.Close do not hold the FS-wide lock) and reports
// whether both the handle count and nlink are now zero.
func (in *inode) Release() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.refs > 0 {
		in.refs--
	}
	return in.refs == 0 && in.nlink == 0
}

func (in *inode) touch(now time.Time) {
	in.mtime = now
	in.ctime = now
}

// FileInode is a regular file: content is a sparse map of fixed-size
// blocks keyed by block index, so that writing at a large offset does not
// allocate the bytes in between.
type FileInode struct {
	inode
	blocks *klist.OrderedMap[int64, *block]
	size   int64
}

func newFileInode(ino uint64, mode uint32, now time.Time) *FileInode {
	return &FileInode{
		inode:  inode{ino: ino, mode: mode, nlink: 1, atime: now, mtime: now, ctime: now},
		blocks: klist.NewOrderedMap[int64, *block](),
	}
}

func (f *FileInode) readAt(buf []byte, offset int64) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if offset >= f.size {
		return 0, nil
	}
	end := offset + int64(len(buf))
	if end > f.size {
		end = f.size
	}

	n := 0
	for off := offset; off < end; {
		blkIdx := off / blockSize
		blkOff := off % blockSize
		chunk := end - off
		if chunk > blockSize-blkOff {
			chunk = blockSize - blkOff
		}
		if blk, ok := f.blocks.Get(blkIdx); ok {
			copy(buf[n:n+int(chunk)], blk[blkOff:blkOff+chunk])
		} else {
			// hole: reads as zeroes
			clear(buf[n : n+int(chunk)])
		}
		n += int(chunk)
		off += chunk
	}
	return n, nil
}

func (f *FileInode) writeAt(buf []byte, offset int64, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for off := offset; n < len(buf); {
		blkIdx := off / blockSize
		blkOff := off % blockSize
		chunk := int64(len(buf) - n)
		if chunk > blockSize-blkOff {
			chunk = blockSize - blkOff
		}
		blk, ok := f.blocks.Get(blkIdx)
		if !ok {
			blk = &block{}
			f.blocks.Insert(blkIdx, blk)
			kmetrics.RecordBlockAllocated(context.Background())
		}
		copy(blk[blkOff:blkOff+chunk], buf[n:n+int(chunk)])
		n += int(chunk)
		off += chunk
	}

	if offset+int64(n) > f.size {
		f.size = offset + int64(n)
	}
	f.touch(now)
	return n, nil
}

func (f *FileInode) truncate(size int64, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if size < f.size {
		lastBlk := size / blockSize
		var toDrop []int64
		f.blocks.InOrder(func(idx int64, _ *block) bool {
			if idx > lastBlk {
				toDrop = append(toDrop, idx)
			}
			return true
		})
		for _, idx := range toDrop {
			f.blocks.Delete(idx)
		}
		if size%blockSize != 0 {
			if blk, ok := f.blocks.Get(lastBlk); ok {
				for i := size % blockSize; i < blockSize; i++ {
					blk[i] = 0
				}
			}
		}
	}
	f.size = size
	f.touch(now)
}

// dirEntry is one name -> child mapping inside a DirInode.
type dirEntry struct {
	name  string
	ino   vfskern.Inode
	itype vfskern.InodeType
}

// DirInode is a directory: a name-ordered entry map (so Getdents returns
// entries in a stable, deterministic order across calls) plus "." and
// ".." pseudo-entries installed at creation.
type DirInode struct {
	inode
	parent  *DirInode
	entries *klist.OrderedMap[string, *dirEntry]
}

func newDirInode(ino uint64, mode uint32, parent *DirInode, now time.Time) *DirInode {
	d := &DirInode{
		inode:   inode{ino: ino, mode: mode, nlink: 2, atime: now, mtime: now, ctime: now},
		parent:  parent,
		entries: klist.NewOrderedMap[string, *dirEntry](),
	}
	if parent == nil {
		parent = d
	}
	d.entries.Insert(".", &dirEntry{name: ".", ino: d, itype: vfskern.TypeDir})
	d.entries.Insert("..", &dirEntry{name: "..", ino: parent, itype: vfskern.TypeDir})
	return d
}

// SymlinkInode is a symbolic link: an immutable target string set at
// creation, per spec.md §4.G (ramfs symlinks cannot be modified in place).
type SymlinkInode struct {
	inode
	target string
}

func newSymlinkInode(ino uint64, target string, now time.Time) *SymlinkInode {
	return &SymlinkInode{
		inode:  inode{ino: ino, mode: 0777, nlink: 1, atime: now, mtime: now, ctime: now},
		target: target,
	}
}
