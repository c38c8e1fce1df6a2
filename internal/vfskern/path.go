package vfskern

import (
	"strings"

	"github.com/iurie5100/tilck/internal/kerrno"
)

var (
	notADirError = kerrno.New("resolve", kerrno.NotADirectory)
	notFoundErr  = kerrno.New("resolve", kerrno.NotFound)
)

// ResolvedPath is the result of walking a path down to its final
// component, carrying everything the caller needs to either open the
// target or create a new entry in its parent directory.
type ResolvedPath struct {
	FS            Filesystem
	Inode         Inode // nil if the final component does not exist
	Type          InodeType
	Dir           Inode // parent directory inode, always valid
	Name          string
	TrailingSlash bool
}

// Resolve walks path (absolute, mount-relative after Mount selection) one
// component at a time starting from the mounted filesystem's root,
// dereferencing symlinks up to maxSymlinkDepth times, per spec.md §4.F.
// The final component is left undereferenced (lstat semantics); callers
// that want open(2)/stat(2) semantics call ResolveFollowingFinal.
func (v *VFS) Resolve(path string) (ResolvedPath, error) {
	return v.resolve(path, false, new(int))
}

// ResolveFollowingFinal behaves like Resolve but also dereferences the
// final component if it is a symlink.
func (v *VFS) ResolveFollowingFinal(path string) (ResolvedPath, error) {
	return v.resolve(path, true, new(int))
}

func (v *VFS) resolve(path string, followFinal bool, depth *int) (ResolvedPath, error) {
	fs, rel, err := v.resolveMount(path)
	if err != nil {
		return ResolvedPath{}, err
	}

	trailingSlash := len(rel) > 1 && strings.HasSuffix(rel, "/")
	parts := splitComponents(rel)

	root := fs.RootInode()
	if len(parts) == 0 {
		return ResolvedPath{FS: fs, Inode: root, Type: TypeDir, Dir: root, Name: ".", TrailingSlash: true}, nil
	}

	cur := root

	for i, name := range parts {
		last := i == len(parts)-1

		child, childType, err := fs.GetEntry(cur, name)
		if err != nil {
			if last {
				return ResolvedPath{FS: fs, Dir: cur, Name: name, TrailingSlash: trailingSlash}, nil
			}
			return ResolvedPath{}, err
		}

		if childType == TypeSymlink && (!last || followFinal) {
			resolved, rtype, err := v.followSymlink(fs, cur, child, depth)
			if err != nil {
				return ResolvedPath{}, err
			}
			child, childType = resolved, rtype
		}

		if last {
			if trailingSlash && childType != TypeDir {
				return ResolvedPath{}, notADirError
			}
			return ResolvedPath{FS: fs, Inode: child, Type: childType, Dir: cur, Name: name, TrailingSlash: trailingSlash}, nil
		}

		if childType != TypeDir {
			return ResolvedPath{}, notADirError
		}
		cur = child
	}

	return ResolvedPath{}, notFoundErr
}

// followSymlink dereferences link (contained in dir) down to a
// non-symlink inode, resolving relative targets against dir and absolute
// targets from the owning filesystem's mount root. depth is shared across
// the whole chain so that a cycle of symlinks is bounded exactly once per
// path resolution, per spec.md §4.F.
func (v *VFS) followSymlink(fs Filesystem, dir Inode, link Inode, depth *int) (Inode, InodeType, error) {
	*depth++
	if *depth > maxSymlinkDepth {
		return nil, 0, errTooManyLinks
	}

	target, err := fs.Readlink(link)
	if err != nil {
		return nil, 0, err
	}

	if strings.HasPrefix(target, "/") {
		sub, err := v.resolve(target, true, depth)
		if err != nil {
			return nil, 0, err
		}
		if sub.Inode == nil {
			return nil, 0, notFoundErr
		}
		return sub.Inode, sub.Type, nil
	}

	parts := splitComponents(target)
	cur := dir
	var curType InodeType = TypeDir
	for i, name := range parts {
		last := i == len(parts)-1
		child, childType, err := fs.GetEntry(cur, name)
		if err != nil {
			return nil, 0, err
		}
		if childType == TypeSymlink {
			resolved, rtype, err := v.followSymlink(fs, cur, child, depth)
			if err != nil {
				return nil, 0, err
			}
			child, childType = resolved, rtype
		}
		if last {
			return child, childType, nil
		}
		if childType != TypeDir {
			return nil, 0, notADirError
		}
		cur, curType = child, childType
	}
	_ = curType
	return cur, TypeDir, nil
}

func splitComponents(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c == "" || c == "." {
			continue
		}
		out = append(out, c)
	}
	return out
}
