package vfskern

import (
	"sort"
	"strings"

	"github.com/iurie5100/tilck/internal/kerrno"
)

// Mount registers fs at prefix ("/" for the root filesystem, "/mnt/foo"
// for anything else). Mountpoints are matched longest-prefix-first, so
// overlapping mounts resolve to the most specific one, exactly spec.md
// §4.F.
func (v *VFS) Mount(prefix string, fs Filesystem) {
	if prefix != "/" {
		prefix = strings.TrimSuffix(prefix, "/")
	}
	v.mounts = append(v.mounts, mountPoint{prefix: prefix, fs: fs})
	sort.Slice(v.mounts, func(i, j int) bool {
		return len(v.mounts[i].prefix) > len(v.mounts[j].prefix)
	})
}

// Unmount removes the mount registered at prefix.
func (v *VFS) Unmount(prefix string) error {
	if prefix != "/" {
		prefix = strings.TrimSuffix(prefix, "/")
	}
	for i, m := range v.mounts {
		if m.prefix == prefix {
			v.mounts = append(v.mounts[:i], v.mounts[i+1:]...)
			return nil
		}
	}
	return kerrno.New("umount", kerrno.NotFound)
}

// resolveMount finds the filesystem owning path and the path remainder
// relative to that filesystem's root.
func (v *VFS) resolveMount(path string) (Filesystem, string, error) {
	for _, m := range v.mounts {
		if m.prefix == "/" {
			continue
		}
		if path == m.prefix || strings.HasPrefix(path, m.prefix+"/") {
			rel := strings.TrimPrefix(path, m.prefix)
			if rel == "" {
				rel = "/"
			}
			return m.fs, rel, nil
		}
	}
	for _, m := range v.mounts {
		if m.prefix == "/" {
			return m.fs, path, nil
		}
	}
	return nil, "", kerrno.New("resolve", kerrno.NotFound)
}
