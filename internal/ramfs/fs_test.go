package ramfs

import (
	"strings"
	"testing"

	"github.com/iurie5100/tilck/internal/kerrno"
	"github.com/iurie5100/tilck/internal/vfskern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMountedVFS() *vfskern.VFS {
	v := vfskern.New()
	v.Mount("/", New(1))
	return v
}

func TestCreateWriteReadFile(t *testing.T) {
	v := newMountedVFS()

	f, err := v.Open("/hello.txt", vfskern.OCreate|vfskern.OReadWrite, 0644)
	require.NoError(t, err)

	n, err := f.Write([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	_, err = f.Seek(0, 0)
	require.NoError(t, err)

	buf := make([]byte, 11)
	n, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(buf[:n]))
	require.NoError(t, f.Close())
}

func TestOpenWithoutCreateFailsOnMissingFile(t *testing.T) {
	v := newMountedVFS()
	_, err := v.Open("/missing", vfskern.OReadOnly, 0)
	assert.Error(t, err)
}

func TestMkdirAndGetdents(t *testing.T) {
	v := newMountedVFS()
	require.NoError(t, v.Mkdir("/dir", 0755))

	_, err := v.Open("/dir/a.txt", vfskern.OCreate, 0644)
	require.NoError(t, err)
	_, err = v.Open("/dir/b.txt", vfskern.OCreate, 0644)
	require.NoError(t, err)

	f, err := v.Open("/dir", vfskern.ODirectory, 0)
	require.NoError(t, err)
	defer f.Close()

	buf := make([]vfskern.DirEntry, 10)
	n, err := f.Getdents(buf)
	require.NoError(t, err)
	names := map[string]bool{}
	for _, e := range buf[:n] {
		names[e.Name] = true
	}
	assert.True(t, names["."])
	assert.True(t, names[".."])
	assert.True(t, names["a.txt"])
	assert.True(t, names["b.txt"])
}

func TestRmdirRejectsNonEmpty(t *testing.T) {
	v := newMountedVFS()
	require.NoError(t, v.Mkdir("/dir", 0755))
	_, err := v.Open("/dir/a.txt", vfskern.OCreate, 0644)
	require.NoError(t, err)

	err = v.Rmdir("/dir")
	assert.Error(t, err)

	require.NoError(t, v.Unlink("/dir/a.txt"))
	assert.NoError(t, v.Rmdir("/dir"))
}

func TestSymlinkResolution(t *testing.T) {
	v := newMountedVFS()
	_, err := v.Open("/real.txt", vfskern.OCreate, 0644)
	require.NoError(t, err)
	require.NoError(t, v.Symlink("/real.txt", "/link.txt"))

	st, err := v.Stat("/link.txt")
	require.NoError(t, err)
	assert.Equal(t, vfskern.TypeFile, st.Type)

	target, err := v.Readlink("/link.txt")
	require.NoError(t, err)
	assert.Equal(t, "/real.txt", target)
}

func TestRenameReplacesDestination(t *testing.T) {
	v := newMountedVFS()
	f, err := v.Open("/a.txt", vfskern.OCreate|vfskern.OReadWrite, 0644)
	require.NoError(t, err)
	f.Write([]byte("A"))
	f.Close()

	f, err = v.Open("/b.txt", vfskern.OCreate|vfskern.OReadWrite, 0644)
	require.NoError(t, err)
	f.Write([]byte("B"))
	f.Close()

	require.NoError(t, v.Rename("/a.txt", "/b.txt"))

	_, err = v.Stat("/a.txt")
	assert.Error(t, err)

	f, err = v.Open("/b.txt", vfskern.OReadOnly, 0)
	require.NoError(t, err)
	buf := make([]byte, 1)
	f.Read(buf)
	assert.Equal(t, "A", string(buf))
}

func TestCreateRejectsNameOneByteOverLimit(t *testing.T) {
	v := newMountedVFS()

	_, err := v.Open("/"+strings.Repeat("a", maxNameLen), vfskern.OCreate, 0644)
	require.NoError(t, err)

	_, err = v.Open("/"+strings.Repeat("a", maxNameLen+1), vfskern.OCreate, 0644)
	require.Error(t, err)
	kerr, ok := err.(*kerrno.Error)
	require.True(t, ok)
	assert.Equal(t, kerrno.InvalidArgument, kerr.Kind)
}

func TestGetdentsRejectsZeroLengthBufferWithEntriesRemaining(t *testing.T) {
	v := newMountedVFS()
	_, err := v.Open("/a.txt", vfskern.OCreate, 0644)
	require.NoError(t, err)

	f, err := v.Open("/", vfskern.ODirectory, 0)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Getdents(nil)
	assert.Equal(t, 0, n)
	assert.Error(t, err)
}

func TestHardLinkSharesContent(t *testing.T) {
	v := newMountedVFS()
	f, err := v.Open("/a.txt", vfskern.OCreate|vfskern.OReadWrite, 0644)
	require.NoError(t, err)
	f.Write([]byte("shared"))
	f.Close()

	require.NoError(t, v.Link("/a.txt", "/b.txt"))
	st, err := v.Lstat("/b.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.Nlink)

	require.NoError(t, v.Unlink("/a.txt"))
	f, err = v.Open("/b.txt", vfskern.OReadOnly, 0)
	require.NoError(t, err)
	buf := make([]byte, 6)
	f.Read(buf)
	assert.Equal(t, "shared", string(buf))
}
