package syscall

import (
	"testing"

	"github.com/iurie5100/tilck/internal/kernel/sched"
	"github.com/iurie5100/tilck/internal/ramfs"
	"github.com/iurie5100/tilck/internal/vfskern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSyscalls() (*sched.Core, *Syscalls) {
	core := sched.NewCore(sched.Config{MaxPid: 100, TimeSliceTicks: 10, KernelTidStart: 1000})
	v := vfskern.New()
	v.Mount("/", ramfs.New(1))
	return core, New(core, v)
}

func TestOpenWriteReadClose(t *testing.T) {
	core, sc := newTestSyscalls()
	boot := core.Current()

	fd, err := sc.Open(boot, "/a.txt", vfskern.OCreate|vfskern.OReadWrite, 0644)
	require.NoError(t, err)

	n, err := sc.Write(boot, fd, []byte("hi"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = sc.Lseek(boot, fd, 0, 0)
	require.NoError(t, err)

	buf := make([]byte, 2)
	n, err = sc.Read(boot, fd, buf)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(buf[:n]))

	require.NoError(t, sc.Close(boot, fd))
}

func TestGetpidGettid(t *testing.T) {
	core, sc := newTestSyscalls()
	boot := core.Current()
	assert.Equal(t, int32(0), sc.Getpid(boot))
	assert.Equal(t, int32(0), sc.Gettid(boot))
}

func TestForkAndWait4(t *testing.T) {
	core, sc := newTestSyscalls()
	boot := core.Current()

	pid, err := sc.Fork(boot, func(ct *sched.Task) {
		sc.Exit(ct, 7)
	})
	require.NoError(t, err)
	assert.Greater(t, pid, int32(0))

	for i := 0; i < 1000; i++ {
		core.KernelYield()
	}

	gotPid, status, err := sc.Wait4(boot, pid)
	require.NoError(t, err)
	assert.Equal(t, pid, gotPid)
	assert.Equal(t, 7<<8, status)
}

func TestSetsidRejectsGroupLeader(t *testing.T) {
	core, sc := newTestSyscalls()
	boot := core.Current()
	boot.Process.Pgid = boot.Process.Pid

	_, err := sc.Setsid(boot)
	assert.Error(t, err)
}

func TestExecveRejectsEmptyArgv(t *testing.T) {
	core, sc := newTestSyscalls()
	boot := core.Current()
	err := sc.Execve(boot, "/bin/true", nil, nil)
	assert.Error(t, err)

	err = sc.Execve(boot, "/bin/true", []string{"true"}, nil)
	assert.NoError(t, err)
}
