// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"

	"github.com/iurie5100/tilck/internal/kernel/sched"
	"github.com/iurie5100/tilck/internal/klog"
	"github.com/iurie5100/tilck/internal/syscall"
	"github.com/iurie5100/tilck/internal/vfskern"
)

// runWorkload is init's body: it exercises the filesystem and process
// syscalls the way a real init would exercise them against a freshly
// mounted root, then forks a handful of worker children. Wait4 is called
// sequentially, one child at a time: init has exactly one execution
// context (one goroutine holding its turn), so unlike the independent
// worker bodies below it cannot fan its own syscalls out across
// goroutines without corrupting its own wait.Object.
func runWorkload(logger *klog.Logger, sc *syscall.Syscalls, t *sched.Task) error {
	if err := sc.Mkdir(t, "/etc", 0755); err != nil {
		return fmt.Errorf("mkdir /etc: %w", err)
	}

	fd, err := sc.Open(t, "/etc/motd", vfskern.OCreate|vfskern.OWriteOnly, 0644)
	if err != nil {
		return fmt.Errorf("create /etc/motd: %w", err)
	}
	if _, err := sc.Write(t, fd, []byte("tilckd is up\n")); err != nil {
		return fmt.Errorf("write /etc/motd: %w", err)
	}
	if err := sc.Close(t, fd); err != nil {
		return fmt.Errorf("close /etc/motd: %w", err)
	}

	const numWorkers = 3
	pids := make([]int32, 0, numWorkers)
	for i := 0; i < numWorkers; i++ {
		i := i
		pid, err := sc.Fork(t, func(ct *sched.Task) {
			workerBody(logger, sc, ct, i)
		})
		if err != nil {
			logger.Errorf("fork worker %d: %v", i, err)
			continue
		}
		pids = append(pids, pid)
	}

	for _, pid := range pids {
		reaped, status, err := sc.Wait4(t, pid)
		if err != nil {
			return fmt.Errorf("wait4(%d): %w", pid, err)
		}
		logger.Infof("reaped pid=%d status=%d", reaped, status)
	}
	return nil
}

// workerBody writes a distinct file, reads it back, then exits with a
// status derived from its index, exercising fork + per-process fd tables
// + exit(2)/wait4(2) end to end.
func workerBody(logger *klog.Logger, sc *syscall.Syscalls, ct *sched.Task, index int) {
	path := fmt.Sprintf("/etc/worker-%d", index)
	fd, err := sc.Open(ct, path, vfskern.OCreate|vfskern.OReadWrite|vfskern.OTrunc, 0644)
	if err != nil {
		logger.Errorf("worker %d: open: %v", index, err)
		sc.Exit(ct, 1)
		return
	}

	payload := fmt.Sprintf("worker %d reporting\n", index)
	if _, err := sc.Write(ct, fd, []byte(payload)); err != nil {
		logger.Errorf("worker %d: write: %v", index, err)
		sc.Exit(ct, 1)
		return
	}

	if _, err := sc.Lseek(ct, fd, 0, 0); err != nil {
		logger.Errorf("worker %d: lseek: %v", index, err)
		sc.Exit(ct, 1)
		return
	}

	buf := make([]byte, len(payload))
	if _, err := sc.Read(ct, fd, buf); err != nil {
		logger.Errorf("worker %d: read: %v", index, err)
		sc.Exit(ct, 1)
		return
	}

	_ = sc.Close(ct, fd)
	sc.Exit(ct, index)
}
