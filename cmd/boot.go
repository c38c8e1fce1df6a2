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
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/iurie5100/tilck/cfg"
	"github.com/iurie5100/tilck/internal/kernel/sched"
	"github.com/iurie5100/tilck/internal/klog"
	"github.com/iurie5100/tilck/internal/kmetrics"
	"github.com/iurie5100/tilck/internal/ktimer"
	"github.com/iurie5100/tilck/internal/ramfs"
	"github.com/iurie5100/tilck/internal/syscall"
	"github.com/iurie5100/tilck/internal/vfskern"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

func logFormat(name string) klog.Format {
	if name == "json" {
		return klog.FormatJSON
	}
	return klog.FormatText
}

func logLevel(sev cfg.LogSeverity) klog.Level {
	switch sev {
	case cfg.TraceLogSeverity:
		return klog.LevelTrace
	case cfg.DebugLogSeverity:
		return klog.LevelDebug
	case cfg.WarningLogSeverity:
		return klog.LevelWarning
	case cfg.ErrorLogSeverity:
		return klog.LevelError
	case cfg.OffLogSeverity:
		return klog.LevelFatal + 1
	default:
		return klog.LevelInfo
	}
}

// newLogWriter sends log output to a lumberjack-rotated file when
// Logging.FilePath is set, and to stderr otherwise.
func newLogWriter(c *cfg.LoggingConfig) io.Writer {
	if c.FilePath == "" {
		return os.Stderr
	}
	return &lumberjack.Logger{
		Filename:   c.FilePath,
		MaxSize:    c.LogRotate.MaxFileSizeMb,
		MaxBackups: c.LogRotate.BackupFileCount,
		Compress:   c.LogRotate.Compress,
	}
}

// Boot wires together the scheduler, VFS and ramfs root exactly the way a
// real boot sequence would (kernel process first, root filesystem mounted
// second, init spawned last), then drives the scheduler loop until init and
// everything it spawned has exited.
func Boot(c *cfg.Config) error {
	logger := klog.New(newLogWriter(&c.Logging), logFormat(c.Logging.Format), logLevel(c.Logging.Severity), "")
	klog.SetDefault(logger)

	bootID := uuid.New()
	logger.Infof("tilckd starting, boot_id=%s tiny_kernel=%v", bootID, c.Kernel.TinyKernel)

	metricsHandler, err := kmetrics.Register(c.AppName)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	metricsSrv := &http.Server{Addr: c.Metrics.Addr, Handler: mux}

	core := sched.NewCore(sched.Config{
		MaxPid:         c.Kernel.MaxPid,
		TimeSliceTicks: 10,
		KernelTidStart: c.Kernel.KernelTidStart,
	})

	vfs := vfskern.New()
	vfs.Mount("/", ramfs.New(1))

	sc := syscall.New(core, vfs)

	stopTicker := make(chan struct{})
	ticker := ktimer.NewWallTicker(c.Kernel.TimerHz)

	initDone := make(chan struct{})
	var workloadErr error
	core.NewKernelThread("init", func(t *sched.Task) {
		defer close(initDone)
		workloadErr = runWorkload(logger, sc, t)
	})

	// The ticker, the scheduler pump and the metrics server are three
	// independent loops sharing only core's internal locking; an errgroup
	// lets Boot wait on all of them and report whichever fails first
	// instead of hand-rolling a WaitGroup.
	var g errgroup.Group
	g.Go(func() error {
		ktimer.Run(core, ticker, stopTicker)
		return nil
	})
	g.Go(func() error {
		<-stopTicker
		return metricsSrv.Shutdown(context.Background())
	})
	g.Go(func() error {
		logger.Infof("metrics listening on %s", c.Metrics.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer close(stopTicker)
		for {
			core.DisablePreemption()
			core.Schedule()
			core.EnablePreemption()

			select {
			case <-initDone:
				logger.Infof("init exited, shutting down")
				return workloadErr
			default:
			}

			if core.RunnableCount() == 0 {
				logger.Infof("no runnable tasks left, shutting down")
				return workloadErr
			}
		}
	})

	return g.Wait()
}
