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

package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the kernel-core's run-time stand-in for the original kernel's
// menuconfig-selected compile-time options (spec.md §6), collected as flags
// so one binary can be exercised under several configurations without a
// rebuild.
type Config struct {
	AppName string `yaml:"app-name"`

	Kernel KernelConfig `yaml:"kernel"`

	Kmalloc KmallocConfig `yaml:"kmalloc"`

	Debug DebugConfig `yaml:"debug"`

	FileSystem FileSystemConfig `yaml:"file-system"`

	Logging LoggingConfig `yaml:"logging"`

	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig controls the Prometheus scrape endpoint internal/kmetrics
// exposes.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// KernelConfig holds the scheduler- and boot-level tunables named in
// spec.md §6: TinyKernel is only reported in the boot log line and changes
// no bookkeeping, BootInteractive is not read by the boot path, TimerHz sets the simulated timer-tick frequency consumed by
// ktimer.Ticker, and MaxPid/KernelTidStart bound sched.Core's pid/tid
// allocator (Core.CreateNewPID).
type KernelConfig struct {
	TinyKernel bool `yaml:"tiny-kernel"`

	BootInteractive bool `yaml:"boot-interactive"`

	TimerHz int `yaml:"timer-hz"`

	MaxPid int32 `yaml:"max-pid"`

	KernelTidStart int32 `yaml:"kernel-tid-start"`

	KrnPciVendorsList []string `yaml:"pci-vendors"`
}

// KmallocConfig mirrors the original kernel's kmalloc debug options. They
// are parsed and validated only: this module has no kmalloc, and nothing
// else (internal/kmetrics included) reads them.
type KmallocConfig struct {
	FreeMemPoisoning bool `yaml:"free-mem-poisoning"`

	PoisonByte Octal `yaml:"poison-byte"`

	HeavyStats bool `yaml:"heavy-stats"`

	SupportLeakDetector bool `yaml:"support-leak-detector"`
}

type DebugConfig struct {
	ExitOnInvariantViolation bool `yaml:"exit-on-invariant-violation"`

	LogMutex bool `yaml:"log-mutex"`
}

type FileSystemConfig struct {
	FileMode Octal `yaml:"file-mode"`

	Uid int `yaml:"uid"`
}

func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("app-name", "", "tilckd", "The application name of this mount.")

	err = viper.BindPFlag("app-name", flagSet.Lookup("app-name"))
	if err != nil {
		return err
	}

	flagSet.BoolP("tiny-kernel", "", false, "Tiny-kernel build flag; reported in the boot log only.")

	err = viper.BindPFlag("kernel.tiny-kernel", flagSet.Lookup("tiny-kernel"))
	if err != nil {
		return err
	}

	flagSet.BoolP("boot-interactive", "", false, "Interactive-boot flag; accepted but not read, the default workload always runs.")

	err = viper.BindPFlag("kernel.boot-interactive", flagSet.Lookup("boot-interactive"))
	if err != nil {
		return err
	}

	flagSet.IntP("timer-hz", "", 250, "Simulated timer-tick frequency.")

	err = viper.BindPFlag("kernel.timer-hz", flagSet.Lookup("timer-hz"))
	if err != nil {
		return err
	}

	flagSet.Int32P("max-pid", "", 32768, "Highest pid/tid the allocator will hand out before wrapping.")

	err = viper.BindPFlag("kernel.max-pid", flagSet.Lookup("max-pid"))
	if err != nil {
		return err
	}

	flagSet.Int32P("kernel-tid-start", "", 1, "First tid handed to a kernel thread.")

	err = viper.BindPFlag("kernel.kernel-tid-start", flagSet.Lookup("kernel-tid-start"))
	if err != nil {
		return err
	}

	flagSet.StringSliceP("pci-vendors", "", nil, "PCI vendor IDs to probe at boot (cosmetic: no real bus is attached).")

	err = viper.BindPFlag("kernel.pci-vendors", flagSet.Lookup("pci-vendors"))
	if err != nil {
		return err
	}

	flagSet.BoolP("kmalloc-free-mem-poisoning", "", false, "kmalloc free-memory poisoning option; parsed only, no allocator reads it.")

	err = viper.BindPFlag("kmalloc.free-mem-poisoning", flagSet.Lookup("kmalloc-free-mem-poisoning"))
	if err != nil {
		return err
	}

	flagSet.IntP("kmalloc-poison-byte", "", 0366, "Octal kmalloc poison byte; parsed only, no allocator reads it.")

	err = viper.BindPFlag("kmalloc.poison-byte", flagSet.Lookup("kmalloc-poison-byte"))
	if err != nil {
		return err
	}

	flagSet.BoolP("kmalloc-heavy-stats", "", false, "kmalloc heavy-stats option; parsed only, no statistics are recorded.")

	err = viper.BindPFlag("kmalloc.heavy-stats", flagSet.Lookup("kmalloc-heavy-stats"))
	if err != nil {
		return err
	}

	flagSet.BoolP("kmalloc-leak-detector", "", false, "kmalloc leak-detector option; parsed only, no allocations are tracked.")

	err = viper.BindPFlag("kmalloc.support-leak-detector", flagSet.Lookup("kmalloc-leak-detector"))
	if err != nil {
		return err
	}

	flagSet.BoolP("debug_invariants", "", false, "Debug option; its only effect is to force TRACE log severity.")

	err = viper.BindPFlag("debug.exit-on-invariant-violation", flagSet.Lookup("debug_invariants"))
	if err != nil {
		return err
	}

	flagSet.BoolP("debug_mutex", "", false, "Debug option; its only effect is to force TRACE log severity.")

	err = viper.BindPFlag("debug.log-mutex", flagSet.Lookup("debug_mutex"))
	if err != nil {
		return err
	}

	flagSet.IntP("file-mode", "", 0644, "Permission bits for files, in octal; parsed only, ramfs does not read it.")

	err = viper.BindPFlag("file-system.file-mode", flagSet.Lookup("file-mode"))
	if err != nil {
		return err
	}

	flagSet.IntP("uid", "", -1, "UID option; parsed only, inodes carry no owner.")

	err = viper.BindPFlag("file-system.uid", flagSet.Lookup("uid"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", "INFO", "Minimum log severity: TRACE, DEBUG, INFO, WARNING, ERROR, OFF.")

	err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "text", "Log output format: text or json.")

	err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format"))
	if err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to write rotated log output to; empty means stderr.")

	err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file"))
	if err != nil {
		return err
	}

	flagSet.StringP("metrics-addr", "", ":9090", "Address the Prometheus /metrics endpoint listens on.")

	err = viper.BindPFlag("metrics.addr", flagSet.Lookup("metrics-addr"))
	if err != nil {
		return err
	}

	return nil
}
