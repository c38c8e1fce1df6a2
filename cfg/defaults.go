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

// LoggingConfig controls klog's handler construction (internal/klog.New).
type LoggingConfig struct {
	Severity LogSeverity `yaml:"severity"`

	Format string `yaml:"format"`

	// FilePath, when non-empty, sends log output to a lumberjack-rotated
	// file at that path instead of stderr; LogRotate then governs rotation.
	FilePath string `yaml:"file-path"`

	LogRotate LogRotateLoggingConfig `yaml:"log-rotate"`
}

// LogRotateLoggingConfig mirrors gcsfuse's lumberjack-backed log rotation
// settings; the kernel-core logger only consults these when
// Logging.FilePath is set, so that output goes to a file instead of stderr.
type LogRotateLoggingConfig struct {
	MaxFileSizeMb int `yaml:"max-file-size-mb"`

	BackupFileCount int `yaml:"backup-file-count"`

	Compress bool `yaml:"compress"`
}

// GetDefaultLoggingConfig returns the default configuration that is to be used
// during the application startup - when the provided configuration hasn't been
// parsed yet.
func GetDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity: InfoLogSeverity,
		Format:   "text",
		LogRotate: LogRotateLoggingConfig{
			BackupFileCount: 10,
			Compress:        true,
			MaxFileSizeMb:   512,
		},
	}
}

// GetDefaultKernelConfig returns the scheduler/boot defaults matching the
// original kernel's out-of-the-box menuconfig selections.
func GetDefaultKernelConfig() KernelConfig {
	return KernelConfig{
		TimerHz:        250,
		MaxPid:         32768,
		KernelTidStart: 1,
	}
}

// GetDefaultKmallocConfig returns the debug-feature-off defaults the
// original kernel ships with in a release build.
func GetDefaultKmallocConfig() KmallocConfig {
	return KmallocConfig{
		PoisonByte: Octal(0366),
	}
}
