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

import "fmt"

const (
	TimerHzInvalidValueError   = "timer-hz must be positive"
	MaxPidInvalidValueError    = "max-pid must be positive"
	KernelTidStartInvalidError = "kernel-tid-start must be positive"
	LogFormatInvalidValueError = "log-format must be one of: text, json"
)

func isValidLogRotateConfig(config *LogRotateLoggingConfig) error {
	if config.MaxFileSizeMb <= 0 {
		return fmt.Errorf("max-file-size-mb should be atleast 1")
	}
	if config.BackupFileCount < 0 {
		return fmt.Errorf("backup-file-count should be 0 (to retain all backup files) or a positive value")
	}
	return nil
}

func isValidKernelConfig(c *KernelConfig) error {
	if c.TimerHz <= 0 {
		return fmt.Errorf(TimerHzInvalidValueError)
	}
	if c.MaxPid <= 0 {
		return fmt.Errorf(MaxPidInvalidValueError)
	}
	if c.KernelTidStart <= 0 {
		return fmt.Errorf(KernelTidStartInvalidError)
	}
	return nil
}

func isValidLogFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf(LogFormatInvalidValueError)
	}
	return nil
}

// ValidateConfig returns a non-nil error if the config is invalid.
func ValidateConfig(config *Config) error {
	var err error

	if err = isValidLogRotateConfig(&config.Logging.LogRotate); err != nil {
		return fmt.Errorf("error parsing log-rotate config: %w", err)
	}

	if err = isValidLogFormat(config.Logging.Format); err != nil {
		return fmt.Errorf("error parsing logging config: %w", err)
	}

	if err = isValidKernelConfig(&config.Kernel); err != nil {
		return fmt.Errorf("error parsing kernel config: %w", err)
	}

	return nil
}
