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

// Rationalize updates config fields based on the values of other fields,
// the way gcsfuse's Rationalize derives Debug.Fuse/Debug.Gcs into a forced
// TRACE severity: any debug toggle here forces TRACE logging too, so
// flipping one debug flag doesn't also require raising log-severity by hand.
func Rationalize(c *Config) error {
	if c.Debug.ExitOnInvariantViolation || c.Debug.LogMutex {
		c.Logging.Severity = TraceLogSeverity
	}

	if c.Kernel.TimerHz <= 0 {
		c.Kernel.TimerHz = GetDefaultKernelConfig().TimerHz
	}

	if c.Kernel.MaxPid <= 0 {
		c.Kernel.MaxPid = GetDefaultKernelConfig().MaxPid
	}

	if c.Kernel.KernelTidStart <= 0 {
		c.Kernel.KernelTidStart = GetDefaultKernelConfig().KernelTidStart
	}

	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}

	return nil
}
