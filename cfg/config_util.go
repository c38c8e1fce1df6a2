// Copyright 2024 Google LLC
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

import "runtime"

// DefaultWorkerPoolSize returns max(4, 2*NumCPU). Nothing in this module
// calls it.
func DefaultWorkerPoolSize() int {
	return max(4, 2*runtime.NumCPU())
}

// IsLeakDetectorEnabled reports whether kmalloc's leak-detector bookkeeping
// should run, mirroring the original kernel's KMALLOC_SUPPORT_LEAK_DETECTOR
// option.
func IsLeakDetectorEnabled(c *Config) bool {
	return c.Kmalloc.SupportLeakDetector
}
