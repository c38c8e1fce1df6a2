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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRationalizeForcesTraceOnDebugInvariants(t *testing.T) {
	c := validConfig()
	c.Debug.ExitOnInvariantViolation = true
	require.NoError(t, Rationalize(&c))
	assert.Equal(t, TraceLogSeverity, c.Logging.Severity)
}

func TestRationalizeFillsZeroKernelDefaults(t *testing.T) {
	c := Config{}
	require.NoError(t, Rationalize(&c))
	assert.Equal(t, GetDefaultKernelConfig().TimerHz, c.Kernel.TimerHz)
	assert.Equal(t, GetDefaultKernelConfig().MaxPid, c.Kernel.MaxPid)
	assert.Equal(t, GetDefaultKernelConfig().KernelTidStart, c.Kernel.KernelTidStart)
}

func TestRationalizeLeavesExplicitValuesAlone(t *testing.T) {
	c := validConfig()
	c.Kernel.TimerHz = 1000
	require.NoError(t, Rationalize(&c))
	assert.Equal(t, 1000, c.Kernel.TimerHz)
}
