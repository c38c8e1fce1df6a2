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
)

func validConfig() Config {
	c := Config{}
	c.Kernel = GetDefaultKernelConfig()
	c.Kmalloc = GetDefaultKmallocConfig()
	c.Logging = GetDefaultLoggingConfig()
	return c
}

func TestValidateConfigAcceptsDefaults(t *testing.T) {
	c := validConfig()
	assert.NoError(t, ValidateConfig(&c))
}

func TestValidateConfigRejectsZeroTimerHz(t *testing.T) {
	c := validConfig()
	c.Kernel.TimerHz = 0
	assert.ErrorContains(t, ValidateConfig(&c), "kernel config")
}

func TestValidateConfigRejectsBadLogFormat(t *testing.T) {
	c := validConfig()
	c.Logging.Format = "xml"
	assert.ErrorContains(t, ValidateConfig(&c), "logging config")
}

func TestValidateConfigRejectsBadLogRotate(t *testing.T) {
	c := validConfig()
	c.Logging.LogRotate.MaxFileSizeMb = 0
	assert.ErrorContains(t, ValidateConfig(&c), "log-rotate config")
}
