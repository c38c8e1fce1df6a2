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

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindFlagsPopulatesViperDefaults(t *testing.T) {
	viper.Reset()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(fs))

	var c Config
	require.NoError(t, viper.Unmarshal(&c, viper.DecodeHook(DecodeHook())))

	assert.Equal(t, "tilckd", c.AppName)
	assert.Equal(t, 250, c.Kernel.TimerHz)
	assert.EqualValues(t, 32768, c.Kernel.MaxPid)
	assert.Equal(t, InfoLogSeverity, c.Logging.Severity)
}

func TestBindFlagsHonorsOverride(t *testing.T) {
	viper.Reset()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, BindFlags(fs))
	require.NoError(t, fs.Set("timer-hz", "1000"))

	var c Config
	require.NoError(t, viper.Unmarshal(&c, viper.DecodeHook(DecodeHook())))
	assert.Equal(t, 1000, c.Kernel.TimerHz)
}
