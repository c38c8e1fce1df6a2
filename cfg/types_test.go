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

func TestOctalUnmarshalText(t *testing.T) {
	var o Octal
	require.NoError(t, o.UnmarshalText([]byte("644")))
	assert.EqualValues(t, 0644, o)
	assert.Equal(t, "644", o.String())
}

func TestOctalUnmarshalTextRejectsNonOctal(t *testing.T) {
	var o Octal
	assert.Error(t, o.UnmarshalText([]byte("999")))
}

func TestLogSeverityUnmarshalText(t *testing.T) {
	var l LogSeverity
	require.NoError(t, l.UnmarshalText([]byte("debug")))
	assert.Equal(t, DebugLogSeverity, l)
}

func TestLogSeverityUnmarshalTextRejectsUnknown(t *testing.T) {
	var l LogSeverity
	assert.Error(t, l.UnmarshalText([]byte("VERBOSE")))
}

func TestLogSeverityRank(t *testing.T) {
	assert.Less(t, TraceLogSeverity.Rank(), DebugLogSeverity.Rank())
	assert.Less(t, ErrorLogSeverity.Rank(), OffLogSeverity.Rank())
	assert.Equal(t, -1, LogSeverity("bogus").Rank())
}
