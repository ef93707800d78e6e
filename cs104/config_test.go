// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package cs104

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidDefaults(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.Valid())
	require.Equal(t, DefaultMaxTimeNoAckReceived, cfg.MaxTimeNoAckReceived)
	require.Equal(t, DefaultMaxTimeNoAckSent, cfg.MaxTimeNoAckSent)
	require.Equal(t, DefaultMaxIdleTime, cfg.MaxIdleTime)
	require.Equal(t, DefaultMaxNumOfOutstandingIPdus, cfg.MaxNumOfOutstandingIPdus)
	require.Equal(t, DefaultMaxUnconfirmedIPdusReceived, cfg.MaxUnconfirmedIPdusReceived)
	require.EqualValues(t, 2, cfg.CommonAddrSize)
	require.EqualValues(t, 2, cfg.CauseSize)
	require.EqualValues(t, 3, cfg.InfoObjAddrSize)
}

func TestConfigValidRejectsT2NotLessThanT1(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTimeNoAckSent = cfg.MaxTimeNoAckReceived
	require.Error(t, cfg.Valid())
}

func TestConfigValidRejectsOutOfRangeWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxNumOfOutstandingIPdus = -1
	require.Error(t, cfg.Valid())
}

func TestConfigValidRejectsBadAddressSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CommonAddrSize = 3
	require.Error(t, cfg.Valid())
}

func TestDefaultConfigIsAlreadyValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Valid())
	require.True(t, cfg.MaxTimeNoAckSent < cfg.MaxTimeNoAckReceived)
	require.Greater(t, cfg.MaxIdleTime, time.Duration(0))
}
