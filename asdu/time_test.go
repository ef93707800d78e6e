// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package asdu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCP56Time2aRoundTrip(t *testing.T) {
	cases := []time.Time{
		time.Date(2026, time.August, 6, 14, 32, 7, 250_000_000, time.UTC),
		time.Date(2099, time.December, 31, 23, 59, 59, 999_000_000, time.UTC),
		time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, want := range cases {
		encoded := CP56Time2a(want, time.UTC)
		require.Len(t, encoded, CP56Time2aLen)

		got, invalid, err := ParseCP56Time2a(encoded, time.UTC)
		require.NoError(t, err)
		require.False(t, invalid)
		require.Equal(t, want.Year(), got.Year())
		require.Equal(t, want.Month(), got.Month())
		require.Equal(t, want.Day(), got.Day())
		require.Equal(t, want.Hour(), got.Hour())
		require.Equal(t, want.Minute(), got.Minute())
		require.Equal(t, want.Second(), got.Second())
		require.Equal(t, want.Nanosecond()/1e6, got.Nanosecond()/1e6)
	}
}

// TestCP56Time2aMillisecondByteOrder pins the bug-fix: milliseconds are
// the little-endian u16 in bytes [0:2], not a big-endian pair.
func TestCP56Time2aMillisecondByteOrder(t *testing.T) {
	instant := time.Date(2026, time.August, 6, 0, 0, 1, 2_000_000, time.UTC) // 1002ms
	encoded := CP56Time2a(instant, time.UTC)
	require.Equal(t, byte(1002&0xFF), encoded[0])
	require.Equal(t, byte(1002>>8), encoded[1])
}

func TestCP16Time2aRoundTrip(t *testing.T) {
	encoded := CP16Time2a(12345)
	got, err := ParseCP16Time2a(encoded)
	require.NoError(t, err)
	require.Equal(t, uint16(12345), got)
}

func TestParseCP56Time2aShortBuffer(t *testing.T) {
	_, _, err := ParseCP56Time2a(make([]byte, 3), time.UTC)
	require.ErrorIs(t, err, ErrMalformedPayload)
}
