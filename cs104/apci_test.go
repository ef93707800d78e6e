// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package cs104

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestControlFieldIFrameRoundTrip(t *testing.T) {
	cf := controlField{kind: kindI, sendSeq: 12345, recvSeq: 9999}
	parsed, err := parseControlField(cf.encode())
	require.NoError(t, err)
	require.Equal(t, kindI, parsed.kind)
	require.Equal(t, cf.sendSeq, parsed.sendSeq)
	require.Equal(t, cf.recvSeq, parsed.recvSeq)
}

func TestControlFieldSFrameRoundTrip(t *testing.T) {
	cf := controlField{kind: kindS, recvSeq: 42}
	parsed, err := parseControlField(cf.encode())
	require.NoError(t, err)
	require.Equal(t, kindS, parsed.kind)
	require.Equal(t, cf.recvSeq, parsed.recvSeq)
}

func TestControlFieldUFrameRoundTrip(t *testing.T) {
	for _, fn := range []byte{uStartDtAct, uStartDtCon, uStopDtAct, uStopDtCon, uTestFrAct, uTestFrCon} {
		cf := controlField{kind: kindU, uFunc: fn}
		parsed, err := parseControlField(cf.encode())
		require.NoError(t, err)
		require.Equal(t, kindU, parsed.kind)
		require.Equal(t, fn, parsed.uFunc)
	}
}

func TestParseControlFieldRejectsMultipleUFunctionBits(t *testing.T) {
	var b [4]byte
	b[0] = uStartDtAct | uStopDtAct | 0x03
	_, err := parseControlField(b)
	require.ErrorIs(t, err, ErrMalformedApdu)
}

// TestSeqDiffWrapsCorrectly pins the 15-bit signed-wraparound property:
// seqDiff must treat the sequence space as circular, not linear.
func TestSeqDiffWrapsCorrectly(t *testing.T) {
	require.Equal(t, 1, seqDiff(1, 0))
	require.Equal(t, -1, seqDiff(0, 1))
	require.Equal(t, 0, seqDiff(5, 5))

	const mod = 1 << 15
	require.Equal(t, 1, seqDiff(0, mod-1))
	require.Equal(t, -1, seqDiff(mod-1, 0))
}

func TestIncSeqWraps(t *testing.T) {
	require.Equal(t, uint16(0), incSeq(0x7FFF))
	require.Equal(t, uint16(1), incSeq(0))
}
