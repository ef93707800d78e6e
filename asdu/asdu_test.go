// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package asdu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func paramsGrid() []*Params {
	var grid []*Params
	for _, causeSize := range []byte{1, 2} {
		for _, caSize := range []byte{1, 2} {
			for _, ioaSize := range []byte{1, 2, 3} {
				grid = append(grid, &Params{
					CauseSize:       causeSize,
					CommonAddrSize:  caSize,
					InfoObjAddrSize: ioaSize,
				})
			}
		}
	}
	return grid
}

// TestASDURoundTrip exercises MarshalBinary/UnmarshalBinary across the
// full CauseSize x CommonAddrSize x InfoObjAddrSize grid for a simple
// single-point information ASDU.
func TestASDURoundTrip(t *testing.T) {
	for _, p := range paramsGrid() {
		id := Identifier{
			Type:       M_SP_NA_1,
			Variable:   VariableStruct{Number: 1},
			Coa:        CauseOfTransmission{Cause: Spontaneous},
			CommonAddr: CommonAddr(1),
		}
		a, err := NewASDU(p, id)
		require.NoError(t, err)
		require.NoError(t, a.AddObject(InformationObject{
			Address:  InfoObjAddr(7),
			Elements: [][]Element{{&SIQ{Value: true, Quality: QualityDescriptor{Invalid: true}}}},
		}))

		raw, err := a.MarshalBinary()
		require.NoError(t, err)

		decoded := NewEmptyASDU(p)
		require.NoError(t, decoded.UnmarshalBinary(raw))

		require.Equal(t, a.Identifier.Type, decoded.Identifier.Type)
		require.Equal(t, a.Identifier.Coa.Cause, decoded.Identifier.Coa.Cause)
		require.Equal(t, a.Identifier.CommonAddr, decoded.Identifier.CommonAddr)
		require.Len(t, decoded.InfoObjs, 1)
		require.Equal(t, InfoObjAddr(7), decoded.InfoObjs[0].Address)
		siq, ok := decoded.InfoObjs[0].Elements[0][0].(*SIQ)
		require.True(t, ok)
		require.True(t, siq.Value)
		require.True(t, siq.Quality.Invalid)
	}
}

// TestASDUPrivateTypePassthrough verifies an unrecognised (private-range)
// TypeID carries its payload through unmodified instead of being decoded
// against the standard element catalogue.
func TestASDUPrivateTypePassthrough(t *testing.T) {
	p := ParamsWide104
	a, err := NewASDU(p, Identifier{
		Type:       TypeID(200),
		Variable:   VariableStruct{Number: 0},
		Coa:        CauseOfTransmission{Cause: Spontaneous},
		CommonAddr: CommonAddr(1),
	})
	require.NoError(t, err)
	a.Private = []byte{0xDE, 0xAD, 0xBE, 0xEF}

	raw, err := a.MarshalBinary()
	require.NoError(t, err)

	decoded := NewEmptyASDU(p)
	require.NoError(t, decoded.UnmarshalBinary(raw))
	require.True(t, decoded.Identifier.Type.IsPrivate())
	require.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, decoded.Private)
	require.Empty(t, decoded.InfoObjs)
}

// TestASDUBroadcastRejectedForNonInterrogationType pins the broadcast
// common-address restriction: only C_IC_NA_1/C_CI_NA_1/C_CS_NA_1/C_RP_NA_1
// may carry GlobalCommonAddr.
func TestASDUBroadcastRejectedForNonInterrogationType(t *testing.T) {
	_, err := NewASDU(ParamsWide104, Identifier{
		Type:       M_SP_NA_1,
		Variable:   VariableStruct{Number: 1},
		Coa:        CauseOfTransmission{Cause: Spontaneous},
		CommonAddr: GlobalCommonAddr,
	})
	require.ErrorIs(t, err, ErrInvalidCommonAddr)

	_, err = NewASDU(ParamsWide104, Identifier{
		Type:       C_IC_NA_1,
		Variable:   VariableStruct{Number: 1},
		Coa:        CauseOfTransmission{Cause: Activation},
		CommonAddr: GlobalCommonAddr,
	})
	require.NoError(t, err)
}

// TestASDUUnknownTypeIDFails confirms a non-private TypeID with no
// element-set schema fails decoding with ErrUnknownTypeId rather than
// silently misreading the payload.
func TestASDUUnknownTypeIDFails(t *testing.T) {
	p := ParamsWide104
	raw := []byte{
		99,                        // TypeID, not in the standard catalogue, not private
		VariableStruct{Number: 1}.Value(),
		CauseOfTransmission{Cause: Spontaneous}.Value(),
		0, // originator address (CauseSize==2)
		1, 0, // common address
		1, 0, 0, // information object address (IOA size 3)
		0xAA, // one payload byte, contents irrelevant
	}
	decoded := NewEmptyASDU(p)
	err := decoded.UnmarshalBinary(raw)
	require.ErrorIs(t, err, ErrUnknownTypeId)
}
