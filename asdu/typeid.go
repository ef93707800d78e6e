// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package asdu

import "fmt"

// TypeID identifies the structural schema of an ASDU's information
// objects. Standard values occupy [1,127]; [128,255] are reserved for
// private use and carry opaque payload instead of typed objects.
type TypeID uint8

// Standard TypeIDs, named per IEC 60870-5-101/104 section 7.2.1.
const (
	_ TypeID = iota // 0 is not assigned

	M_SP_NA_1 TypeID = 1  // single-point information
	M_SP_TA_1 TypeID = 2  // single-point information with time tag
	M_DP_NA_1 TypeID = 3  // double-point information
	M_DP_TA_1 TypeID = 4  // double-point information with time tag
	M_ST_NA_1 TypeID = 5  // step position information
	M_ST_TA_1 TypeID = 6  // step position information with time tag
	M_BO_NA_1 TypeID = 7  // bitstring of 32 bit
	M_BO_TA_1 TypeID = 8  // bitstring of 32 bit with time tag
	M_ME_NA_1 TypeID = 9  // measured value, normalised value
	M_ME_TA_1 TypeID = 10 // measured value, normalised value with time tag
	M_ME_NB_1 TypeID = 11 // measured value, scaled value
	M_ME_TB_1 TypeID = 12 // measured value, scaled value with time tag
	M_ME_NC_1 TypeID = 13 // measured value, short floating point
	M_ME_TC_1 TypeID = 14 // measured value, short floating point with time tag
	M_IT_NA_1 TypeID = 15 // integrated totals
	M_IT_TA_1 TypeID = 16 // integrated totals with time tag

	M_SP_TB_1 TypeID = 30 // single-point information with CP56Time2a
	M_DP_TB_1 TypeID = 31 // double-point information with CP56Time2a
	M_ST_TB_1 TypeID = 32 // step position information with CP56Time2a
	M_BO_TB_1 TypeID = 33 // bitstring of 32 bit with CP56Time2a
	M_ME_TD_1 TypeID = 34 // measured value, normalised value with CP56Time2a
	M_ME_TE_1 TypeID = 35 // measured value, scaled value with CP56Time2a
	M_ME_TF_1 TypeID = 36 // measured value, short floating point with CP56Time2a
	M_IT_TB_1 TypeID = 37 // integrated totals with CP56Time2a

	M_EI_NA_1 TypeID = 70 // end of initialisation

	C_SC_NA_1 TypeID = 45 // single command
	C_DC_NA_1 TypeID = 46 // double command
	C_RC_NA_1 TypeID = 47 // regulating step command
	C_SE_NA_1 TypeID = 48 // set point command, normalised value
	C_SE_NB_1 TypeID = 49 // set point command, scaled value
	C_SE_NC_1 TypeID = 50 // set point command, short floating point
	C_BO_NA_1 TypeID = 51 // bitstring of 32 bit command

	C_SC_TA_1 TypeID = 58 // single command with CP56Time2a
	C_DC_TA_1 TypeID = 59 // double command with CP56Time2a
	C_RC_TA_1 TypeID = 60 // regulating step command with CP56Time2a
	C_SE_TA_1 TypeID = 61 // set point command, normalised value with CP56Time2a
	C_SE_TB_1 TypeID = 62 // set point command, scaled value with CP56Time2a
	C_SE_TC_1 TypeID = 63 // set point command, short floating point with CP56Time2a
	C_BO_TA_1 TypeID = 64 // bitstring of 32 bit command with CP56Time2a

	C_IC_NA_1 TypeID = 100 // interrogation command
	C_CI_NA_1 TypeID = 101 // counter interrogation command
	C_RD_NA_1 TypeID = 102 // read command
	C_CS_NA_1 TypeID = 103 // clock synchronisation command
	C_TS_NA_1 TypeID = 104 // test command
	C_RP_NA_1 TypeID = 105 // reset process command
	C_CD_NA_1 TypeID = 106 // delay acquisition command
	C_TS_TA_1 TypeID = 107 // test command with CP56Time2a
)

// PrivateRangeStart marks the first TypeID reserved for private use;
// ASDUs in [PrivateRangeStart,255] carry opaque bytes instead of a
// typed InformationObject catalogue entry.
const PrivateRangeStart TypeID = 128

// IsPrivate reports whether id falls in the private-use range.
func (id TypeID) IsPrivate() bool { return id >= PrivateRangeStart }

var typeIDNames = map[TypeID]string{
	M_SP_NA_1: "M_SP_NA_1", M_SP_TA_1: "M_SP_TA_1", M_DP_NA_1: "M_DP_NA_1",
	M_DP_TA_1: "M_DP_TA_1", M_ST_NA_1: "M_ST_NA_1", M_ST_TA_1: "M_ST_TA_1",
	M_BO_NA_1: "M_BO_NA_1", M_BO_TA_1: "M_BO_TA_1", M_ME_NA_1: "M_ME_NA_1",
	M_ME_TA_1: "M_ME_TA_1", M_ME_NB_1: "M_ME_NB_1", M_ME_TB_1: "M_ME_TB_1",
	M_ME_NC_1: "M_ME_NC_1", M_ME_TC_1: "M_ME_TC_1", M_IT_NA_1: "M_IT_NA_1",
	M_IT_TA_1: "M_IT_TA_1", M_SP_TB_1: "M_SP_TB_1", M_DP_TB_1: "M_DP_TB_1",
	M_ST_TB_1: "M_ST_TB_1", M_BO_TB_1: "M_BO_TB_1", M_ME_TD_1: "M_ME_TD_1",
	M_ME_TE_1: "M_ME_TE_1", M_ME_TF_1: "M_ME_TF_1", M_IT_TB_1: "M_IT_TB_1",
	M_EI_NA_1: "M_EI_NA_1", C_SC_NA_1: "C_SC_NA_1", C_DC_NA_1: "C_DC_NA_1",
	C_RC_NA_1: "C_RC_NA_1", C_SE_NA_1: "C_SE_NA_1", C_SE_NB_1: "C_SE_NB_1",
	C_SE_NC_1: "C_SE_NC_1", C_BO_NA_1: "C_BO_NA_1", C_SC_TA_1: "C_SC_TA_1",
	C_DC_TA_1: "C_DC_TA_1", C_RC_TA_1: "C_RC_TA_1", C_SE_TA_1: "C_SE_TA_1",
	C_SE_TB_1: "C_SE_TB_1", C_SE_TC_1: "C_SE_TC_1", C_BO_TA_1: "C_BO_TA_1",
	C_IC_NA_1: "C_IC_NA_1", C_CI_NA_1: "C_CI_NA_1", C_RD_NA_1: "C_RD_NA_1",
	C_CS_NA_1: "C_CS_NA_1", C_TS_NA_1: "C_TS_NA_1", C_RP_NA_1: "C_RP_NA_1",
	C_CD_NA_1: "C_CD_NA_1", C_TS_TA_1: "C_TS_TA_1",
}

func (id TypeID) String() string {
	if name, ok := typeIDNames[id]; ok {
		return name
	}
	if id.IsPrivate() {
		return fmt.Sprintf("private(%d)", uint8(id))
	}
	return fmt.Sprintf("unknown(%d)", uint8(id))
}

