// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package asdu

import "time"

// CommonAddr is the station/sector common address. GlobalCommonAddr is
// the broadcast sentinel, valid only with interrogation, counter
// interrogation, clock-synchronisation, and reset-process TypeIDs.
type CommonAddr uint16

// GlobalCommonAddr is the broadcast common address: 255 when
// CommonAddrSize==1, 65535 when CommonAddrSize==2.
const GlobalCommonAddr CommonAddr = 0xFFFF

// InfoObjAddr is the information object address, 1..2^24-1.
type InfoObjAddr uint32

// Params is the immutable field-width configuration a connection uses
// to encode and decode every ASDU it exchanges. It corresponds to
// spec's ConnectionSettings cotFieldLength/commonAddressFieldLength/
// ioaFieldLength grid, plus the originator address and time-zone
// parameters the wire format also carries.
type Params struct {
	// CauseSize is the width of the cause-of-transmission field: 1 or 2
	// octets. When 2, the second octet is the originator address.
	CauseSize byte
	// CommonAddrSize is the width of the common address field: 1 or 2.
	CommonAddrSize byte
	// InfoObjAddrSize is the width of the information object address
	// field: 1, 2, or 3.
	InfoObjAddrSize byte
	// OrigAddress is this station's originator address. The ASDU encoder
	// does not read it: the second COT octet (when CauseSize==2) carries
	// Identifier.OrigAddr.
	OrigAddress byte
	// InfoObjTimeZone is used when encoding CP24Time2a/CP56Time2a
	// elements from a time.Time. nil means UTC.
	InfoObjTimeZone *time.Location
}

// ParamsWide104 is the conventional IEC 60870-5-104 parameter set: 2
// byte cause, 2 byte common address, 3 byte information object address.
var ParamsWide104 = &Params{
	CauseSize:       2,
	CommonAddrSize:  2,
	InfoObjAddrSize: 3,
}

// ParamsNarrow104 matches devices that keep the 101-style single-octet
// cause field over a TCP transport.
var ParamsNarrow104 = &Params{
	CauseSize:       1,
	CommonAddrSize:  2,
	InfoObjAddrSize: 3,
}

// Valid defaults zero fields to ParamsWide104's values and range-checks
// the rest, the way cs101.Config.Valid() defaults its address sizes.
func (p *Params) Valid() error {
	if p == nil {
		return ErrInvalidParams
	}
	if p.CauseSize == 0 {
		p.CauseSize = ParamsWide104.CauseSize
	} else if p.CauseSize != 1 && p.CauseSize != 2 {
		return ErrInvalidParams
	}
	if p.CommonAddrSize == 0 {
		p.CommonAddrSize = ParamsWide104.CommonAddrSize
	} else if p.CommonAddrSize != 1 && p.CommonAddrSize != 2 {
		return ErrInvalidParams
	}
	if p.InfoObjAddrSize == 0 {
		p.InfoObjAddrSize = ParamsWide104.InfoObjAddrSize
	} else if p.InfoObjAddrSize != 1 && p.InfoObjAddrSize != 2 && p.InfoObjAddrSize != 3 {
		return ErrInvalidParams
	}
	return nil
}

// IdentifierSize returns the byte length of the ASDU header (TypeID +
// VSQ + COT + [originator] + common address) for these params.
func (p *Params) IdentifierSize() int {
	return 2 + int(p.CauseSize) + int(p.CommonAddrSize)
}

// globalCommonAddr returns the wire sentinel for broadcast, sized to
// CommonAddrSize.
func (p *Params) globalCommonAddr() CommonAddr {
	if p.CommonAddrSize == 1 {
		return 0xFF
	}
	return 0xFFFF
}

// allowsBroadcast reports whether id may carry the broadcast common
// address, per the corpus's documented restriction to station-wide
// interrogation, counter interrogation, clock synchronisation, and
// reset process.
func allowsBroadcast(id TypeID) bool {
	switch id {
	case C_IC_NA_1, C_CI_NA_1, C_CS_NA_1, C_RP_NA_1:
		return true
	default:
		return false
	}
}
