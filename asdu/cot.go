// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package asdu

import "fmt"

// Cause is the 6-bit cause-of-transmission code, independent of the
// test and negative-confirm flags packed alongside it on the wire.
type Cause uint8

// Standard cause-of-transmission codes (IEC 60870-5-101 table 15).
const (
	Periodic             Cause = 1
	Background           Cause = 2
	Spontaneous          Cause = 3
	Initialized          Cause = 4
	Request              Cause = 5
	Activation           Cause = 6
	ActivationCon        Cause = 7
	Deactivation         Cause = 8
	DeactivationCon      Cause = 9
	ActivationTerm       Cause = 10
	ReturnInfoRemote     Cause = 11
	ReturnInfoLocal      Cause = 12
	FileTransfer         Cause = 13

	InterrogatedByStation Cause = 20
	InterrogatedByGroup1  Cause = 21
	InterrogatedByGroup16 Cause = 36

	RequestByGeneralCounter Cause = 37
	RequestByGroup1Counter  Cause = 38
	RequestByGroup4Counter  Cause = 41

	UnknownTypeIdCause      Cause = 44
	UnknownCauseCause       Cause = 45
	UnknownCommonAddrCause  Cause = 46
	UnknownInfoObjAddrCause Cause = 47
)

var causeNames = map[Cause]string{
	Periodic: "periodic", Background: "background", Spontaneous: "spontaneous",
	Initialized: "initialized", Request: "request", Activation: "activation",
	ActivationCon: "actcon", Deactivation: "deactivation", DeactivationCon: "deactcon",
	ActivationTerm: "actterm", ReturnInfoRemote: "return-info-remote",
	ReturnInfoLocal: "return-info-local", FileTransfer: "file-transfer",
	InterrogatedByStation: "interrogated-by-station",
}

func (c Cause) String() string {
	if name, ok := causeNames[c]; ok {
		return name
	}
	if c >= InterrogatedByGroup1 && c <= InterrogatedByGroup16 {
		return fmt.Sprintf("interrogated-by-group-%d", c-InterrogatedByGroup1+1)
	}
	if c >= RequestByGroup1Counter && c <= RequestByGroup4Counter {
		return fmt.Sprintf("counter-request-group-%d", c-RequestByGroup1Counter+1)
	}
	return fmt.Sprintf("cause(%d)", uint8(c))
}

// CauseOfTransmission is the full COT field: the cause code plus the
// test and negative-confirm bits packed with it on the wire (bit7=test,
// bit6=negative-confirm, bits5..0=cause).
type CauseOfTransmission struct {
	Cause           Cause
	Test            bool
	NegativeConfirm bool
}

// Value encodes the COT as a single byte.
func (c CauseOfTransmission) Value() byte {
	b := byte(c.Cause) & 0x3F
	if c.Test {
		b |= 0x80
	}
	if c.NegativeConfirm {
		b |= 0x40
	}
	return b
}

// ParseCauseOfTransmission decodes a single COT byte.
func ParseCauseOfTransmission(b byte) CauseOfTransmission {
	return CauseOfTransmission{
		Cause:           Cause(b & 0x3F),
		NegativeConfirm: b&0x40 != 0,
		Test:            b&0x80 != 0,
	}
}

func (c CauseOfTransmission) String() string {
	flags := ""
	if c.Test {
		flags += " test"
	}
	if c.NegativeConfirm {
		flags += " neg"
	}
	return fmt.Sprintf("%s%s", c.Cause, flags)
}
