// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package asdu implements the IEC 60870-5-104 Application Service Data
// Unit catalogue: the information-element variants, the information
// object address/element-set pairing, and the ASDU header that frames
// them (or, for private TypeIDs, an opaque byte string).
package asdu

import (
	"fmt"
	"strings"
)

// ASDUSizeMax is the largest encoded ASDU that fits in one I-frame: the
// APCI length byte tops out at 253 (octets after the length byte,
// counting the 4-byte control field), so the ASDU itself is capped at
// 249 bytes.
const ASDUSizeMax = 249

// ASDU is an Application Service Data Unit: a typed header plus either
// a catalogue of InformationObjects (standard TypeID) or an opaque
// private payload (TypeID in [128,255]).
type ASDU struct {
	Params     *Params
	Identifier Identifier
	InfoObjs   []InformationObject
	Private    []byte
}

// NewEmptyASDU returns an ASDU ready to be populated by UnmarshalBinary
// or by direct field assignment, using params for field-width decisions.
func NewEmptyASDU(params *Params) *ASDU {
	return &ASDU{Params: params}
}

// NewASDU constructs an ASDU with the given identifier, validating the
// common address against the broadcast restriction.
func NewASDU(params *Params, id Identifier) (*ASDU, error) {
	if id.CommonAddr == GlobalCommonAddr && !allowsBroadcast(id.Type) {
		return nil, fmt.Errorf("%w: type %s cannot use the broadcast common address", ErrInvalidCommonAddr, id.Type)
	}
	return &ASDU{Params: params, Identifier: id}, nil
}

// AddObject appends a standard-payload InformationObject. It is an
// error to call this on an ASDU whose TypeID is private.
func (a *ASDU) AddObject(o InformationObject) error {
	if a.Identifier.Type.IsPrivate() {
		return fmt.Errorf("%w: cannot attach typed objects to a private ASDU", ErrMalformedPayload)
	}
	a.InfoObjs = append(a.InfoObjs, o)
	return nil
}

// MarshalBinary encodes the full ASDU: header then payload.
func (a *ASDU) MarshalBinary() ([]byte, error) {
	if a.Params == nil {
		return nil, fmt.Errorf("%w: asdu has no params", ErrMalformedPayload)
	}
	header, err := a.encodeHeader()
	if err != nil {
		return nil, err
	}
	var payload []byte
	if a.Identifier.Type.IsPrivate() {
		payload = a.Private
	} else {
		payload, err = a.encodeObjects()
		if err != nil {
			return nil, err
		}
	}
	raw := append(header, payload...)
	if len(raw) > ASDUSizeMax {
		return nil, fmt.Errorf("%w: asdu of %d bytes exceeds maximum %d", ErrMalformedPayload, len(raw), ASDUSizeMax)
	}
	return raw, nil
}

func (a *ASDU) encodeHeader() ([]byte, error) {
	p := a.Params
	id := a.Identifier
	buf := make([]byte, 0, p.IdentifierSize())
	buf = append(buf, byte(id.Type))
	buf = append(buf, id.Variable.Value())
	buf = append(buf, id.Coa.Value())
	if p.CauseSize == 2 {
		buf = append(buf, id.OrigAddr)
	}
	ca := id.CommonAddr
	if ca == GlobalCommonAddr {
		ca = p.globalCommonAddr()
	}
	if p.CommonAddrSize == 1 {
		buf = append(buf, byte(ca))
	} else {
		buf = append(buf, byte(ca), byte(ca>>8))
	}
	return buf, nil
}

func (a *ASDU) encodeObjects() ([]byte, error) {
	var buf []byte
	if a.Identifier.Variable.IsSequence {
		if len(a.InfoObjs) != 1 {
			return nil, fmt.Errorf("%w: sequence-of-elements asdu must carry exactly one information object", ErrMalformedPayload)
		}
		o := a.InfoObjs[0]
		if len(o.Elements) != int(a.Identifier.Variable.Number) {
			return nil, fmt.Errorf("%w: vsq declares %d sets, object has %d", ErrMalformedPayload, a.Identifier.Variable.Number, len(o.Elements))
		}
		buf = append(buf, encodeInfoObjAddr(o.Address, a.Params.InfoObjAddrSize)...)
		for _, set := range o.Elements {
			buf = append(buf, encodeSet(set)...)
		}
		return buf, nil
	}

	if len(a.InfoObjs) != int(a.Identifier.Variable.Number) {
		return nil, fmt.Errorf("%w: vsq declares %d objects, asdu has %d", ErrMalformedPayload, a.Identifier.Variable.Number, len(a.InfoObjs))
	}
	for _, o := range a.InfoObjs {
		if len(o.Elements) != 1 {
			return nil, fmt.Errorf("%w: non-sequence object must carry exactly one element set", ErrMalformedPayload)
		}
		buf = append(buf, encodeInfoObjAddr(o.Address, a.Params.InfoObjAddrSize)...)
		buf = append(buf, encodeSet(o.Elements[0])...)
	}
	return buf, nil
}

// UnmarshalBinary decodes a raw ASDU (as carried by an I-frame) using
// a.Params for field widths. An unknown standard TypeID fails with
// ErrUnknownTypeId; a truncated or schema-mismatched payload fails with
// ErrMalformedPayload.
func (a *ASDU) UnmarshalBinary(data []byte) error {
	if a.Params == nil {
		return fmt.Errorf("%w: asdu has no params", ErrMalformedPayload)
	}
	p := a.Params
	headerSize := p.IdentifierSize()
	if err := requireWidth(data, headerSize); err != nil {
		return err
	}

	id := Identifier{
		Type:     TypeID(data[0]),
		Variable: ParseVariableStruct(data[1]),
		Coa:      ParseCauseOfTransmission(data[2]),
	}
	offset := 3
	if p.CauseSize == 2 {
		id.OrigAddr = data[offset]
		offset++
	}
	var ca uint16
	if p.CommonAddrSize == 1 {
		ca = uint16(data[offset])
		offset++
	} else {
		ca = uint16(data[offset]) | uint16(data[offset+1])<<8
		offset += 2
	}
	if ca == uint16(p.globalCommonAddr()) {
		id.CommonAddr = GlobalCommonAddr
	} else {
		id.CommonAddr = CommonAddr(ca)
	}
	if offset != headerSize {
		return fmt.Errorf("%w: header offset mismatch", ErrMalformedPayload)
	}

	a.Identifier = id
	rest := data[headerSize:]

	if id.Type.IsPrivate() {
		// The private-information length is whatever remains after the
		// header, not a hardcoded constant: earlier revisions of this
		// decode (and the Java original it traces to) special-cased
		// aSduLength-4 and silently mis-sized payloads whenever
		// cotFieldLength or commonAddressFieldLength deviated from the
		// narrowest grid point.
		a.Private = append([]byte(nil), rest...)
		a.InfoObjs = nil
		return nil
	}

	return a.decodeObjects(rest)
}

func (a *ASDU) decodeObjects(data []byte) error {
	id := a.Identifier
	if id.Variable.IsSequence {
		addr, err := decodeInfoObjAddr(data, a.Params.InfoObjAddrSize)
		if err != nil {
			return err
		}
		offset := int(a.Params.InfoObjAddrSize)
		sets := make([][]Element, 0, id.Variable.Number)
		for i := 0; i < int(id.Variable.Number); i++ {
			set, err := buildElementSet(id.Type, a.Params)
			if err != nil {
				return err
			}
			n, err := decodeSet(set, data[offset:])
			if err != nil {
				return err
			}
			offset += n
			sets = append(sets, set)
		}
		a.InfoObjs = []InformationObject{{Address: addr, Elements: sets}}
		return nil
	}

	objs := make([]InformationObject, 0, id.Variable.Number)
	offset := 0
	for i := 0; i < int(id.Variable.Number); i++ {
		addr, err := decodeInfoObjAddr(data[offset:], a.Params.InfoObjAddrSize)
		if err != nil {
			return err
		}
		offset += int(a.Params.InfoObjAddrSize)
		set, err := buildElementSet(id.Type, a.Params)
		if err != nil {
			return err
		}
		n, err := decodeSet(set, data[offset:])
		if err != nil {
			return err
		}
		offset += n
		objs = append(objs, InformationObject{Address: addr, Elements: [][]Element{set}})
	}
	a.InfoObjs = objs
	return nil
}

// String renders the ASDU header followed by one line per information
// object, or a hex dump of the private payload.
func (a *ASDU) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ASDU<%s>", a.Identifier)
	if a.Identifier.Type.IsPrivate() {
		fmt.Fprintf(&sb, " private=[% X]", a.Private)
		return sb.String()
	}
	for _, o := range a.InfoObjs {
		fmt.Fprintf(&sb, "\n  %s", &o)
	}
	return sb.String()
}
