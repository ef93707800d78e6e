// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package asdu

import (
	"fmt"
	"strings"
	"time"
)

// InformationObject is an address paired with one or more element sets.
// When the owning ASDU's VSQ marks isSequenceOfElements, there is
// exactly one InformationObject and Elements holds sequenceLength sets
// starting at consecutive addresses from Address; otherwise each
// InformationObject in the ASDU carries exactly one set and Address is
// its own.
type InformationObject struct {
	Address  InfoObjAddr
	Elements [][]Element
}

func (o *InformationObject) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "IOA=%d", o.Address)
	for _, set := range o.Elements {
		for _, e := range set {
			fmt.Fprintf(&sb, " %s", e)
		}
	}
	return sb.String()
}

// elementSetFactory returns fresh, zeroed Elements for one element set
// of the given TypeID, in wire order, excluding the trailing time tag
// (appended separately based on TypeID.hasTimeTag). An unknown standard
// TypeID reports ok=false.
func elementSetFactory(id TypeID) (factories []func() Element, ok bool) {
	switch id {
	case M_SP_NA_1, M_SP_TA_1, M_SP_TB_1:
		return []func() Element{func() Element { return &SIQ{} }}, true
	case M_DP_NA_1, M_DP_TA_1, M_DP_TB_1:
		return []func() Element{func() Element { return &DIQ{} }}, true
	case M_ST_NA_1, M_ST_TA_1, M_ST_TB_1:
		return []func() Element{
			func() Element { return &VTI{} },
			func() Element { return &QualityDescriptorElement{} },
		}, true
	case M_BO_NA_1, M_BO_TA_1, M_BO_TB_1:
		return []func() Element{
			func() Element { return &BSI32{} },
			func() Element { return &QualityDescriptorElement{} },
		}, true
	case M_ME_NA_1, M_ME_TA_1, M_ME_TD_1:
		return []func() Element{
			func() Element { return &NVA{} },
			func() Element { return &QualityDescriptorElement{} },
		}, true
	case M_ME_NB_1, M_ME_TB_1, M_ME_TE_1:
		return []func() Element{
			func() Element { return &SVA{} },
			func() Element { return &QualityDescriptorElement{} },
		}, true
	case M_ME_NC_1, M_ME_TC_1, M_ME_TF_1:
		return []func() Element{
			func() Element { return &Float32{} },
			func() Element { return &QualityDescriptorElement{} },
		}, true
	case M_IT_NA_1, M_IT_TA_1, M_IT_TB_1:
		return []func() Element{func() Element { return &BCR{} }}, true
	case M_EI_NA_1:
		return []func() Element{func() Element { return &EndOfInitQualifier{} }}, true

	case C_SC_NA_1, C_SC_TA_1:
		return []func() Element{func() Element { return &SingleCommand{} }}, true
	case C_DC_NA_1, C_DC_TA_1:
		return []func() Element{func() Element { return &DoubleCommand{} }}, true
	case C_RC_NA_1, C_RC_TA_1:
		return []func() Element{func() Element { return &DoubleCommand{} }}, true
	case C_SE_NA_1, C_SE_TA_1:
		return []func() Element{
			func() Element { return &NVA{} },
			func() Element { return &QOS{} },
		}, true
	case C_SE_NB_1, C_SE_TB_1:
		return []func() Element{
			func() Element { return &SVA{} },
			func() Element { return &QOS{} },
		}, true
	case C_SE_NC_1, C_SE_TC_1:
		return []func() Element{
			func() Element { return &Float32{} },
			func() Element { return &QOS{} },
		}, true
	case C_BO_NA_1, C_BO_TA_1:
		return []func() Element{func() Element { return &BSI32{} }}, true

	case C_IC_NA_1:
		return []func() Element{func() Element { return &QualifierOfInterrogation{} }}, true
	case C_CI_NA_1:
		return []func() Element{func() Element { return &QualifierCountCall{} }}, true
	case C_RD_NA_1:
		return []func() Element{}, true
	case C_CS_NA_1:
		return []func() Element{}, true // CP56Time2a only, appended by hasTimeTag
	case C_TS_NA_1, C_TS_TA_1:
		return []func() Element{func() Element { return newRawBytes(2) }}, true
	case C_RP_NA_1:
		return []func() Element{func() Element { return &QualifierOfResetProcessCmd{} }}, true
	case C_CD_NA_1:
		return []func() Element{func() Element { return newRawBytes(CP16Time2aLen) }}, true

	default:
		return nil, false
	}
}

// QualityDescriptorElement adapts the bare QualityDescriptor into the
// Element interface for use as a schema slot.
type QualityDescriptorElement struct {
	QualityDescriptor
}

func (e *QualityDescriptorElement) Width() int { return 1 }
func (e *QualityDescriptorElement) Decode(data []byte) error {
	if err := requireWidth(data, 1); err != nil {
		return err
	}
	e.QualityDescriptor = decodeQuality(data[0])
	return nil
}
func (e *QualityDescriptorElement) Encode() []byte { return []byte{e.QualityDescriptor.encode()} }

// buildElementSet instantiates one zeroed element set for id, including
// a trailing time tag element when the type carries one.
func buildElementSet(id TypeID, params *Params) ([]Element, error) {
	factories, ok := elementSetFactory(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTypeId, id)
	}
	set := make([]Element, 0, len(factories)+1)
	for _, f := range factories {
		set = append(set, f())
	}
	if id.hasTimeTag() {
		loc := params.InfoObjTimeZone
		if loc == nil {
			loc = time.UTC
		}
		set = append(set, &timeTag{cp56: !id.usesCP24(), loc: loc})
	}
	return set, nil
}

func setWidth(set []Element) int {
	n := 0
	for _, e := range set {
		n += e.Width()
	}
	return n
}

func encodeSet(set []Element) []byte {
	buf := make([]byte, 0, setWidth(set))
	for _, e := range set {
		buf = append(buf, e.Encode()...)
	}
	return buf
}

func decodeSet(set []Element, data []byte) (int, error) {
	offset := 0
	for _, e := range set {
		w := e.Width()
		if err := requireWidth(data[offset:], w); err != nil {
			return 0, err
		}
		if err := e.Decode(data[offset : offset+w]); err != nil {
			return 0, err
		}
		offset += w
	}
	return offset, nil
}
