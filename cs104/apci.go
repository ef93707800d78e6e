// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package cs104

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// StartByte is the fixed first octet of every APDU.
const StartByte byte = 0x68

// apciKind distinguishes the three control-field formats.
type apciKind byte

const (
	kindI apciKind = iota
	kindS
	kindU
)

// U-format function bits (upper six bits of control byte 1). At most
// one may be set per frame.
const (
	uStartDtAct byte = 0x04
	uStartDtCon byte = 0x08
	uStopDtAct  byte = 0x10
	uStopDtCon  byte = 0x20
	uTestFrAct  byte = 0x40
	uTestFrCon  byte = 0x80
)

// controlField is the decoded 4-byte APCI control field.
type controlField struct {
	kind    apciKind
	sendSeq uint16 // valid for kindI
	recvSeq uint16 // valid for kindI, kindS
	uFunc   byte   // valid for kindU
}

func (cf controlField) encode() [4]byte {
	var b [4]byte
	switch cf.kind {
	case kindI:
		b[0] = byte(cf.sendSeq<<1) & 0xFE
		b[1] = byte(cf.sendSeq >> 7)
		b[2] = byte(cf.recvSeq<<1) & 0xFE
		b[3] = byte(cf.recvSeq >> 7)
	case kindS:
		b[0] = 0x01
		b[1] = 0x00
		b[2] = byte(cf.recvSeq<<1) & 0xFE
		b[3] = byte(cf.recvSeq >> 7)
	case kindU:
		b[0] = cf.uFunc | 0x03
	}
	return b
}

func parseControlField(b [4]byte) (controlField, error) {
	switch {
	case b[0]&0x01 == 0:
		return controlField{
			kind:    kindI,
			sendSeq: (uint16(b[0]) >> 1) | (uint16(b[1]) << 7),
			recvSeq: (uint16(b[2]) >> 1) | (uint16(b[3]) << 7),
		}, nil
	case b[0]&0x03 == 0x01:
		return controlField{
			kind:    kindS,
			recvSeq: (uint16(b[2]) >> 1) | (uint16(b[3]) << 7),
		}, nil
	case b[0]&0x03 == 0x03:
		uFunc := b[0] &^ 0x03
		if bitCount(uFunc) != 1 {
			return controlField{}, fmt.Errorf("%w: u-frame must set exactly one function bit, got 0x%02X", ErrMalformedApdu, uFunc)
		}
		return controlField{kind: kindU, uFunc: uFunc}, nil
	default:
		return controlField{}, fmt.Errorf("%w: unrecognised control field byte1=0x%02X", ErrMalformedApdu, b[0])
	}
}

func bitCount(b byte) int {
	n := 0
	for b != 0 {
		n += int(b & 1)
		b >>= 1
	}
	return n
}

// apdu is one framed message: its control field plus, for I-format
// only, the ASDU bytes that follow it.
type apdu struct {
	ctrl controlField
	asdu []byte
}

// minApduLen/maxApduLen bound the APCI length byte per §4.4: it counts
// the bytes following it (the 4-byte control field plus any ASDU).
const (
	minApduLen = 4
	maxApduLen = 253
)

// readAPDU reads one APDU from conn. The wait for the start byte is
// unbounded; once it has arrived, fragmentTimeout bounds the rest of
// the frame (length byte through the declared length). A deadline
// exceeded while part of the frame is outstanding fails with
// ErrFragmentTimeout; a bad start byte, bad length, or invalid U-frame
// control fails with ErrMalformedApdu.
func readAPDU(conn net.Conn, fragmentTimeout time.Duration) (*apdu, error) {
	var head [2]byte
	if _, err := io.ReadFull(conn, head[:1]); err != nil {
		return nil, mapReadErr(err)
	}
	if err := conn.SetReadDeadline(time.Now().Add(fragmentTimeout)); err != nil {
		return nil, err
	}
	defer conn.SetReadDeadline(time.Time{})

	if _, err := io.ReadFull(conn, head[1:]); err != nil {
		return nil, mapReadErr(err)
	}
	if head[0] != StartByte {
		return nil, fmt.Errorf("%w: expected start byte 0x%02X, got 0x%02X", ErrMalformedApdu, StartByte, head[0])
	}
	length := head[1]
	if length < minApduLen || length > maxApduLen {
		return nil, fmt.Errorf("%w: length byte %d out of range [%d,%d]", ErrMalformedApdu, length, minApduLen, maxApduLen)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(conn, body); err != nil {
		return nil, mapReadErr(err)
	}

	var ctrlBytes [4]byte
	copy(ctrlBytes[:], body[:4])
	ctrl, err := parseControlField(ctrlBytes)
	if err != nil {
		return nil, err
	}

	a := &apdu{ctrl: ctrl}
	if ctrl.kind == kindI {
		a.asdu = append([]byte(nil), body[4:]...)
	} else if len(body) != 4 {
		return nil, fmt.Errorf("%w: non-I frame must not carry a payload", ErrMalformedApdu)
	}
	return a, nil
}

func mapReadErr(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return fmt.Errorf("%w: %v", ErrFragmentTimeout, err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}
	return fmt.Errorf("%w: %v", ErrTransportClosed, err)
}

// writeAPDU marshals and writes one APDU. Writing is not expected to
// suspend on back-pressure: callers hold the connection's single
// critical section for the duration of the write, per the concurrency
// model, so this must stay a short, non-blocking-in-practice syscall.
func writeAPDU(conn net.Conn, a *apdu) error {
	ctrlBytes := a.ctrl.encode()
	length := 4 + len(a.asdu)
	if length > maxApduLen {
		return fmt.Errorf("%w: encoded apdu length %d exceeds %d", ErrMalformedApdu, length, maxApduLen)
	}
	buf := make([]byte, 2+length)
	buf[0] = StartByte
	buf[1] = byte(length)
	copy(buf[2:6], ctrlBytes[:])
	copy(buf[6:], a.asdu)
	_, err := conn.Write(buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}
	return nil
}

// seqDiff returns the signed 15-bit difference a-b, wrapping correctly
// so acknowledgement coverage can be decided with ordinary comparison:
// diff(a,b) is in [-2^14, 2^14).
func seqDiff(a, b uint16) int {
	const mod = 1 << 15
	d := (int(a) - int(b)) % mod
	if d >= mod/2 {
		d -= mod
	} else if d < -mod/2 {
		d += mod
	}
	return d
}

func incSeq(s uint16) uint16 {
	return (s + 1) & 0x7FFF
}
