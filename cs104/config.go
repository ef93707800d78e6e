// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package cs104

import (
	"errors"
	"time"
)

// Default values and ranges for CS104 connection settings, named after
// the standard's t1/t2/t3/k/w parameters.
const (
	DefaultMaxTimeNoAckReceived = 15 * time.Second // t1
	MaxTimeNoAckReceivedMin     = 1 * time.Second
	MaxTimeNoAckReceivedMax     = 255 * time.Second

	DefaultMaxTimeNoAckSent = 10 * time.Second // t2, must be < t1
	MaxTimeNoAckSentMin     = 1 * time.Second
	MaxTimeNoAckSentMax     = 255 * time.Second

	DefaultMaxIdleTime = 20 * time.Second // t3
	MaxIdleTimeMin      = 1 * time.Second
	MaxIdleTimeMax      = 172800 * time.Second

	DefaultMessageFragmentTimeout = 5 * time.Second

	DefaultMaxNumOfOutstandingIPdus   = 12 // k
	MaxNumOfOutstandingIPdusMin       = 1
	MaxNumOfOutstandingIPdusMax       = 32767

	DefaultMaxUnconfirmedIPdusReceived = 8 // w
	MaxUnconfirmedIPdusReceivedMin     = 1
	MaxUnconfirmedIPdusReceivedMax     = 32767

	// DefaultMaxAPDULength is the standard's APCI length-byte ceiling
	// (253 octets after the length byte, counting the 4-byte control
	// field).
	DefaultMaxAPDULength = 253
)

// Config is the immutable-once-in-use CS104 connection configuration:
// the timers, window, and ASDU field-width settings a Connection uses
// for the lifetime of one TCP session.
type Config struct {
	// CommonAddrSize, CauseSize, InfoObjAddrSize mirror asdu.Params and
	// are defaulted and range-checked by Valid. Connection does not read
	// them: the field widths it encodes and decodes with come from the
	// *asdu.Params passed alongside the Config.
	CommonAddrSize  byte
	CauseSize       byte
	InfoObjAddrSize byte

	// MessageFragmentTimeout bounds how long a partial APDU read may
	// stall before failing with ErrFragmentTimeout.
	MessageFragmentTimeout time.Duration

	// MaxTimeNoAckReceived is t1: the deadline for STARTDT/STOPDT/TESTFR
	// confirmation and for acknowledgement of any outstanding I-frame.
	MaxTimeNoAckReceived time.Duration
	// MaxTimeNoAckSent is t2: the delayed-ack timer armed on the first
	// unacknowledged received I-frame. Must be less than t1.
	MaxTimeNoAckSent time.Duration
	// MaxIdleTime is t3: the idle-test timer, re-armed on every inbound
	// frame; on expiry a TESTFR_ACT is sent.
	MaxIdleTime time.Duration

	// MaxNumOfOutstandingIPdus is k: the outbound window.
	MaxNumOfOutstandingIPdus int
	// MaxUnconfirmedIPdusReceived is w: the inbound threshold that
	// forces an S-frame even before t2 fires.
	MaxUnconfirmedIPdusReceived int

	// MaxAPDULength bounds the APCI length byte on send.
	MaxAPDULength int
}

// Valid applies defaults to zero fields and range-checks the rest,
// following cs101.Config.Valid()'s default-then-validate shape.
func (c *Config) Valid() error {
	if c == nil {
		return errors.New("invalid nil config")
	}

	if c.CommonAddrSize == 0 {
		c.CommonAddrSize = 2
	} else if c.CommonAddrSize != 1 && c.CommonAddrSize != 2 {
		return errors.New("invalid common address size, must be 1 or 2")
	}
	if c.CauseSize == 0 {
		c.CauseSize = 2
	} else if c.CauseSize != 1 && c.CauseSize != 2 {
		return errors.New("invalid cause of transmission size, must be 1 or 2")
	}
	if c.InfoObjAddrSize == 0 {
		c.InfoObjAddrSize = 3
	} else if c.InfoObjAddrSize != 1 && c.InfoObjAddrSize != 2 && c.InfoObjAddrSize != 3 {
		return errors.New("invalid information object address size, must be 1, 2 or 3")
	}

	if c.MessageFragmentTimeout == 0 {
		c.MessageFragmentTimeout = DefaultMessageFragmentTimeout
	}

	if c.MaxTimeNoAckReceived == 0 {
		c.MaxTimeNoAckReceived = DefaultMaxTimeNoAckReceived
	} else if c.MaxTimeNoAckReceived < MaxTimeNoAckReceivedMin || c.MaxTimeNoAckReceived > MaxTimeNoAckReceivedMax {
		return errors.New("t1 out of range [1, 255]s")
	}
	if c.MaxTimeNoAckSent == 0 {
		c.MaxTimeNoAckSent = DefaultMaxTimeNoAckSent
	} else if c.MaxTimeNoAckSent < MaxTimeNoAckSentMin || c.MaxTimeNoAckSent > MaxTimeNoAckSentMax {
		return errors.New("t2 out of range [1, 255]s")
	}
	if c.MaxTimeNoAckSent >= c.MaxTimeNoAckReceived {
		return errors.New("t2 must be less than t1")
	}
	if c.MaxIdleTime == 0 {
		c.MaxIdleTime = DefaultMaxIdleTime
	} else if c.MaxIdleTime < MaxIdleTimeMin || c.MaxIdleTime > MaxIdleTimeMax {
		return errors.New("t3 out of range [1s, 48h]")
	}

	if c.MaxNumOfOutstandingIPdus == 0 {
		c.MaxNumOfOutstandingIPdus = DefaultMaxNumOfOutstandingIPdus
	} else if c.MaxNumOfOutstandingIPdus < MaxNumOfOutstandingIPdusMin || c.MaxNumOfOutstandingIPdus > MaxNumOfOutstandingIPdusMax {
		return errors.New("k out of range")
	}
	if c.MaxUnconfirmedIPdusReceived == 0 {
		c.MaxUnconfirmedIPdusReceived = DefaultMaxUnconfirmedIPdusReceived
	} else if c.MaxUnconfirmedIPdusReceived < MaxUnconfirmedIPdusReceivedMin || c.MaxUnconfirmedIPdusReceived > MaxUnconfirmedIPdusReceivedMax {
		return errors.New("w out of range")
	}

	if c.MaxAPDULength == 0 {
		c.MaxAPDULength = DefaultMaxAPDULength
	} else if c.MaxAPDULength < 4 || c.MaxAPDULength > 253 {
		return errors.New("max APDU length out of range [4, 253]")
	}

	return nil
}

// DefaultConfig returns the standard's conventional t1/t2/t3/k/w values
// with wide (104-style) ASDU field widths.
func DefaultConfig() Config {
	return Config{
		CommonAddrSize:              2,
		CauseSize:                   2,
		InfoObjAddrSize:             3,
		MessageFragmentTimeout:      DefaultMessageFragmentTimeout,
		MaxTimeNoAckReceived:        DefaultMaxTimeNoAckReceived,
		MaxTimeNoAckSent:            DefaultMaxTimeNoAckSent,
		MaxIdleTime:                 DefaultMaxIdleTime,
		MaxNumOfOutstandingIPdus:    DefaultMaxNumOfOutstandingIPdus,
		MaxUnconfirmedIPdusReceived: DefaultMaxUnconfirmedIPdusReceived,
		MaxAPDULength:               DefaultMaxAPDULength,
	}
}
