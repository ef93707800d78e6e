// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package cs104

import "errors"

// error defined
var (
	ErrUseClosedConnection = errors.New("use of closed connection")
	ErrNotActive           = errors.New("connection is not in the STARTED state")
)

// CS104 specific errors, named after the taxonomy the connection state
// machine surfaces to onConnectionLost (all but ErrWindowExhausted are
// fatal to the connection).
var (
	ErrMalformedApdu    = errors.New("malformed apdu")
	ErrMalformedPayload = errors.New("malformed asdu payload")
	ErrUnknownTypeId    = errors.New("unknown type id")
	ErrFragmentTimeout  = errors.New("apdu fragment read timed out")
	ErrWindowExhausted  = errors.New("send window exhausted, caller timed out")
	ErrHandshakeTimeout = errors.New("startdt/stopdt/testfr confirmation timed out")
	ErrTransportClosed  = errors.New("transport closed")
)
