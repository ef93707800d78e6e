// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package cs104

import "github.com/iecgo/iec104/asdu"

// ConnectionHandlerInterface is the callback surface an application
// implements to receive decoded ASDUs and connection-lost notices. Both
// methods may be called from the Connection's reader goroutine and may
// re-entrantly call Connection.Send/SendConfirmation.
type ConnectionHandlerInterface interface {
	// OnAsduReceived is invoked for every decoded I-frame ASDU.
	OnAsduReceived(c *Connection, a *asdu.ASDU) error
	// OnConnectionLost is invoked exactly once when the connection
	// reaches CLOSED for any reason other than a local Close() call.
	OnConnectionLost(c *Connection, err error)
}
