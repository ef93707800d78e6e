// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package asdu

import "errors"

// Payload-level error taxonomy. ErrMalformedPayload and ErrUnknownTypeId
// are fatal to the owning connection; cs104 passes them unchanged to
// OnConnectionLost.
var (
	// ErrMalformedPayload is returned when a TypeId's schema disagrees
	// with the bytes available, or an information object is truncated.
	ErrMalformedPayload = errors.New("asdu: malformed payload")
	// ErrUnknownTypeId is returned for a standard-range TypeId ([1,127])
	// that is not present in the catalogue.
	ErrUnknownTypeId = errors.New("asdu: unknown type id")
	// ErrInvalidParams is returned by Params.Valid for field sizes the
	// standard does not permit.
	ErrInvalidParams = errors.New("asdu: invalid params")
	// ErrInvalidCommonAddr is returned when a broadcast common address
	// is used with a TypeID that does not permit it.
	ErrInvalidCommonAddr = errors.New("asdu: invalid common address for type")
)
