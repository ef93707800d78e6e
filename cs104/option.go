// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package cs104

import (
	"time"

	"github.com/iecgo/iec104/asdu"
)

// DefaultReconnectInterval is how long Client waits between failed dial
// attempts when auto-reconnect is enabled.
const DefaultReconnectInterval = 10 * time.Second

// DefaultDialTimeout bounds a single TCP connect attempt.
const DefaultDialTimeout = 5 * time.Second

// ClientOption configures a Client: the CS104 protocol settings, the
// ASDU field widths, and the reconnect policy.
type ClientOption struct {
	config            Config
	params            asdu.Params
	autoReconnect     bool
	reconnectInterval time.Duration
	dialTimeout       time.Duration
}

// NewOption returns a ClientOption with the default CS104 config and
// wide (2-2-3) ASDU parameters.
func NewOption() *ClientOption {
	return &ClientOption{
		config:            DefaultConfig(),
		params:            *asdu.ParamsWide104,
		autoReconnect:     true,
		reconnectInterval: DefaultReconnectInterval,
		dialTimeout:       DefaultDialTimeout,
	}
}

// SetConfig sets the CS104 protocol configuration. Falls back to
// DefaultConfig if cfg fails validation.
func (o *ClientOption) SetConfig(cfg Config) *ClientOption {
	if err := cfg.Valid(); err != nil {
		o.config = DefaultConfig()
	} else {
		o.config = cfg
	}
	return o
}

// SetParams sets the ASDU field-width parameters. Falls back to
// asdu.ParamsWide104 if p fails validation.
func (o *ClientOption) SetParams(p *asdu.Params) *ClientOption {
	if err := p.Valid(); err != nil {
		o.params = *asdu.ParamsWide104
	} else {
		o.params = *p
	}
	return o
}

// SetAutoReconnect enables or disables automatic redial after the
// connection is lost or a dial attempt fails.
func (o *ClientOption) SetAutoReconnect(b bool) *ClientOption {
	o.autoReconnect = b
	return o
}

// SetReconnectInterval sets the delay between redial attempts.
func (o *ClientOption) SetReconnectInterval(t time.Duration) *ClientOption {
	if t > 0 {
		o.reconnectInterval = t
	}
	return o
}

// SetDialTimeout bounds a single TCP connect attempt.
func (o *ClientOption) SetDialTimeout(t time.Duration) *ClientOption {
	if t > 0 {
		o.dialTimeout = t
	}
	return o
}
