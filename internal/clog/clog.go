// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Package clog provides the small leveled logger embedded by the
// connection, client, and server types.
package clog

import (
	"log"
	"os"
	"sync/atomic"
)

// Clog is embedded by types that need leveled, toggleable logging. The
// zero value logs to stderr under a default prefix but is disabled until
// LogMode(true) is called.
type Clog struct {
	logger  *log.Logger
	enabled atomic.Bool
}

// NewLogger returns a Clog that prefixes every line with prefix.
func NewLogger(prefix string) Clog {
	return Clog{
		logger: log.New(os.Stderr, prefix, log.LstdFlags|log.Lmicroseconds),
	}
}

// LogMode enables or disables all logging output.
func (c *Clog) LogMode(enable bool) {
	c.enabled.Store(enable)
}

func (c *Clog) logf(level string, format string, v ...any) {
	if !c.enabled.Load() {
		return
	}
	logger := c.logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf(level+" "+format, v...)
}

// Debug logs a low-severity diagnostic message.
func (c *Clog) Debug(format string, v ...any) { c.logf("[D]", format, v...) }

// Warn logs a recoverable anomaly.
func (c *Clog) Warn(format string, v ...any) { c.logf("[W]", format, v...) }

// Error logs an error that ends the current connection attempt.
func (c *Clog) Error(format string, v ...any) { c.logf("[E]", format, v...) }

// Critical logs an unexpected failure, such as a recovered panic.
func (c *Clog) Critical(format string, v ...any) { c.logf("[C]", format, v...) }
