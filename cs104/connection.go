// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package cs104

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/iecgo/iec104/asdu"
	"github.com/iecgo/iec104/internal/clog"
)

// connState is the Connection's lifecycle state.
type connState int32

const (
	stateIdle connState = iota
	stateStarted
	stateStopped
	statePendingStop
	stateClosed
)

func (s connState) String() string {
	switch s {
	case stateIdle:
		return "IDLE"
	case stateStarted:
		return "STARTED"
	case stateStopped:
		return "STOPPED"
	case statePendingStop:
		return "PENDING_STOP"
	case stateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// outstanding is one unacknowledged sent I-frame, kept in send-order in
// the ring bounded by k.
type outstanding struct {
	seq     uint16
	payload []byte
	sentAt  time.Time
}

// Connection is one IEC 60870-5-104 peer endpoint over a TCP socket: the
// APDU codec plus the state machine described in §4.5 — sequence
// numbers, the k/w flow-control window, and the t1/t2/t3 timers. All
// mutation of its state happens under mu, which the reader goroutine,
// the timer callbacks, and application callers contend for as the
// spec's single critical section.
type Connection struct {
	conn    net.Conn
	cfg     Config
	params  *asdu.Params
	handler ConnectionHandlerInterface
	clog.Clog

	mu    sync.Mutex
	cond  *sync.Cond
	state connState

	sendSeq uint16 // next sequence number to assign on send
	recvSeq uint16 // count of I-frames received so far, mod 2^15

	unconfirmedSent     []outstanding
	unconfirmedReceived int

	pendingStart bool
	pendingStop  bool

	t1 *time.Timer
	t2 *time.Timer
	t3 *time.Timer

	localClose bool
	closeErr   error
	closeOnce  sync.Once

	wg sync.WaitGroup
}

func newConnection(conn net.Conn, cfg Config, params *asdu.Params, handler ConnectionHandlerInterface, logPrefix string) *Connection {
	c := &Connection{
		conn:    conn,
		cfg:     cfg,
		params:  params,
		handler: handler,
		Clog:    clog.NewLogger(logPrefix),
		state:   stateIdle,
	}
	c.cond = sync.NewCond(&c.mu)
	c.Clog.LogMode(true)
	c.t3 = time.AfterFunc(cfg.MaxIdleTime, c.onT3)
	return c
}

func (c *Connection) start() {
	c.wg.Add(1)
	go c.readLoop()
}

// State reports the Connection's current lifecycle state.
func (c *Connection) State() connState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Params reports the ASDU field-width parameters this Connection decodes
// and encodes with.
func (c *Connection) Params() *asdu.Params {
	return c.params
}

// readLoop is the Connection's reader: it owns the socket read path and
// feeds every decoded APDU into handleAPDU under mu.
func (c *Connection) readLoop() {
	defer c.wg.Done()
	for {
		a, err := readAPDU(c.conn, c.cfg.MessageFragmentTimeout)
		if err != nil {
			c.closeWithError(err)
			return
		}
		c.mu.Lock()
		if c.state == stateClosed {
			c.mu.Unlock()
			return
		}
		c.resetT3Locked()
		err = c.handleAPDULocked(a)
		c.mu.Unlock()
		if err != nil {
			c.closeWithError(err)
			return
		}
	}
}

func (c *Connection) handleAPDULocked(a *apdu) error {
	switch a.ctrl.kind {
	case kindI:
		return c.handleILocked(a)
	case kindS:
		c.ackOutstandingLocked(a.ctrl.recvSeq)
		return nil
	case kindU:
		return c.handleULocked(a.ctrl.uFunc)
	default:
		return fmt.Errorf("%w: unrecognised apci kind", ErrMalformedApdu)
	}
}

func (c *Connection) handleILocked(a *apdu) error {
	if c.state != stateStarted {
		return fmt.Errorf("%w: received i-frame outside STARTED state (%s)", ErrMalformedApdu, c.state)
	}
	c.ackOutstandingLocked(a.ctrl.recvSeq)
	c.recvSeq = incSeq(a.ctrl.sendSeq)
	c.unconfirmedReceived++

	decoded := asdu.NewEmptyASDU(c.params)
	if err := decoded.UnmarshalBinary(a.asdu); err != nil {
		return err
	}

	if c.unconfirmedReceived >= c.cfg.MaxUnconfirmedIPdusReceived {
		c.sendSFrameLocked()
	} else if c.unconfirmedReceived == 1 {
		c.armT2Locked()
	}

	handler, conn := c.handler, c
	c.mu.Unlock()
	cbErr := handler.OnAsduReceived(conn, decoded)
	c.mu.Lock()
	if cbErr != nil {
		c.Warn("OnAsduReceived returned error: %v", cbErr)
	}
	return nil
}

func (c *Connection) handleULocked(uFunc byte) error {
	switch uFunc {
	case uStartDtAct:
		c.sendULocked(uStartDtCon)
		c.state = stateStarted
		c.cond.Broadcast()
	case uStartDtCon:
		if !c.pendingStart {
			c.Warn("unsolicited STARTDT_CON received")
			return nil
		}
		c.pendingStart = false
		c.disarmT1Locked()
		c.state = stateStarted
		c.cond.Broadcast()
	case uStopDtAct:
		c.sendULocked(uStopDtCon)
		c.state = stateStopped
		c.cond.Broadcast()
	case uStopDtCon:
		if !c.pendingStop {
			c.Warn("unsolicited STOPDT_CON received")
			return nil
		}
		c.pendingStop = false
		c.disarmT1Locked()
		c.state = stateStopped
		c.cond.Broadcast()
	case uTestFrAct:
		c.sendULocked(uTestFrCon)
	case uTestFrCon:
		c.disarmT1Locked()
	default:
		return fmt.Errorf("%w: unhandled u-frame function 0x%02X", ErrMalformedApdu, uFunc)
	}
	return nil
}

// ackOutstandingLocked drops every entry whose sequence number is
// covered by peerRecvSeq (strictly less than it, modulo wrap) and
// re-arms t1 against the oldest survivor, or disarms it if none remain.
func (c *Connection) ackOutstandingLocked(peerRecvSeq uint16) {
	i := 0
	for ; i < len(c.unconfirmedSent); i++ {
		if seqDiff(peerRecvSeq, c.unconfirmedSent[i].seq) <= 0 {
			break
		}
	}
	if i > 0 {
		c.unconfirmedSent = c.unconfirmedSent[i:]
		c.cond.Broadcast() // a window slot opened
	}
	c.disarmT1Locked()
	if len(c.unconfirmedSent) > 0 {
		c.armT1Locked()
	}
}

func (c *Connection) sendSFrameLocked() {
	frame := &apdu{ctrl: controlField{kind: kindS, recvSeq: c.recvSeq}}
	if err := writeAPDU(c.conn, frame); err != nil {
		c.Warn("failed to write s-frame: %v", err)
	}
	c.unconfirmedReceived = 0
	c.disarmT2Locked()
}

func (c *Connection) sendULocked(uFunc byte) {
	frame := &apdu{ctrl: controlField{kind: kindU, uFunc: uFunc}}
	if err := writeAPDU(c.conn, frame); err != nil {
		c.Warn("failed to write u-frame 0x%02X: %v", uFunc, err)
	}
}

func (c *Connection) armT1Locked() {
	c.t1 = time.AfterFunc(c.cfg.MaxTimeNoAckReceived, c.onT1)
}

func (c *Connection) disarmT1Locked() {
	if c.t1 != nil {
		c.t1.Stop()
		c.t1 = nil
	}
}

func (c *Connection) armT2Locked() {
	if c.t2 != nil {
		return
	}
	c.t2 = time.AfterFunc(c.cfg.MaxTimeNoAckSent, c.onT2)
}

func (c *Connection) disarmT2Locked() {
	if c.t2 != nil {
		c.t2.Stop()
		c.t2 = nil
	}
}

func (c *Connection) resetT3Locked() {
	if c.t3 != nil {
		c.t3.Stop()
	}
	c.t3 = time.AfterFunc(c.cfg.MaxIdleTime, c.onT3)
}

// onT1 fires when an outstanding STARTDT/STOPDT/TESTFR request or
// unacknowledged I-frame was not confirmed within t1. Named after the
// taxonomy's one t1-driven error: the glossary treats t1 uniformly as
// the acknowledgement-timeout regardless of what it is guarding.
func (c *Connection) onT1() {
	c.closeWithError(ErrHandshakeTimeout)
}

// onT2 fires when a received I-frame has gone unacknowledged for
// MaxTimeNoAckSent; it emits the delayed S-frame the window enforcement
// would otherwise wait for.
func (c *Connection) onT2() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed || c.unconfirmedReceived == 0 {
		return
	}
	c.sendSFrameLocked()
}

// onT3 fires after MaxIdleTime with no inbound frame; it probes
// liveness with TESTFR_ACT and arms t1 for the expected TESTFR_CON.
func (c *Connection) onT3() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return
	}
	c.sendULocked(uTestFrAct)
	c.armT1Locked()
}

// StartDataTransfer sends STARTDT_ACT and blocks until the peer
// confirms, the connection closes, or timeout elapses. A nonzero
// timeout overrides t1 for this handshake step.
func (c *Connection) StartDataTransfer(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return c.closeErr
	}
	if c.state == stateStarted {
		return nil
	}
	c.pendingStart = true
	c.sendULocked(uStartDtAct)
	c.disarmT1Locked()
	if timeout > 0 {
		c.t1 = time.AfterFunc(timeout, c.onT1)
	} else {
		c.armT1Locked()
	}
	for c.pendingStart && c.state != stateClosed {
		c.cond.Wait()
	}
	if c.state == stateClosed {
		return c.closeErr
	}
	return nil
}

// StopDataTransfer sends STOPDT_ACT and blocks until the peer confirms,
// the connection closes, or timeout elapses.
func (c *Connection) StopDataTransfer(timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateClosed {
		return c.closeErr
	}
	if c.state == stateStopped {
		return nil
	}
	c.pendingStop = true
	c.state = statePendingStop
	c.sendULocked(uStopDtAct)
	c.disarmT1Locked()
	if timeout > 0 {
		c.t1 = time.AfterFunc(timeout, c.onT1)
	} else {
		c.armT1Locked()
	}
	for c.pendingStop && c.state != stateClosed {
		c.cond.Wait()
	}
	if c.state == stateClosed {
		return c.closeErr
	}
	return nil
}

// Send enqueues and transmits a into the current I-frame window. If k
// unacknowledged I-frames are already outstanding it blocks until a
// slot frees or the connection closes. Send takes no timeout: the wait
// for a window slot is unbounded, and Send does not return
// ErrWindowExhausted.
func (c *Connection) Send(a *asdu.ASDU) error {
	payload, err := a.MarshalBinary()
	if err != nil {
		return err
	}
	if length := 4 + len(payload); length > c.cfg.MaxAPDULength {
		return fmt.Errorf("%w: encoded apdu length %d exceeds configured maximum %d", ErrMalformedApdu, length, c.cfg.MaxAPDULength)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateStarted {
		return ErrNotActive
	}

	deadline := time.Time{}
	if timeout, ok := c.sendTimeout(); ok {
		deadline = time.Now().Add(timeout)
	}
	for len(c.unconfirmedSent) >= c.cfg.MaxNumOfOutstandingIPdus {
		if c.state == stateClosed {
			return c.closeErr
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return ErrWindowExhausted
		}
		if deadline.IsZero() {
			c.cond.Wait()
			continue
		}
		if !c.waitWithDeadline(deadline) {
			return ErrWindowExhausted
		}
	}
	if c.state == stateClosed {
		return c.closeErr
	}

	seq := c.sendSeq
	frame := &apdu{ctrl: controlField{kind: kindI, sendSeq: seq, recvSeq: c.recvSeq}, asdu: payload}
	if err := writeAPDU(c.conn, frame); err != nil {
		return err
	}
	c.sendSeq = incSeq(c.sendSeq)
	wasEmpty := len(c.unconfirmedSent) == 0
	c.unconfirmedSent = append(c.unconfirmedSent, outstanding{seq: seq, payload: payload, sentAt: time.Now()})
	if wasEmpty {
		c.armT1Locked()
	}
	c.unconfirmedReceived = 0
	c.disarmT2Locked()
	return nil
}

// sendTimeout is a hook point kept separate from Send so a future
// caller-supplied timeout (not yet part of this package's exported
// surface) has one place to plug in; today every Send blocks
// indefinitely for a window slot.
func (c *Connection) sendTimeout() (time.Duration, bool) { return 0, false }

// waitWithDeadline wakes cond.Wait() no later than deadline, returning
// false if it returned because the deadline passed rather than because
// some other state change signaled it.
func (c *Connection) waitWithDeadline(deadline time.Time) bool {
	timer := time.AfterFunc(time.Until(deadline), func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
	})
	defer timer.Stop()
	c.cond.Wait()
	return time.Now().Before(deadline)
}

// SendConfirmation mirrors inbound with its cause of transmission
// changed to activation-confirmation and sends it back on the same
// connection.
func (c *Connection) SendConfirmation(inbound *asdu.ASDU) error {
	confirm, err := asdu.NewASDU(inbound.Params, asdu.Identifier{
		Type:       inbound.Identifier.Type,
		Variable:   inbound.Identifier.Variable,
		OrigAddr:   inbound.Identifier.OrigAddr,
		CommonAddr: inbound.Identifier.CommonAddr,
		Coa: asdu.CauseOfTransmission{
			Cause: asdu.ActivationCon,
			Test:  inbound.Identifier.Coa.Test,
		},
	})
	if err != nil {
		return err
	}
	confirm.InfoObjs = inbound.InfoObjs
	confirm.Private = inbound.Private
	return c.Send(confirm)
}

// Close is idempotent: it transitions to CLOSED, wakes any caller
// blocked in Send/StartDataTransfer/StopDataTransfer, disarms all
// timers, and closes the socket. It does not invoke OnConnectionLost —
// that callback fires only for a Connection that reaches CLOSED some
// other way.
func (c *Connection) Close() error {
	c.mu.Lock()
	c.localClose = true
	c.mu.Unlock()
	c.closeWithError(ErrUseClosedConnection)
	c.wg.Wait()
	return nil
}

func (c *Connection) closeWithError(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		wasLocal := c.localClose
		c.state = stateClosed
		c.closeErr = err
		c.disarmT1Locked()
		c.disarmT2Locked()
		if c.t3 != nil {
			c.t3.Stop()
		}
		c.cond.Broadcast()
		c.mu.Unlock()

		_ = c.conn.Close()

		if !wasLocal {
			c.handler.OnConnectionLost(c, err)
		}
	})
}
