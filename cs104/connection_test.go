// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package cs104

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iecgo/iec104/asdu"
)

// recordingHandler collects every ASDU it receives and the error from
// its one OnConnectionLost call, for assertions in tests.
type recordingHandler struct {
	mu       sync.Mutex
	received []*asdu.ASDU
	lostErr  error
	lost     bool
}

func (h *recordingHandler) OnAsduReceived(c *Connection, a *asdu.ASDU) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.received = append(h.received, a)
	return nil
}

func (h *recordingHandler) OnConnectionLost(c *Connection, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lost = true
	h.lostErr = err
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.received)
}

func newTestPair(t *testing.T, cfg Config) (*Connection, *recordingHandler, *Connection, *recordingHandler) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	clientHandler := &recordingHandler{}
	serverHandler := &recordingHandler{}

	require.NoError(t, cfg.Valid())
	params := asdu.ParamsWide104

	c1 := newConnection(clientConn, cfg, params, clientHandler, "test-client => ")
	c2 := newConnection(serverConn, cfg, params, serverHandler, "test-server => ")
	c1.start()
	c2.start()

	t.Cleanup(func() {
		_ = c1.Close()
		_ = c2.Close()
	})
	return c1, clientHandler, c2, serverHandler
}

func TestStartDataTransferHandshake(t *testing.T) {
	cfg := DefaultConfig()
	c1, _, c2, _ := newTestPair(t, cfg)

	require.NoError(t, c1.StartDataTransfer(2*time.Second))
	require.Equal(t, stateStarted, c1.State())
	require.Eventually(t, func() bool { return c2.State() == stateStarted }, time.Second, 5*time.Millisecond)
}

func TestSendDeliversDecodedASDU(t *testing.T) {
	cfg := DefaultConfig()
	c1, _, c2, serverHandler := newTestPair(t, cfg)
	require.NoError(t, c1.StartDataTransfer(2*time.Second))
	require.Eventually(t, func() bool { return c2.State() == stateStarted }, time.Second, 5*time.Millisecond)

	a, err := asdu.NewASDU(c1.params, asdu.Identifier{
		Type:       asdu.M_SP_NA_1,
		Variable:   asdu.VariableStruct{Number: 1},
		Coa:        asdu.CauseOfTransmission{Cause: asdu.Spontaneous},
		CommonAddr: asdu.CommonAddr(1),
	})
	require.NoError(t, err)
	require.NoError(t, a.AddObject(asdu.InformationObject{
		Address:  asdu.InfoObjAddr(3),
		Elements: [][]asdu.Element{{&asdu.SIQ{Value: true}}},
	}))

	require.NoError(t, c1.Send(a))
	require.Eventually(t, func() bool { return serverHandler.count() == 1 }, time.Second, 5*time.Millisecond)
}

// TestSendBlocksUntilWindowFrees pins testable property #4: with a
// window of 1 and an inbound ack threshold of 1, a second Send only
// returns once the peer's immediate S-frame acknowledges the first.
func TestSendBlocksUntilWindowFrees(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxNumOfOutstandingIPdus = 1
	cfg.MaxUnconfirmedIPdusReceived = 1
	c1, _, c2, _ := newTestPair(t, cfg)
	require.NoError(t, c1.StartDataTransfer(2*time.Second))
	require.Eventually(t, func() bool { return c2.State() == stateStarted }, time.Second, 5*time.Millisecond)

	newSPI := func(ioa int) *asdu.ASDU {
		a, err := asdu.NewASDU(c1.params, asdu.Identifier{
			Type:       asdu.M_SP_NA_1,
			Variable:   asdu.VariableStruct{Number: 1},
			Coa:        asdu.CauseOfTransmission{Cause: asdu.Spontaneous},
			CommonAddr: asdu.CommonAddr(1),
		})
		require.NoError(t, err)
		require.NoError(t, a.AddObject(asdu.InformationObject{
			Address:  asdu.InfoObjAddr(ioa),
			Elements: [][]asdu.Element{{&asdu.SIQ{Value: true}}},
		}))
		return a
	}

	require.NoError(t, c1.Send(newSPI(1)))

	done := make(chan error, 1)
	go func() { done <- c1.Send(newSPI(2)) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second Send did not unblock once the peer's S-frame acked the first")
	}
}

func TestStopDataTransferHandshake(t *testing.T) {
	cfg := DefaultConfig()
	c1, _, c2, _ := newTestPair(t, cfg)
	require.NoError(t, c1.StartDataTransfer(2*time.Second))
	require.Eventually(t, func() bool { return c2.State() == stateStarted }, time.Second, 5*time.Millisecond)

	require.NoError(t, c1.StopDataTransfer(2*time.Second))
	require.Equal(t, stateStopped, c1.State())
	require.Eventually(t, func() bool { return c2.State() == stateStopped }, time.Second, 5*time.Millisecond)
}

func TestCloseIsIdempotentAndSuppressesConnectionLost(t *testing.T) {
	cfg := DefaultConfig()
	c1, clientHandler, _, _ := newTestPair(t, cfg)
	require.NoError(t, c1.StartDataTransfer(2*time.Second))

	require.NoError(t, c1.Close())
	require.NoError(t, c1.Close())

	clientHandler.mu.Lock()
	lost := clientHandler.lost
	clientHandler.mu.Unlock()
	require.False(t, lost, "a local Close must not invoke OnConnectionLost")
}
