// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Command iec104-server is a sample IEC 60870-5-104 controlled station:
// it listens for controlling stations, answers station interrogations
// with a small fixed set of single-point data, and logs every command
// it receives.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iecgo/iec104/asdu"
	"github.com/iecgo/iec104/cs104"
)

var (
	listenAddr string
	verbose    bool
)

// points is the fixed set of single-point data this sample station
// reports on interrogation; toggled on every poll so repeated runs are
// visibly live.
type points struct {
	values [4]atomic.Bool
}

func (p *points) toggleAndReport(conn *cs104.Connection, ca asdu.CommonAddr, coa asdu.Cause) error {
	a, err := asdu.NewASDU(conn.Params(), asdu.Identifier{
		Type:       asdu.M_SP_NA_1,
		Variable:   asdu.VariableStruct{Number: byte(len(p.values))},
		Coa:        asdu.CauseOfTransmission{Cause: coa},
		CommonAddr: ca,
	})
	if err != nil {
		return err
	}
	for i := range p.values {
		v := !p.values[i].Load()
		p.values[i].Store(v)
		if err := a.AddObject(asdu.InformationObject{
			Address:  asdu.InfoObjAddr(i + 1),
			Elements: [][]asdu.Element{{&asdu.SIQ{Value: v}}},
		}); err != nil {
			return err
		}
	}
	return conn.Send(a)
}

type stationHandler struct {
	points *points
}

func (h stationHandler) OnAsduReceived(c *cs104.Connection, a *asdu.ASDU) error {
	fmt.Printf("<< %s\n", a.Identifier)

	switch a.Identifier.Type {
	case asdu.C_IC_NA_1:
		if a.Identifier.Coa.Cause != asdu.Activation {
			return nil
		}
		if err := c.SendConfirmation(a); err != nil {
			return fmt.Errorf("confirming interrogation: %w", err)
		}
		if err := h.points.toggleAndReport(c, a.Identifier.CommonAddr, asdu.InterrogatedByStation); err != nil {
			return fmt.Errorf("reporting interrogated points: %w", err)
		}
		term, err := asdu.NewASDU(c.Params(), asdu.Identifier{
			Type:       a.Identifier.Type,
			Variable:   a.Identifier.Variable,
			Coa:        asdu.CauseOfTransmission{Cause: asdu.ActivationTerm},
			CommonAddr: a.Identifier.CommonAddr,
		})
		if err != nil {
			return err
		}
		term.InfoObjs = a.InfoObjs
		return c.Send(term)
	default:
		return nil
	}
}

func (stationHandler) OnConnectionLost(c *cs104.Connection, err error) {
	fmt.Printf("!! station disconnected: %v\n", err)
}

var rootCmd = &cobra.Command{
	Use:   "iec104-server",
	Short: "IEC 60870-5-104 sample controlled station",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&listenAddr, "listen", "l", ":2404", "address to listen on")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable protocol-level logging")
}

func run(cmd *cobra.Command, args []string) error {
	server := cs104.NewServer(func() cs104.ConnectionHandlerInterface {
		return stationHandler{points: &points{}}
	})
	server.LogMode(verbose)

	if err := server.Start(listenAddr); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	fmt.Printf("listening on %s, press Ctrl+C to exit\n", listenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("shutting down...")
	return server.Close()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
