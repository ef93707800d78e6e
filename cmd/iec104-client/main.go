// Copyright 2025 Ricardo L. Olsen. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// Command iec104-client is a sample IEC 60870-5-104 controlling station:
// it dials a controlled station, runs the STARTDT handshake, logs every
// ASDU it receives, and periodically issues a station interrogation.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/iecgo/iec104/asdu"
	"github.com/iecgo/iec104/cs104"
)

var (
	addr                  string
	commonAddr            uint16
	interrogationInterval time.Duration
	autoReconnect         bool
	verbose               bool
)

type printingHandler struct{}

func (printingHandler) OnAsduReceived(c *cs104.Connection, a *asdu.ASDU) error {
	fmt.Printf("<< %s\n", a.Identifier)
	for _, obj := range a.InfoObjs {
		fmt.Printf("   %s\n", obj.String())
	}
	return nil
}

func (printingHandler) OnConnectionLost(c *cs104.Connection, err error) {
	fmt.Printf("!! connection lost: %v\n", err)
}

var rootCmd = &cobra.Command{
	Use:   "iec104-client",
	Short: "IEC 60870-5-104 sample controlling station",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:2404", "controlled station address (host:port)")
	rootCmd.Flags().Uint16VarP(&commonAddr, "common-address", "c", 1, "ASDU common address to interrogate")
	rootCmd.Flags().DurationVarP(&interrogationInterval, "interrogate-every", "i", 30*time.Second, "interval between station interrogations, 0 to disable")
	rootCmd.Flags().BoolVar(&autoReconnect, "reconnect", true, "redial automatically after the connection is lost")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable protocol-level logging")
}

func run(cmd *cobra.Command, args []string) error {
	option := cs104.NewOption().
		SetAutoReconnect(autoReconnect)

	handler := printingHandler{}
	client := cs104.NewClient(addr, handler, option)
	client.SetLogMode(verbose)
	client.SetOnConnectHandler(func(c *cs104.Connection) {
		fmt.Printf(">> connected to %s\n", addr)
		if interrogationInterval <= 0 {
			return
		}
		go interrogateLoop(client)
	})
	client.SetConnectionLostHandler(func(c *cs104.Connection, err error) {
		fmt.Printf("!! connection lost: %v\n", err)
	})
	client.SetConnectErrorHandler(func(err error) {
		fmt.Printf("!! dial failed: %v\n", err)
	})

	if err := client.Start(); err != nil {
		return fmt.Errorf("starting client: %w", err)
	}

	fmt.Println("running, press Ctrl+C to exit")
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("shutting down...")
	return client.Close()
}

func interrogateLoop(client *cs104.Client) {
	sendInterrogation(client)
	ticker := time.NewTicker(interrogationInterval)
	defer ticker.Stop()
	for range ticker.C {
		if !client.IsConnected() {
			return
		}
		sendInterrogation(client)
	}
}

func sendInterrogation(client *cs104.Client) {
	conn := client.Connection()
	if conn == nil {
		return
	}
	a, err := asdu.NewASDU(conn.Params(), asdu.Identifier{
		Type:       asdu.C_IC_NA_1,
		Variable:   asdu.VariableStruct{Number: 1},
		Coa:        asdu.CauseOfTransmission{Cause: asdu.Activation},
		CommonAddr: asdu.CommonAddr(commonAddr),
	})
	if err != nil {
		fmt.Printf("!! building interrogation command: %v\n", err)
		return
	}
	if err := a.AddObject(asdu.InformationObject{
		Address:  asdu.InfoObjAddr(0),
		Elements: [][]asdu.Element{{&asdu.QualifierOfInterrogation{Value: asdu.QOIStation}}},
	}); err != nil {
		fmt.Printf("!! building interrogation command: %v\n", err)
		return
	}
	fmt.Printf(">> sending station interrogation to common address %d\n", commonAddr)
	if err := conn.Send(a); err != nil {
		fmt.Printf("!! sending interrogation: %v\n", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
