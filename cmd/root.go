// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// TCP relay flag
	tcpAddr string

	// WebSocket relay flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Config file flag
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "seplos-sniffer",
	Short: "Seplos V3 BMS Bus Sniffer",
	Long: `seplos-sniffer - A passive listener for the Seplos V3 BMS RS-485 bus.

Taps the bus without transmitting, reconstructs frame boundaries from the raw
byte stream, validates each frame with the Modbus CRC-16, and decodes pack
telemetry, per-cell detail, and alarm/status frames into engineering values
for up to sixteen packs.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 19200]
  TCP:       --tcp host:port (relay of the serial stream)
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the SEPLOS_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version: "1.0.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 19200, "Baud rate (serial only)")

	// TCP relay flag
	rootCmd.PersistentFlags().StringVar(&tcpAddr, "tcp", "", "TCP relay address (host:port)")

	// WebSocket relay flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (flags override file values)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
