// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/DpunktS/seplos-v3-sniffer/pkg/seplos"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display decoded frames in human-readable format",
	Long: `Continuously decode and display bus frames as they arrive.

Each CRC-valid frame is shown with timestamp, frame kind, pack index, and the
decoded payload values. Discarded candidates (CRC mismatch) are noted inline.

Supports serial, TCP, and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	applyConnectionConfig(cfg)

	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Seplos Sniffer - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	sync := seplos.NewSynchronizer()
	buf := make([]byte, 256)

	for {
		n, err := conn.Read(buf)
		if err != nil {
			// For WebSocket connections, a read error usually means
			// the connection is permanently closed - exit gracefully
			if err == ErrConnectionClosed {
				log.Printf("Connection closed")
				return nil
			}
			log.Printf("Read error: %v", err)
			continue
		}

		crcBefore := sync.CRCErrors()
		for _, frame := range sync.Feed(buf[:n]) {
			fmt.Print(seplos.FormatFrame(frame))
		}
		if sync.CRCErrors() > crcBefore {
			fmt.Printf("[CRC] candidate frame discarded\n")
		}
	}
}
