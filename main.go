// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS
//
// seplos-sniffer - Seplos V3 BMS Bus Sniffer
//
// A passive listener that decodes pack telemetry, per-cell detail, and
// alarm/status frames from the Seplos V3 RS-485 bus.

package main

import (
	"os"

	"github.com/DpunktS/seplos-v3-sniffer/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
