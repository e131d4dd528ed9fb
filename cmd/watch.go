// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package cmd

import (
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/DpunktS/seplos-v3-sniffer/pkg/seplos"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of packs, alarms, and bus health",
	Long: `Track every pack on the bus with live statistics.

The dashboard shows per-pack voltage, current, state of charge, and cell
spread, the system status and any active alarms or protections, plus framing
health: CRC errors, resynchronization, and frame rates.

By default a terminal UI is used. With --tui=false, frames and periodic
statistics summaries are printed as plain text instead.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames in text mode (not just errors)")
	watchCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	watchCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	if useTUI {
		return runWatchTUI(conn, connInfo, cfg)
	}
	return runWatchText(conn, connInfo)
}

// runWatchTUI runs the bubbletea dashboard
func runWatchTUI(conn Connection, connInfo string, cfg *Config) error {
	m := initialModel(connInfo, cfg)
	p := tea.NewProgram(m)

	sync := seplos.NewSynchronizer()

	// Reader goroutine: the synchronizer is only touched here; decoded
	// frames cross into the TUI as messages.
	go func() {
		buf := make([]byte, 256)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					p.Send(readErrMsg{err: err})
					return
				}
				p.Send(readErrMsg{err: err})
				continue
			}

			crcBefore := sync.CRCErrors()
			for _, frame := range sync.Feed(buf[:n]) {
				p.Send(frameMsg{frame: frame})
			}
			if sync.CRCErrors() > crcBefore {
				p.Send(framerErrMsg{crcErrors: sync.CRCErrors()})
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// runWatchText runs the dashboard in text mode
func runWatchText(conn Connection, connInfo string) error {
	fmt.Printf("Seplos Sniffer - Watch Mode\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	sync := seplos.NewSynchronizer()
	stats := seplos.NewStatistics()
	buf := make([]byte, 256)

	// Sync tracking - resync drops are expected noise until the first frame
	synchronized := false

	// Statistics ticker
	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	// Channel for non-blocking reads
	chunks := make(chan []byte, 10)
	go func() {
		for {
			n, err := conn.Read(buf)
			if err != nil {
				if err == ErrConnectionClosed {
					close(chunks)
					return
				}
				log.Printf("Read error: %v", err)
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			chunks <- data
		}
	}()

	for {
		select {
		case data, ok := <-chunks:
			if !ok {
				log.Printf("Connection closed")
				return nil
			}

			crcBefore := sync.CRCErrors()
			frames := sync.Feed(data)
			if n := sync.CRCErrors() - crcBefore; n > 0 && synchronized {
				timestamp := time.Now().Format("15:04:05.000")
				fmt.Printf("[%s] \033[1;31mCRC ERROR:\033[0m %d candidate frame(s) discarded\n\n", timestamp, n)
			}

			for _, frame := range frames {
				if !synchronized {
					synchronized = true
					if dropped := sync.DroppedBytes(); dropped > 0 {
						fmt.Printf("[SYNC] Synchronized after skipping %d invalid bytes\n\n", dropped)
					} else {
						fmt.Printf("[SYNC] Synchronized\n\n")
					}
				}
				stats.RecordFrame(frame)
				if showAll {
					fmt.Print(seplos.FormatFrame(frame))
				}
			}

		case <-statsTicker.C:
			stats.RecordFramer(sync)
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
