// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

import (
	"fmt"
	"time"
)

// Statistics tracks frame counters and error rates for a bus tap
type Statistics struct {
	StartTime      time.Time
	LastFrameTime  time.Time
	LastMasterTime time.Time

	// Counters
	ValidFrames         uint64
	PackTelemetryFrames uint64
	CellDetailFrames    uint64
	AlarmStatusFrames   uint64

	// Framer counters (absolute values copied from the synchronizer)
	DroppedBytes   uint64
	CRCErrors      uint64
	BufferDiscards uint64

	// Per-device last-seen timestamps, indexed by device index
	LastSeen [MaxPacks]time.Time

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // CRC errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// RecordFrame updates counters for one decoded frame
func (s *Statistics) RecordFrame(f *Frame) {
	s.ValidFrames++
	s.LastFrameTime = f.Timestamp()

	switch f.Subtype() {
	case SubtypePackTelemetry:
		s.PackTelemetryFrames++
	case SubtypeCellDetail:
		s.CellDetailFrames++
	case SubtypeAlarmStatus:
		s.AlarmStatusFrames++
	}

	if idx := f.DeviceIndex(); idx >= 0 && idx < MaxPacks {
		s.LastSeen[idx] = f.Timestamp()
	}
	if f.IsMaster() {
		s.LastMasterTime = f.Timestamp()
	}
}

// RecordFramer copies the synchronizer's cumulative counters
func (s *Statistics) RecordFramer(sync *Synchronizer) {
	s.DroppedBytes = sync.DroppedBytes()
	s.CRCErrors = sync.CRCErrors()
	s.BufferDiscards = sync.BufferDiscards()
}

// ActivePacks returns how many devices have been seen since start
func (s *Statistics) ActivePacks() int {
	n := 0
	for _, t := range s.LastSeen {
		if !t.IsZero() {
			n++
		}
	}
	return n
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.ValidFrames) / elapsed
		s.ErrorRate = float64(s.CRCErrors+s.BufferDiscards) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	total := s.ValidFrames + s.CRCErrors
	var validPercent float64
	if total > 0 {
		validPercent = float64(s.ValidFrames) * 100.0 / float64(total)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Valid Frames:    %8d (%.1f%%)\n", s.ValidFrames, validPercent)
	result += fmt.Sprintf("  Pack Telemetry:   %5d\n", s.PackTelemetryFrames)
	result += fmt.Sprintf("  Cell Detail:      %5d\n", s.CellDetailFrames)
	result += fmt.Sprintf("  Alarm/Status:     %5d\n", s.AlarmStatusFrames)

	if s.CRCErrors > 0 {
		result += fmt.Sprintf("CRC Errors:      %8d\n", s.CRCErrors)
	}
	if s.BufferDiscards > 0 {
		result += fmt.Sprintf("Buffer Discards: %8d\n", s.BufferDiscards)
	}
	if s.DroppedBytes > 0 {
		result += fmt.Sprintf("Resync Bytes:    %8d\n", s.DroppedBytes)
	}

	result += fmt.Sprintf("Active Packs:    %8d\n", s.ActivePacks())
	result += fmt.Sprintf("Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all counters and timestamps
func (s *Statistics) Reset() {
	*s = Statistics{StartTime: time.Now()}
}
