// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

import (
	"reflect"
	"testing"
)

func TestCellBitmap(t *testing.T) {
	tests := []struct {
		name     string
		lo, hi   byte
		expected []int
	}{
		{"empty", 0x00, 0x00, []int{}},
		{"cells 1 and 3", 0b00000101, 0x00, []int{1, 3}},
		{"cell 8 boundary", 0x80, 0x00, []int{8}},
		{"cell 9 boundary", 0x00, 0x01, []int{9}},
		{"cell 16", 0x00, 0x80, []int{16}},
		{"spanning both bytes", 0b10000001, 0b10000001, []int{1, 8, 9, 16}},
		{"all cells", 0xFF, 0xFF, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cellBitmap(tt.lo, tt.hi)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("cellBitmap(0x%02X, 0x%02X) = %v, expected %v",
					tt.lo, tt.hi, got, tt.expected)
			}
		})
	}
}

func TestSensorBitmap(t *testing.T) {
	if got := sensorBitmap(0b00000110); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("sensorBitmap = %v, expected [2 3]", got)
	}
	// Bits above the four active sensors are ignored
	if got := sensorBitmap(0xF0); len(got) != 0 {
		t.Errorf("high bits reported sensors %v", got)
	}
}

func TestJoinIndices(t *testing.T) {
	if got := joinIndices([]int{}); got != "" {
		t.Errorf("empty list rendered as %q", got)
	}
	if got := joinIndices([]int{1, 3, 16}); got != "1, 3, 16" {
		t.Errorf("rendered as %q", got)
	}
}

func TestMatchLabels(t *testing.T) {
	labels := matchLabels(0x05, systemStatusLabels)
	if !reflect.DeepEqual(labels, []string{"Discharging", "Floating Charge"}) {
		t.Errorf("matchLabels(0x05) = %v", labels)
	}
	if labels := matchLabels(0x00, systemStatusLabels); len(labels) != 0 {
		t.Errorf("zero byte matched %v", labels)
	}
}

func TestMatchEvents_BucketSplit(t *testing.T) {
	// 0x03 sets one alarm bit and one protection bit of the voltage table
	alarms, protections := matchEvents(0x03, voltageEventLabels)
	if !reflect.DeepEqual(alarms, []string{"Cell High Voltage Alarm"}) {
		t.Errorf("alarms = %v", alarms)
	}
	if !reflect.DeepEqual(protections, []string{"Cell Overvoltage Protection"}) {
		t.Errorf("protections = %v", protections)
	}
}

func TestEventTables_WireOrder(t *testing.T) {
	if len(eventTables) != 6 {
		t.Fatalf("expected 6 event tables, got %d", len(eventTables))
	}
}

func TestEventTables_UniqueMasks(t *testing.T) {
	// Within one table, every bit maps to at most one label
	for i, table := range eventTables {
		seen := byte(0)
		for _, entry := range table {
			if entry.mask&(entry.mask-1) != 0 {
				t.Errorf("table %d: mask 0x%02X sets multiple bits", i, entry.mask)
			}
			if seen&entry.mask != 0 {
				t.Errorf("table %d: mask 0x%02X assigned twice", i, entry.mask)
			}
			seen |= entry.mask
		}
	}
}
