// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
)

func approxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestDecode_PackTelemetry(t *testing.T) {
	raw := buildTelemetryFrame(0x01, func(data []byte) {
		putU16(data, 3, 5200)           // 52.00 V
		putU16(data, 5, uint16(0xFF6A)) // -150 as int16 -> -1.50 A
		putU16(data, 7, 27500)          // 275.00 Ah remaining
		putU16(data, 9, 28000)          // 280.00 Ah total
		putU16(data, 11, 42)            // 420 Ah lifetime discharge
		putU16(data, 13, 982)           // 98.2 %
		putU16(data, 15, 1000)          // 100.0 %
		putU16(data, 17, 37)            // cycles
		putU16(data, 19, 3250)          // 3.250 V average
		putU16(data, 21, 2981)          // 298.1 dK -> 24.95 C
		putU16(data, 23, 3301)
		putU16(data, 25, 3199)
		putU16(data, 27, 2995)
		putU16(data, 29, 2960)
		putU16(data, 33, 100)
		putU16(data, 35, 50)
	})

	metrics := decodeBytes(t, raw)
	if len(metrics) != 16 {
		t.Fatalf("expected 16 metrics, got %d", len(metrics))
	}

	numeric := []struct {
		name      string
		value     float64
		tolerance float64
		unit      string
	}{
		{"packVoltage", 52.00, 0, "V"},
		{"current", -1.50, 0, "A"},
		{"remainingCapacity", 275.00, 0, "Ah"},
		{"totalCapacity", 280.00, 0, "Ah"},
		{"totalDischargeCapacity", 420, 0, "Ah"},
		{"soc", 98.2, 0, "%"},
		{"soh", 100.0, 0, "%"},
		{"cycleCount", 37, 0, "cycles"},
		{"averageCellVoltage", 3.250, 0, "V"},
		{"averageCellTemp", 24.95, 0.001, "°C"},
		{"maxCellVoltage", 3.301, 0, "V"},
		{"minCellVoltage", 3.199, 0, "V"},
		{"maxCellTemp", 26.35, 0.001, "°C"},
		{"minCellTemp", 22.85, 0.001, "°C"},
		{"maxDischargeCurrent", 100, 0, "A"},
		{"maxChargeCurrent", 50, 0, "A"},
	}

	for _, want := range numeric {
		m := metricByName(t, metrics, want.name)
		if m.Kind != KindNumber {
			t.Errorf("%s: expected numeric metric", want.name)
		}
		if !approxEqual(m.Value, want.value, want.tolerance) {
			t.Errorf("%s: expected %v, got %v", want.name, want.value, m.Value)
		}
		if m.Unit != want.unit {
			t.Errorf("%s: expected unit %q, got %q", want.name, want.unit, m.Unit)
		}
	}
}

func TestDecode_SignedCurrent(t *testing.T) {
	tests := []struct {
		name     string
		raw      uint16
		expected float64
	}{
		{"discharge", uint16(0xFF6A), -1.50}, // -150
		{"charge", 2050, 20.50},
		{"idle", 0, 0},
		{"max negative", 0x8000, -327.68},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := buildTelemetryFrame(0x01, func(data []byte) {
				putU16(data, 5, tt.raw)
			})
			m := metricByName(t, decodeBytes(t, raw), "current")
			if m.Value != tt.expected {
				t.Errorf("raw 0x%04X: expected %v A, got %v", tt.raw, tt.expected, m.Value)
			}
		})
	}
}

func TestDecode_CellDetail(t *testing.T) {
	raw := buildCellDetailFrame(0x02, func(data []byte) {
		for i := 0; i < CellsPerPack; i++ {
			putU16(data, 3+2*i, uint16(3300+i))
		}
		putU16(data, 35, 2981) // sensor 1: 24.95 C
		putU16(data, 37, 2931)
		putU16(data, 39, 3031)
		putU16(data, 41, 2731) // -0.05 C, just below freezing
		putU16(data, 51, 2981) // case
		putU16(data, 53, 3231) // power stage
	})

	metrics := decodeBytes(t, raw)
	if len(metrics) != CellsPerPack+TempSensorsPerPack+2 {
		t.Fatalf("expected %d metrics, got %d", CellsPerPack+TempSensorsPerPack+2, len(metrics))
	}

	for i := 0; i < CellsPerPack; i++ {
		name := fmt.Sprintf("cellVoltage%02d", i+1)
		m := metricByName(t, metrics, name)
		expected := float64(3300+i) / 1000
		if m.Value != expected {
			t.Errorf("%s: expected %v, got %v", name, expected, m.Value)
		}
		if m.Role != RoleVoltage {
			t.Errorf("%s: expected voltage role", name)
		}
	}

	temps := map[string]float64{
		"cellTemp1": 24.95,
		"cellTemp2": 19.95,
		"cellTemp3": 29.95,
		"cellTemp4": -0.05,
		"caseTemp":  24.95,
		"powerTemp": 49.95,
	}
	for name, expected := range temps {
		m := metricByName(t, metrics, name)
		if !approxEqual(m.Value, expected, 0.001) {
			t.Errorf("%s: expected %v, got %v", name, expected, m.Value)
		}
		if m.Unit != "°C" {
			t.Errorf("%s: expected °C, got %q", name, m.Unit)
		}
	}
}

func TestDecode_AlarmStatus(t *testing.T) {
	raw := buildStatusFrame(0x01, func(data []byte) {
		data[3] = 0b00000101 // cells 1 and 3 low voltage
		data[4] = 0x00
		data[5] = 0x00
		data[6] = 0b10000000 // cell 16 high voltage
		data[7] = 0x00       // no low temp sensors
		data[8] = 0b00000010 // sensor 2 high
		data[9] = 0b00000011 // balancing on cells 1, 2
		data[10] = 0x00
		data[11] = 0x03 // discharging + charging bits
		data[12] = 0x01 // cell high voltage alarm
		data[13] = 0x00
		data[14] = 0x00
		data[15] = 0x00
		data[16] = 0x00
		data[17] = 0x00
		data[18] = 0x03 // both FETs on
	})

	metrics := decodeBytes(t, raw)

	cellAlarm := metricByName(t, metrics, "cellVoltageAlarm")
	if cellAlarm.Kind != KindText {
		t.Fatalf("cellVoltageAlarm should be text")
	}
	if cellAlarm.Text != "Low: 1, 3|High: 16" {
		t.Errorf("unexpected cell voltage alarm %q", cellAlarm.Text)
	}

	tempAlarm := metricByName(t, metrics, "cellTempAlarm")
	if tempAlarm.Text != "Low: |High: 2" {
		t.Errorf("unexpected cell temp alarm %q", tempAlarm.Text)
	}

	balancing := metricByName(t, metrics, "activeBalancing")
	if balancing.Text != "1, 2" {
		t.Errorf("unexpected balancing set %q", balancing.Text)
	}

	status := metricByName(t, metrics, "systemStatus")
	if status.Text != "Discharging, Charging" {
		t.Errorf("unexpected system status %q", status.Text)
	}

	alarms := metricByName(t, metrics, "alarms")
	if !strings.Contains(alarms.Text, "Cell High Voltage Alarm") {
		t.Errorf("expected cell high voltage alarm, got %q", alarms.Text)
	}

	protections := metricByName(t, metrics, "protections")
	if protections.Text != "" {
		t.Errorf("expected no protections, got %q", protections.Text)
	}

	fets := metricByName(t, metrics, "fetStatus")
	if fets.Text != "Discharge FET On, Charge FET On" {
		t.Errorf("unexpected FET status %q", fets.Text)
	}
}

func TestDecode_AlarmStatus_Quiet(t *testing.T) {
	// An all-zero status frame decodes to empty text fields, not omissions
	metrics := decodeBytes(t, buildStatusFrame(0x01, nil))

	for _, name := range []string{"alarms", "protections", "activeBalancing", "systemStatus", "fetStatus"} {
		m := metricByName(t, metrics, name)
		if m.Text != "" {
			t.Errorf("%s: expected empty, got %q", name, m.Text)
		}
	}

	cellAlarm := metricByName(t, metrics, "cellVoltageAlarm")
	if cellAlarm.Text != "Low: |High: " {
		t.Errorf("quiet cell voltage alarm rendered as %q", cellAlarm.Text)
	}
}

func TestDecode_ProtectionBucket(t *testing.T) {
	raw := buildStatusFrame(0x01, func(data []byte) {
		data[12] = 0x02 // cell overvoltage protection
		data[15] = 0x01 // charge current alarm
	})
	metrics := decodeBytes(t, raw)

	protections := metricByName(t, metrics, "protections")
	if !strings.Contains(protections.Text, "Cell Overvoltage Protection") {
		t.Errorf("expected overvoltage protection, got %q", protections.Text)
	}

	alarms := metricByName(t, metrics, "alarms")
	if !strings.Contains(alarms.Text, "Charge Current Alarm") {
		t.Errorf("expected charge current alarm, got %q", alarms.Text)
	}
	if strings.Contains(alarms.Text, "Protection") {
		t.Errorf("protection event leaked into alarms: %q", alarms.Text)
	}
}

func TestDecode_Pure(t *testing.T) {
	// Decoding the same frame twice yields identical batches
	frame := NewFrame(buildTelemetryFrame(0x03, func(data []byte) {
		putU16(data, 3, 5123)
		putU16(data, 5, 200)
	}))

	first := Decode(frame)
	second := Decode(frame)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("decode is not repeatable")
	}
}

func TestDecode_DeviceIndexing(t *testing.T) {
	low := NewFrame(buildTelemetryFrame(0x01, nil))
	if low.DeviceIndex() != 0 || !low.IsMaster() {
		t.Errorf("address 0x01: index %d, master %v", low.DeviceIndex(), low.IsMaster())
	}

	high := NewFrame(buildTelemetryFrame(0x10, nil))
	if high.DeviceIndex() != 15 || high.IsMaster() {
		t.Errorf("address 0x10: index %d, master %v", high.DeviceIndex(), high.IsMaster())
	}

	metrics := Decode(high)
	for _, m := range metrics {
		if m.Device != 15 {
			t.Errorf("metric %s carries device %d", m.Name, m.Device)
		}
		if !strings.HasPrefix(m.Key(), "pack15.") {
			t.Errorf("metric key %q not rooted at pack15", m.Key())
		}
	}
}

func TestDecode_UnknownSubtype(t *testing.T) {
	// Frames the synchronizer would never emit still decode to nothing
	data := []byte{0x01, 0x04, 0x99, 0x00, 0x00}
	frame := NewFrame(appendCRC(data))
	if metrics := Decode(frame); metrics != nil {
		t.Errorf("unknown subtype decoded to %d metrics", len(metrics))
	}
}
