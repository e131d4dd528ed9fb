// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

import (
	"strings"
	"testing"
)

func TestSubtypeName(t *testing.T) {
	tests := []struct {
		subtype  byte
		expected string
	}{
		{SubtypePackTelemetry, "PACK_TELEMETRY"},
		{SubtypeCellDetail, "CELL_DETAIL"},
		{SubtypeAlarmStatus, "ALARM_STATUS"},
		{0x99, "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := SubtypeName(tt.subtype); got != tt.expected {
			t.Errorf("SubtypeName(0x%02X) = %q, expected %q", tt.subtype, got, tt.expected)
		}
	}
}

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		name     string
		metric   Metric
		expected string
	}{
		{
			name:     "number with unit",
			metric:   number(0, "packVoltage", 52.0, "V", RoleVoltage),
			expected: "packVoltage: 52 V",
		},
		{
			name:     "number without trailing zeros",
			metric:   number(0, "soc", 98.2, "%", RolePercentage),
			expected: "soc: 98.2 %",
		},
		{
			name:     "text",
			metric:   text(0, "systemStatus", "Charging"),
			expected: "systemStatus: Charging",
		},
		{
			name:     "empty text renders as dash",
			metric:   text(0, "alarms", ""),
			expected: "alarms: -",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMetric(tt.metric); got != tt.expected {
				t.Errorf("got %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestFormatFrame(t *testing.T) {
	raw := buildTelemetryFrame(0x02, func(data []byte) {
		putU16(data, 3, 5200)
	})
	out := FormatFrame(NewFrame(raw))

	if !strings.Contains(out, "PACK_TELEMETRY") {
		t.Errorf("header missing subtype name:\n%s", out)
	}
	if !strings.Contains(out, "pack=1") {
		t.Errorf("header missing device index:\n%s", out)
	}
	if !strings.Contains(out, "packVoltage: 52 V") {
		t.Errorf("metrics missing from output:\n%s", out)
	}
}

func TestMetricKey(t *testing.T) {
	m := number(3, "soc", 98.2, "%", RolePercentage)
	if m.Key() != "pack3.soc" {
		t.Errorf("key = %q", m.Key())
	}
}

func TestRoleString(t *testing.T) {
	tests := []struct {
		role     Role
		expected string
	}{
		{RoleVoltage, "voltage"},
		{RoleTemperature, "temperature"},
		{RoleText, "text"},
		{Role(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.role.String(); got != tt.expected {
			t.Errorf("Role(%d).String() = %q, expected %q", tt.role, got, tt.expected)
		}
	}
}
