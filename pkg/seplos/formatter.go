// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

import (
	"fmt"
	"strconv"
)

// SubtypeName returns the human-readable name for a frame subtype
func SubtypeName(subtype byte) string {
	switch subtype {
	case SubtypePackTelemetry:
		return "PACK_TELEMETRY"
	case SubtypeCellDetail:
		return "CELL_DETAIL"
	case SubtypeAlarmStatus:
		return "ALARM_STATUS"
	default:
		return "UNKNOWN"
	}
}

// FormatFrame formats a decoded frame and its metrics into a human-readable
// block.
func FormatFrame(f *Frame) string {
	timestamp := f.Timestamp().Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) pack=%d len=%d\n",
		timestamp, SubtypeName(f.Subtype()), f.Subtype(), f.DeviceIndex(), len(f.Data()))
	return result + FormatMetrics(Decode(f))
}

// FormatMetrics formats a metric batch, one line per metric
func FormatMetrics(metrics []Metric) string {
	result := ""
	for _, m := range metrics {
		result += "  " + FormatMetric(m) + "\n"
	}
	return result
}

// FormatMetric formats a single metric as "name: value unit"
func FormatMetric(m Metric) string {
	if m.Kind == KindText {
		value := m.Text
		if value == "" {
			value = "-"
		}
		return fmt.Sprintf("%s: %s", m.Name, value)
	}
	value := strconv.FormatFloat(m.Value, 'f', -1, 64)
	if m.Unit != "" {
		return fmt.Sprintf("%s: %s %s", m.Name, value, m.Unit)
	}
	return fmt.Sprintf("%s: %s", m.Name, value)
}
