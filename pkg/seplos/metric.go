// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

import "fmt"

// Kind distinguishes numeric metrics from text metrics
type Kind int

const (
	KindNumber Kind = iota
	KindText
)

// Role classifies what a metric measures, so sinks can tag values on write
type Role int

const (
	RoleVoltage Role = iota
	RoleCurrent
	RoleTemperature
	RolePercentage
	RoleCapacity
	RoleCount
	RoleText
)

// String returns the role's sink-facing name
func (r Role) String() string {
	switch r {
	case RoleVoltage:
		return "voltage"
	case RoleCurrent:
		return "current"
	case RoleTemperature:
		return "temperature"
	case RolePercentage:
		return "percentage"
	case RoleCapacity:
		return "capacity"
	case RoleCount:
		return "count"
	case RoleText:
		return "text"
	default:
		return "unknown"
	}
}

// Metric is one decoded engineering value from a frame. Metrics are created
// fresh per decoded frame and not retained by the decoder.
type Metric struct {
	Device int // device index, 0-15
	Name   string
	Kind   Kind
	Value  float64 // set for KindNumber
	Text   string  // set for KindText
	Unit   string
	Role   Role
}

// Key returns the metric's hierarchical name, scoped by device index
func (m Metric) Key() string {
	return fmt.Sprintf("pack%d.%s", m.Device, m.Name)
}

func number(device int, name string, value float64, unit string, role Role) Metric {
	return Metric{
		Device: device,
		Name:   name,
		Kind:   KindNumber,
		Value:  value,
		Unit:   unit,
		Role:   role,
	}
}

func text(device int, name, value string) Metric {
	return Metric{
		Device: device,
		Name:   name,
		Kind:   KindText,
		Text:   value,
		Role:   RoleText,
	}
}
